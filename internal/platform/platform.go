// Package platform describes the script-hosting platform the bundle is
// deployed to: its template markers, deployment manifest and project
// descriptor.
package platform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	expressionOpen = "<?="
	unescapedOpen  = "<?!="
	markerClose    = "?>"

	// FragmentExt is the extension of HTML template files the platform can include.
	FragmentExt = ".html"
	// EntryFragment is the template served for the root path.
	EntryFragment = "index"
	// ManifestFile and ProjectFile are the fixed descriptor names.
	ManifestFile = "appsscript.json"
	ProjectFile  = ".clasp.json"
	// DataModuleFile holds the PUBLIC_DATA and PRIVATE_DATA namespaces.
	DataModuleFile = "variables.js"

	PublicNamespace  = "PUBLIC_DATA"
	PrivateNamespace = "PRIVATE_DATA"
	// RuntimeGlobal is the window property the client reads runtime data from.
	RuntimeGlobal = "GAS_DATA"
	// AppNameKey is always present in the public namespace.
	AppNameKey = "APPLICATION_NAME"
)

// InlineExpression wraps expr in the marker evaluated server-side before serving.
func InlineExpression(expr string) string {
	return expressionOpen + " " + strings.TrimSpace(expr) + " " + markerClose
}

// UnescapedInclude renders the directive that inlines another template fragment.
func UnescapedInclude(fragment string) string {
	return fmt.Sprintf("%s include('%s'); %s", unescapedOpen, fragment, markerClose)
}

// IsExpression reports whether value is written in the inline expression syntax.
func IsExpression(value string) bool {
	v := strings.TrimSpace(value)
	return strings.HasPrefix(v, expressionOpen) && strings.HasSuffix(v, markerClose) && len(v) >= len(expressionOpen)+len(markerClose)
}

// ExpressionBody strips the inline expression markers from value.
func ExpressionBody(value string) string {
	v := strings.TrimSpace(value)
	v = strings.TrimPrefix(v, expressionOpen)
	v = strings.TrimSuffix(v, markerClose)
	return strings.TrimSpace(v)
}

// Builtin runtime values every bundle exposes.
var Builtins = []struct{ Key, Expression string }{
	{"APP_URL", "ScriptApp.getService().getUrl()"},
	{"USER_EMAIL", "Session.getEffectiveUser().getEmail()"},
}

// Manifest is the platform deployment descriptor.
type Manifest struct {
	TimeZone         string         `json:"timeZone"`
	Dependencies     map[string]any `json:"dependencies"`
	ExceptionLogging string         `json:"exceptionLogging"`
	RuntimeVersion   string         `json:"runtimeVersion"`
	Webapp           Webapp         `json:"webapp"`
}

// Webapp holds the execution identity and access policy.
type Webapp struct {
	ExecuteAs string `json:"executeAs"`
	Access    string `json:"access"`
}

// Project points the deployment tool at a remote script and marks the output
// directory as the project root.
type Project struct {
	ScriptID string `json:"scriptId"`
	RootDir  string `json:"rootDir"`
}

// Encode renders v as indented JSON with a trailing newline. Angle brackets
// are kept literal, the descriptors are read by humans.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("platform: encode: %w", err)
	}
	return buf.Bytes(), nil
}
