// Package jsverify checks generated and rewritten JavaScript/TypeScript
// sources for syntax errors before they are written into the working copy.
package jsverify

import (
	"errors"
	"fmt"
	"path"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

// ErrSyntax is wrapped by every syntax failure reported by this package.
var ErrSyntax = errors.New("syntax error")

// LoaderFor picks the esbuild loader matching a file name's extension.
func LoaderFor(name string) esbuild.Loader {
	switch strings.ToLower(path.Ext(name)) {
	case ".tsx":
		return esbuild.LoaderTSX
	case ".ts", ".mts", ".cts":
		return esbuild.LoaderTS
	case ".jsx":
		return esbuild.LoaderJSX
	default:
		return esbuild.LoaderJS
	}
}

// Check parses code with esbuild using the loader for name.
func Check(name, code string) error {
	result := esbuild.Transform(code, esbuild.TransformOptions{
		Format:     esbuild.FormatESModule,
		Loader:     LoaderFor(name),
		Target:     esbuild.ES2020,
		Sourcefile: name,
		LogLevel:   esbuild.LogLevelSilent,
	})
	return messagesErr(name, result.Errors)
}

// Transpile strips TypeScript syntax and emits plain JavaScript with no module
// wrapper, suitable for platforms that concatenate script files into one scope.
func Transpile(name, code string) (string, error) {
	result := esbuild.Transform(code, esbuild.TransformOptions{
		Loader:     LoaderFor(name),
		Target:     esbuild.ES2019,
		Sourcefile: name,
		LogLevel:   esbuild.LogLevelSilent,
	})
	if err := messagesErr(name, result.Errors); err != nil {
		return "", err
	}
	return string(result.Code), nil
}

// CheckScript parses plain JavaScript with the tdewolff parser. It is used
// for sources that are evaluated directly by node or the hosting runtime.
func CheckScript(name, code string) error {
	if _, err := js.Parse(parse.NewInputString(code), js.Options{}); err != nil {
		return fmt.Errorf("%s: %w: %v", name, ErrSyntax, err)
	}
	return nil
}

func messagesErr(name string, msgs []esbuild.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			parts = append(parts, fmt.Sprintf("%d:%d: %s", m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		parts = append(parts, m.Text)
	}
	return fmt.Errorf("%s: %w: %s", name, ErrSyntax, strings.Join(parts, "; "))
}
