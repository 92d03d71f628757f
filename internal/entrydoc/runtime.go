package entrydoc

import (
	"encoding/json"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/next2gas/internal/config"
	"git.home.luguber.info/inful/next2gas/internal/env"
	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/platform"
)

// RuntimeScript renders the script body assigning the client runtime data.
// Platform values are read from the server-side public namespace when the
// template is evaluated, indexed by the quoted key so any key name is safe;
// literals are embedded as escaped JS strings.
func RuntimeScript(appName string, vars []env.Variable) (string, error) {
	var b strings.Builder
	b.WriteString("window." + platform.RuntimeGlobal + " = {\n")
	entries := append([]env.Variable{{Key: platform.AppNameKey, Value: appName}}, vars...)
	for _, v := range entries {
		key, err := json.Marshal(v.Key)
		if err != nil {
			return "", err
		}
		var val string
		if v.Platform {
			val = `"` + platform.InlineExpression(platform.PublicNamespace+"["+string(key)+"]") + `"`
		} else {
			lit, err := json.Marshal(v.Value)
			if err != nil {
				return "", err
			}
			val = string(lit)
		}
		b.WriteString("  " + string(key) + ": " + val + ",\n")
	}
	b.WriteString("};")
	return b.String(), nil
}

func injectRuntime(doc *html.Node, opts Options) error {
	placement := opts.Placement
	if placement == "" {
		placement = config.PlacementHead
	}
	parent := find(doc, string(placement))
	if parent == nil {
		return ferrors.InputError("entry document has no element for runtime data").
			WithContext("placement", string(placement)).Build()
	}
	text, err := RuntimeScript(opts.AppName, opts.Runtime)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to render runtime data").Build()
	}
	script := &html.Node{Type: html.ElementNode, Data: "script", DataAtom: atom.Script}
	script.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	parent.InsertBefore(script, parent.FirstChild)
	return nil
}
