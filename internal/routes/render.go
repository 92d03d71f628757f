package routes

import (
	"fmt"
	"path"
	"strings"

	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/jsverify"
)

// Render emits the route module. Imports are relative to the pages root, where
// the module is written.
func (t *Table) Render() (string, error) {
	var b strings.Builder
	b.WriteString("// Code generated by next2gas. DO NOT EDIT.\n")
	b.WriteString("import { Route, Routes } from 'react-router-dom';\n")
	for _, d := range t.Entries {
		fmt.Fprintf(&b, "import %s from './%s';\n", d.Identifier, strings.TrimSuffix(d.SourcePath, path.Ext(d.SourcePath)))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "const %s: React.FC = () => (\n", ComponentName)
	b.WriteString("  <Routes>\n")
	for _, d := range t.Entries {
		fmt.Fprintf(&b, "    <Route path=\"%s\" element={<%s />} />\n", d.Route, d.Identifier)
	}
	b.WriteString("  </Routes>\n")
	b.WriteString(");\n\n")
	fmt.Fprintf(&b, "export default %s;\n", ComponentName)

	src := b.String()
	if err := jsverify.Check(FileName, src); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryInternal, "generated route module does not parse").Build()
	}
	return src, nil
}
