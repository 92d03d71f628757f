package rewrite

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/jsverify"
)

const (
	// ShellComponent wraps the original root component.
	ShellComponent = "GasAppShell"
	// fallbackRootName binds anonymous or non-identifier default exports.
	fallbackRootName = "NextAppRoot"
)

// guardedImport is injected only when its binding is not already imported.
type guardedImport struct {
	binding string
	module  string
	line    string
	tsOnly  bool
}

// Order matters: each import is prepended, so the last one ends up on top.
var guardedImports = []guardedImport{
	{binding: "useEffect", module: "react", line: "import { useEffect } from 'react';"},
	{binding: "useState", module: "react", line: "import { useState } from 'react';"},
	{binding: "AppProps", module: "next/app", line: "import { AppProps } from 'next/app';", tsOnly: true},
}

var fixedImports = []string{
	"import AppRoutes from './routes';",
	"import { RouterProvider } from './useRouter';",
	"import { HashRouter } from 'react-router-dom';",
}

// InjectGuardedImports prepends the hook and props imports the shell needs,
// skipping any whose binding is already imported. Applying it twice yields the
// same text.
func InjectGuardedImports(src string, typescript bool) string {
	for _, gi := range guardedImports {
		if gi.tsOnly && !typescript {
			continue
		}
		if importsBinding(src, gi.binding, gi.module) {
			continue
		}
		src = gi.line + "\n" + src
	}
	return src
}

func importsBinding(src, binding, module string) bool {
	re := regexp.MustCompile(`import\s+(?:type\s+)?[^;'"]*\b` + regexp.QuoteMeta(binding) + `\b[^;'"]*from\s*['"]` + regexp.QuoteMeta(module) + `['"]`)
	return re.MatchString(src)
}

// entryState carries what the line rules discover.
type entryState struct {
	rendered bool
	exports  int
	rootName string
}

type lineRule struct {
	name  string
	match *regexp.Regexp
	apply func(st *entryState, line string, m []int) (string, error)
}

var (
	renderPattern = regexp.MustCompile(`<Component\b[^<>]*/>`)
	exportPattern = regexp.MustCompile(`^\s*export\s+default\b`)
	declPattern   = regexp.MustCompile(`^(\s*)export\s+default\s+((?:async\s+)?(?:function\b\s*\*?|class\b)\s*)([A-Za-z_$][\w$]*)?`)
	identPattern  = regexp.MustCompile(`^\s*export\s+default\s+([A-Za-z_$][\w$]*)\s*;?\s*(//.*)?$`)
)

var entryRules = []lineRule{
	{
		name:  "render-page-component",
		match: renderPattern,
		apply: func(st *entryState, line string, m []int) (string, error) {
			st.rendered = true
			return line[:m[0]] + "<AppRoutes />" + line[m[1]:], nil
		},
	},
	{
		name:  "default-export",
		match: exportPattern,
		apply: func(st *entryState, line string, _ []int) (string, error) {
			st.exports++
			if dm := declPattern.FindStringSubmatchIndex(line); dm != nil {
				// function/class declarations keep their body; only the export goes.
				indent := line[dm[2]:dm[3]]
				keyword := line[dm[4]:dm[5]]
				if dm[6] >= 0 && line[dm[6]:dm[7]] != "extends" {
					st.rootName = line[dm[6]:dm[7]]
					return indent + keyword + line[dm[6]:], nil
				}
				st.rootName = fallbackRootName
				kw := strings.TrimRight(keyword, " \t")
				rest := strings.TrimLeft(line[dm[5]:], " \t")
				if dm[6] >= 0 {
					// anonymous class: the captured word is the extends clause
					rest = " " + rest
				}
				return indent + kw + " " + fallbackRootName + rest, nil
			}
			if im := identPattern.FindStringSubmatch(line); im != nil {
				st.rootName = im[1]
				return "/*" + line + "*/", nil
			}
			// Any other expression, possibly spanning lines, is bound to a name.
			st.rootName = fallbackRootName
			return exportPattern.ReplaceAllStringFunc(line, func(s string) string {
				return strings.TrimSuffix(s, strings.TrimLeft(s, " \t")) + "const " + fallbackRootName + " ="
			}), nil
		},
	},
}

// RewriteEntry mounts the generated route table in the root component source.
// name is the file name, used to pick TypeScript or JavaScript output.
func RewriteEntry(name, src string) (string, error) {
	typescript := strings.HasPrefix(path.Ext(name), ".ts")

	src = InjectGuardedImports(src, typescript)
	src = strings.Join(fixedImports, "\n") + "\n" + src

	st := &entryState{}
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		for _, rule := range entryRules {
			m := rule.match.FindStringIndex(line)
			if m == nil {
				continue
			}
			out, err := rule.apply(st, line, m)
			if err != nil {
				return "", err
			}
			line = out
		}
		lines[i] = line
	}

	switch {
	case st.exports == 0:
		return "", rewriteErr(name, "root component has no default export")
	case st.exports > 1:
		return "", rewriteErr(name, fmt.Sprintf("root component has %d default exports", st.exports))
	case !st.rendered:
		return "", rewriteErr(name, "root component never renders <Component />")
	}

	out := strings.TrimRight(strings.Join(lines, "\n"), "\n") + "\n\n" + shell(st.rootName, typescript)
	if err := jsverify.Check(name, out); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryRewrite, "rewritten root component does not parse").
			WithContext("file", name).Build()
	}
	return out, nil
}

func shell(root string, typescript bool) string {
	props := "{ ...appProps }"
	if typescript {
		props += ": AppProps"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "const %s = (%s) => {\n", ShellComponent, props)
	b.WriteString("  const [isInBrowser, setIsInBrowser] = useState(false);\n")
	b.WriteString("  useEffect(() => setIsInBrowser(typeof window !== 'undefined'), []);\n")
	b.WriteString("  return isInBrowser ? (\n")
	b.WriteString("    <HashRouter>\n")
	b.WriteString("      <RouterProvider>\n")
	fmt.Fprintf(&b, "        <%s {...appProps} />\n", root)
	b.WriteString("      </RouterProvider>\n")
	b.WriteString("    </HashRouter>\n")
	b.WriteString("  ) : null;\n")
	b.WriteString("};\n\n")
	fmt.Fprintf(&b, "export default %s;\n", ShellComponent)
	return b.String()
}

func rewriteErr(file, msg string) error {
	return ferrors.RewriteError(msg).WithContext("file", file).Build()
}
