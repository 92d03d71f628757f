package rewrite

import (
	"path"
	"regexp"
	"strings"

	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/jsverify"
)

// RouterModule is the framework module whose hook is replaced.
const RouterModule = "next/router"

var routerImportPattern = regexp.MustCompile(`^(\s*)import\s+(type\s+)?\{([^}]*)\}\s*from\s*['"]next/router['"]\s*;?\s*$`)

// ShimImportPath returns the import specifier of the shim module for a file at
// rel (slash-separated, relative to the source root). The shim lives in
// shimDir, also relative to the source root. One ../ segment is added per
// directory between the source root and the file.
func ShimImportPath(rel, shimDir string) string {
	depth := strings.Count(path.Clean(rel), "/")
	prefix := "./"
	if depth > 0 {
		prefix = strings.Repeat("../", depth)
	}
	return prefix + path.Join(shimDir, ShimModule)
}

// UsesRouterHook reports whether src imports the framework router hook on a
// single line.
func UsesRouterHook(src string) bool {
	for _, line := range strings.Split(src, "\n") {
		if m := routerImportPattern.FindStringSubmatch(line); m != nil {
			if _, ok := hookBinding(m[3]); ok {
				return true
			}
		}
	}
	return false
}

// NavigationResult describes one rewritten file.
type NavigationResult struct {
	Source         string
	QueryRewrites  int
	KeptSpecifiers []string
}

// RewriteNavigation redirects the router hook import in the file at rel to the
// shim and adapts query reads to the shim's accessor. ok is false when the
// file does not import the hook and was left untouched.
func RewriteNavigation(rel, shimDir, src string) (res NavigationResult, ok bool, err error) {
	if !UsesRouterHook(src) {
		return NavigationResult{}, false, nil
	}
	typescript := strings.HasPrefix(path.Ext(rel), ".ts")
	shimPath := ShimImportPath(rel, shimDir)

	lines := strings.Split(src, "\n")
	out := make([]string, 0, len(lines)+2)
	var hooks []string
	for _, line := range lines {
		m := routerImportPattern.FindStringSubmatch(line)
		if m == nil {
			out = append(out, line)
			continue
		}
		local, ok := hookBinding(m[3])
		if !ok {
			out = append(out, line)
			continue
		}
		hooks = append(hooks, local)
		indent, typeOnly := m[1], m[2]
		out = append(out, indent+"import "+local+" from '"+shimPath+"';", indent+"/*"+strings.TrimLeft(line, " \t")+"*/")
		if rest := otherSpecifiers(m[3]); len(rest) > 0 {
			// Types such as NextRouter stay importable from the framework.
			out = append(out, indent+"import "+typeOnly+"{ "+strings.Join(rest, ", ")+" } from '"+RouterModule+"';")
			res.KeptSpecifiers = append(res.KeptSpecifiers, rest...)
		}
	}

	body := strings.Join(out, "\n")
	body, res.QueryRewrites = rewriteQueryReads(body, hooks, typescript)
	res.Source = body

	if err := jsverify.Check(rel, body); err != nil {
		return NavigationResult{}, false, ferrors.WrapError(err, ferrors.CategoryRewrite, "rewritten navigation source does not parse").
			WithContext("file", rel).Build()
	}
	return res, true, nil
}

// rewriteQueryReads turns <router>.query into a call of the shim's accessor.
// The router variable names come from `const x = useRouter()` bindings of the
// imported hook names, defaulting to "router".
func rewriteQueryReads(src string, hooks []string, typescript bool) (string, int) {
	names := map[string]bool{}
	for _, hook := range hooks {
		re := regexp.MustCompile(`\b(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::\s*[\w.<>]+\s*)?=\s*` + regexp.QuoteMeta(hook) + `\s*\(\s*\)`)
		for _, m := range re.FindAllStringSubmatch(src, -1) {
			names[m[1]] = true
		}
	}
	if len(names) == 0 {
		names["router"] = true
	}
	count := 0
	for name := range names {
		re := regexp.MustCompile(`(^|[^\w$.])` + regexp.QuoteMeta(name) + `\.query\b`)
		src = re.ReplaceAllStringFunc(src, func(s string) string {
			count++
			lead := strings.TrimSuffix(s, name+".query")
			if typescript {
				return lead + "(" + name + ".query as any)()"
			}
			return lead + name + ".query()"
		})
	}
	return src, count
}

func splitSpecifiers(list string) []string {
	var specs []string
	for _, s := range strings.Split(list, ",") {
		if s = strings.TrimSpace(s); s != "" {
			specs = append(specs, s)
		}
	}
	return specs
}

// hookBinding returns the local name the hook is imported under.
func hookBinding(list string) (string, bool) {
	for _, s := range splitSpecifiers(list) {
		if specifierName(s) != "useRouter" {
			continue
		}
		fields := strings.Fields(s)
		if n := len(fields); n >= 3 && fields[n-2] == "as" {
			return fields[n-1], true
		}
		return "useRouter", true
	}
	return "", false
}

func otherSpecifiers(list string) []string {
	var rest []string
	for _, s := range splitSpecifiers(list) {
		if specifierName(s) != "useRouter" {
			rest = append(rest, s)
		}
	}
	return rest
}

// specifierName returns the imported name of "a", "a as b" or "type a".
func specifierName(spec string) string {
	fields := strings.Fields(spec)
	if len(fields) > 1 && fields[0] == "type" {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
