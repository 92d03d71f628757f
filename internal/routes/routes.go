// Package routes derives a client-side route table from the layout of the
// page files and renders it as a react-router source module.
package routes

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"git.home.luguber.info/inful/next2gas/internal/catalog"
	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
)

const (
	identifierSuffix = "Page"
	// FileName is the generated module, written next to the page files.
	FileName = "routes.tsx"
	// ComponentName is the default export of the generated module.
	ComponentName = "AppRoutes"
)

// Descriptor is one page component and the route it answers.
type Descriptor struct {
	SourcePath string // relative to the pages root, slash-separated
	Route      string
	Identifier string
}

// Options controls which page files take part in the table.
type Options struct {
	PageExtension string
	// Reserved patterns name non-page utilities under the pages root.
	Reserved []string
}

// Table is the ordered route table. Discovery order is kept; the index and
// not-found pages are appended last.
type Table struct {
	Entries []Descriptor

	byIdentifier map[string]string
	byRoute      map[string]string
}

// Synthesize builds the route table from page files listed relative to the
// pages root (as returned by catalog.List).
func Synthesize(files []string, opts Options) (*Table, error) {
	ext := opts.PageExtension
	if ext == "" {
		ext = ".tsx"
	}
	indexFile := "index" + ext
	notFoundFile := "404" + ext

	t := &Table{byIdentifier: map[string]string{}, byRoute: map[string]string{}}
	var hasIndex, hasNotFound bool
	for _, f := range files {
		if path.Ext(f) != ext || catalog.Match(opts.Reserved, f) {
			continue
		}
		switch f {
		case indexFile:
			hasIndex = true
			continue
		case notFoundFile:
			hasNotFound = true
			continue
		}
		id, err := Identifier(f)
		if err != nil {
			return nil, err
		}
		if err := t.add(Descriptor{SourcePath: f, Route: RoutePath(f), Identifier: id}); err != nil {
			return nil, err
		}
	}
	if hasIndex {
		if err := t.add(Descriptor{SourcePath: indexFile, Route: "/", Identifier: "Index" + identifierSuffix}); err != nil {
			return nil, err
		}
	}
	if hasNotFound {
		if err := t.add(Descriptor{SourcePath: notFoundFile, Route: "*", Identifier: "NotFound" + identifierSuffix}); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) add(d Descriptor) error {
	if strings.ContainsAny(d.SourcePath, "\"'`\\") {
		return ferrors.DerivationError(fmt.Sprintf("page path %s contains quote characters", d.SourcePath)).
			WithContext("file", d.SourcePath).Build()
	}
	if prev, ok := t.byIdentifier[d.Identifier]; ok {
		return collision("identifier", d.Identifier, prev, d.SourcePath)
	}
	if prev, ok := t.byRoute[d.Route]; ok {
		return collision("route", d.Route, prev, d.SourcePath)
	}
	t.byIdentifier[d.Identifier] = d.SourcePath
	t.byRoute[d.Route] = d.SourcePath
	t.Entries = append(t.Entries, d)
	return nil
}

func collision(kind, value, first, second string) error {
	return ferrors.DerivationError(fmt.Sprintf("pages %s and %s derive the same %s %q", first, second, kind, value)).
		WithContext("kind", kind).
		WithContext("value", value).
		WithContext("first", first).
		WithContext("second", second).
		Build()
}

// Len returns the number of routes.
func (t *Table) Len() int { return len(t.Entries) }

// Identifier derives the component identifier for a page path: the first
// letter of every segment is capitalized, the segments are joined, bracket,
// dot and hyphen characters are dropped, and the suffix is appended.
// blog/[slug].tsx becomes BlogSlugPage, my-page.tsx becomes MypagePage.
func Identifier(pagePath string) (string, error) {
	stem := strings.TrimSuffix(pagePath, path.Ext(pagePath))
	var b strings.Builder
	for _, seg := range strings.Split(stem, "/") {
		// dynamic segments capitalize the parameter, not the bracket
		seg = strings.TrimLeft(seg, "[.")
		if seg == "" {
			continue
		}
		rs := []rune(seg)
		rs[0] = unicode.ToUpper(rs[0])
		b.WriteString(stripped.Replace(string(rs)))
	}
	base := b.String()
	if base == "" {
		return "", ferrors.DerivationError(fmt.Sprintf("cannot derive a component name from %s", pagePath)).
			WithContext("file", pagePath).Build()
	}
	for _, r := range base {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' {
			return "", ferrors.DerivationError(fmt.Sprintf("page name %s contains %q, which cannot appear in a component name", pagePath, r)).
				WithContext("file", pagePath).Build()
		}
	}
	if unicode.IsDigit([]rune(base)[0]) {
		// 500.tsx and friends: identifiers cannot start with a digit.
		base = "Route" + base
	}
	return base + identifierSuffix, nil
}

var stripped = strings.NewReplacer("[", "", "]", "", "-", "", ".", "")

// RoutePath derives the route for a page path. The extension and a trailing
// index segment are stripped, [param] becomes :param and catch-all segments
// become the splat.
func RoutePath(pagePath string) string {
	stem := strings.TrimSuffix(pagePath, path.Ext(pagePath))
	stem = strings.TrimSuffix(stem, "/index")
	if stem == "index" {
		return "/"
	}
	segs := strings.Split(stem, "/")
	for i, seg := range segs {
		switch {
		case strings.HasPrefix(seg, "[[...") && strings.HasSuffix(seg, "]]"),
			strings.HasPrefix(seg, "[...") && strings.HasSuffix(seg, "]"):
			segs[i] = "*"
		case strings.HasPrefix(seg, "[") && strings.HasSuffix(seg, "]"):
			segs[i] = ":" + seg[1:len(seg)-1]
		}
	}
	return "/" + strings.Join(segs, "/")
}
