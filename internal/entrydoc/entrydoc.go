// Package entrydoc reassembles the exported entry document for single-document
// hosting: external scripts and stylesheets are carried inside the document
// (or a template fragment) and the runtime data script is injected.
package entrydoc

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/next2gas/internal/assets"
	"git.home.luguber.info/inful/next2gas/internal/config"
	"git.home.luguber.info/inful/next2gas/internal/env"
	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/logfields"
	"git.home.luguber.info/inful/next2gas/internal/platform"
)

// Options controls one assembly.
type Options struct {
	// ExportDir is the static export root that document references resolve against.
	ExportDir string
	StyleMode config.StyleMode
	Placement config.DataPlacement
	AppName   string
	// Runtime holds the variables exposed to the client. Private values must
	// not be passed here.
	Runtime []env.Variable
	Limit   int
}

// Fragment is a template file pulled into the document by an include directive.
type Fragment struct {
	Name    string
	Content string
}

// FileName is the fragment's file name on the platform.
func (f Fragment) FileName() string { return f.Name + platform.FragmentExt }

// Stats counts what an assembly changed.
type Stats struct {
	Scripts     int
	Stylesheets int
	Duplicates  int
	Preloads    int
}

// Result is the assembled document plus the fragments it includes.
type Result struct {
	HTML      string
	Fragments []Fragment
	// Inlined lists export-relative paths whose content now lives in the
	// document or a fragment.
	Inlined []string
	Stats   Stats
}

type kind int

const (
	kindScript kind = iota
	kindStyle
)

type target struct {
	node *html.Node
	kind kind
	ref  string
	rel  string
	data []byte
}

// Assemble rewrites the entry document src. The parsed tree is owned by this
// call and mutated only after every referenced file has been read.
func Assemble(ctx context.Context, src []byte, opts Options) (*Result, error) {
	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInput, "failed to parse entry document").Build()
	}

	var scripts, styles, hints []*html.Node
	walk(doc, func(n *html.Node) {
		switch n.Data {
		case "script":
			if hasAttr(n, "src") {
				scripts = append(scripts, n)
			}
		case "link":
			switch {
			case hasRel(n, "stylesheet"):
				styles = append(styles, n)
			case hasRel(n, "preload"), hasRel(n, "modulepreload"), hasRel(n, "prefetch"):
				hints = append(hints, n)
			}
		}
	})

	res := &Result{}
	styles, res.Stats.Duplicates = dedupe(styles)

	var targets []*target
	for _, n := range scripts {
		t, err := newTarget(n, kindScript, "src")
		if err != nil {
			return nil, err
		}
		if t != nil {
			targets = append(targets, t)
		}
	}
	for _, n := range styles {
		t, err := newTarget(n, kindStyle, "href")
		if err != nil {
			return nil, err
		}
		if t != nil {
			targets = append(targets, t)
		}
	}

	if err := readAll(ctx, opts, targets); err != nil {
		return nil, err
	}

	var includes []string
	inlined := map[string]bool{}
	names := map[string]int{}
	for _, t := range targets {
		inlined[t.rel] = true
		res.Inlined = append(res.Inlined, t.rel)
		switch t.kind {
		case kindScript:
			mt := assets.MediaType(t.rel)
			setAttr(t.node, "src", assets.DataURI(mt, t.data))
			if getAttr(t.node, "type") != "module" {
				setAttr(t.node, "type", mt)
			}
			res.Stats.Scripts++
		case kindStyle:
			if opts.StyleMode == config.StyleModeInclude {
				frag := Fragment{Name: fragmentName(t.rel, names), Content: "<style>\n" + string(t.data) + "\n</style>\n"}
				t.node.Parent.RemoveChild(t.node)
				res.Fragments = append(res.Fragments, frag)
				includes = append(includes, platform.UnescapedInclude(frag.Name))
			} else {
				setAttr(t.node, "href", assets.DataURI(assets.MediaType(t.rel), t.data))
			}
			res.Stats.Stylesheets++
		}
		slog.Debug("Inlined entry reference", logfields.Href(t.ref), logfields.Bytes(int64(len(t.data))))
	}

	for _, n := range hints {
		rel, local := resolve(getAttr(n, "href"))
		if local && inlined[rel] {
			n.Parent.RemoveChild(n)
			res.Stats.Preloads++
		}
	}

	if err := injectRuntime(doc, opts); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to render entry document").Build()
	}
	res.HTML = insertBeforeBodyEnd(buf.String(), includes)
	return res, nil
}

func newTarget(n *html.Node, k kind, attr string) (*target, error) {
	ref := getAttr(n, attr)
	rel, local := resolve(ref)
	if !local {
		return nil, nil
	}
	if rel == "" {
		return nil, ferrors.AssetIntegrityError("entry document reference does not name a file").
			WithContext("href", ref).Build()
	}
	return &target{node: n, kind: k, ref: ref, rel: rel}, nil
}

func readAll(ctx context.Context, opts Options, targets []*target) error {
	limit := opts.Limit
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, t := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(opts.ExportDir, filepath.FromSlash(t.rel)))
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return ferrors.AssetIntegrityError("entry document references a missing file").
						WithContext("href", t.ref).WithContext("file", t.rel).Build()
				}
				return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read entry reference").
					WithContext("file", t.rel).Build()
			}
			t.data = data
			return nil
		})
	}
	return g.Wait()
}

// dedupe drops stylesheet links whose href was already seen, keeping the first.
func dedupe(links []*html.Node) ([]*html.Node, int) {
	seen := map[string]bool{}
	var kept []*html.Node
	removed := 0
	for _, n := range links {
		href := getAttr(n, "href")
		if seen[href] {
			n.Parent.RemoveChild(n)
			removed++
			continue
		}
		seen[href] = true
		kept = append(kept, n)
	}
	return kept, removed
}

// resolve maps a document reference to an export-relative slash path. local is
// false for absolute URLs, protocol-relative URLs and data URIs.
func resolve(ref string) (rel string, local bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "//") {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	if u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return "", true
	}
	return strings.TrimPrefix(path.Clean("/"+u.Path), "/"), true
}

func fragmentName(rel string, used map[string]int) string {
	stem := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	stem = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, stem)
	name := "style-" + stem
	used[name]++
	if n := used[name]; n > 1 {
		name = name + "-" + strconv.Itoa(n)
	}
	return name
}

func insertBeforeBodyEnd(doc string, directives []string) string {
	if len(directives) == 0 {
		return doc
	}
	block := strings.Join(directives, "\n") + "\n"
	i := strings.LastIndex(doc, "</body>")
	if i < 0 {
		return doc + block
	}
	return doc[:i] + block + doc[i:]
}
