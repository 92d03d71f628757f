package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/next2gas/internal/catalog"
	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/logfields"
)

// Reference is one encoded asset.
type Reference struct {
	OriginalPath string // relative to the assets directory, slash-separated
	SidecarPath  string
	MediaType    string
	Size         int64
}

// Encode writes a data-URI sidecar next to every file under assetsDir. Files
// are encoded concurrently with at most limit workers; the first failure
// aborts the batch.
func Encode(ctx context.Context, assetsDir string, limit int) ([]Reference, error) {
	files, err := catalog.List(assetsDir)
	if err != nil {
		return nil, err
	}

	refs := make([]Reference, len(files))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, rel := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src := filepath.Join(assetsDir, filepath.FromSlash(rel))
			data, err := os.ReadFile(src)
			if err != nil {
				return ferrors.WrapError(err, ferrors.CategoryFileSystem, "read asset").
					WithContext("asset", rel).Build()
			}
			mt := MediaType(rel)
			sidecar := SidecarPath(src)
			if err := os.WriteFile(sidecar, []byte(DataURI(mt, data)), 0o644); err != nil {
				return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write asset sidecar").
					WithContext("asset", rel).Build()
			}
			refs[i] = Reference{OriginalPath: rel, SidecarPath: sidecar, MediaType: mt, Size: int64(len(data))}
			slog.Debug("Encoded asset", logfields.Asset(rel), slog.String("media_type", mt), logfields.Bytes(int64(len(data))))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}

// RewriteStats summarizes a rewrite pass.
type RewriteStats struct {
	FilesScanned   int
	FilesRewritten int
	References     int
}

// Rewriter replaces quoted asset references in exported documents with the
// content of their sidecars.
type Rewriter struct {
	// ExportDir is scanned for documents.
	ExportDir string
	// AssetsDir holds the assets and their sidecars.
	AssetsDir string
	// Marker is the URL prefix that identifies an asset reference, e.g. /assets/.
	Marker string
	// Extensions selects the documents to rewrite. Binary files must never be
	// listed here.
	Extensions []string
	Limit      int

	cache sync.Map
}

// Rewrite scans every selected document concurrently.
func (r *Rewriter) Rewrite(ctx context.Context) (RewriteStats, error) {
	files, err := catalog.List(r.ExportDir)
	if err != nil {
		return RewriteStats{}, err
	}
	exts := r.Extensions
	if len(exts) == 0 {
		exts = []string{".html"}
	}

	var scanned, rewritten, refs atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	if r.Limit > 0 {
		g.SetLimit(r.Limit)
	}
	for _, rel := range files {
		if !hasExt(rel, exts) {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			full := filepath.Join(r.ExportDir, filepath.FromSlash(rel))
			data, err := os.ReadFile(full)
			if err != nil {
				return ferrors.WrapError(err, ferrors.CategoryFileSystem, "read exported document").
					WithContext("file", rel).Build()
			}
			scanned.Add(1)
			out, n, err := r.RewriteText(rel, string(data))
			if err != nil {
				return err
			}
			if n == 0 {
				return nil
			}
			if err := os.WriteFile(full, []byte(out), 0o644); err != nil {
				return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write exported document").
					WithContext("file", rel).Build()
			}
			rewritten.Add(1)
			refs.Add(int64(n))
			slog.Debug("Rewrote asset references", logfields.File(rel), logfields.Count(n))
			return nil
		})
	}
	err = g.Wait()
	stats := RewriteStats{FilesScanned: int(scanned.Load()), FilesRewritten: int(rewritten.Load()), References: int(refs.Load())}
	return stats, err
}

// RewriteText replaces every `"<marker>...` span up to the next double quote
// with the referenced asset's sidecar content. The whole quoted reference is
// the lookup key, so references sharing a prefix never affect each other.
func (r *Rewriter) RewriteText(file, text string) (string, int, error) {
	needle := `"` + r.Marker
	var b strings.Builder
	count := 0
	pos := 0
	for {
		i := strings.Index(text[pos:], needle)
		if i < 0 {
			break
		}
		start := pos + i + 1 // first byte after the opening quote
		end := strings.IndexByte(text[start:], '"')
		if end < 0 {
			break
		}
		end += start
		ref := text[start:end]
		rel := strings.TrimPrefix(ref, r.Marker)
		if cut := strings.IndexAny(rel, "?#"); cut >= 0 {
			rel = rel[:cut]
		}
		if unescaped, err := url.PathUnescape(rel); err == nil {
			rel = unescaped
		}
		if rel == "" || strings.HasSuffix(rel, "/") {
			// A bare directory prefix, typically concatenated at runtime.
			b.WriteString(text[pos:end])
			pos = end
			continue
		}
		encoded, err := r.sidecar(file, ref, rel)
		if err != nil {
			return "", 0, err
		}
		b.WriteString(text[pos:start])
		b.WriteString(encoded)
		pos = end
		count++
	}
	if count == 0 {
		return text, 0, nil
	}
	b.WriteString(text[pos:])
	return b.String(), count, nil
}

func (r *Rewriter) sidecar(file, ref, rel string) (string, error) {
	if v, ok := r.cache.Load(rel); ok {
		return v.(string), nil
	}
	clean := path.Clean("/" + rel)[1:]
	if clean != rel || strings.HasPrefix(clean, "../") {
		return "", ferrors.AssetIntegrityError(fmt.Sprintf("asset reference %q leaves the assets directory", ref)).
			WithContext("file", file).WithContext("reference", ref).Build()
	}
	data, err := os.ReadFile(SidecarPath(filepath.Join(r.AssetsDir, filepath.FromSlash(rel))))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ferrors.AssetIntegrityError(fmt.Sprintf("%s references %q which has no encoded asset", file, ref)).
				WithContext("file", file).WithContext("reference", ref).Build()
		}
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "read asset sidecar").
			WithContext("reference", ref).Build()
	}
	r.cache.Store(rel, string(data))
	return string(data), nil
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
