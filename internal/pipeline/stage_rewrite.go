package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/next2gas/internal/catalog"
	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/fsutil"
	"git.home.luguber.info/inful/next2gas/internal/logfields"
	"git.home.luguber.info/inful/next2gas/internal/rewrite"
	"git.home.luguber.info/inful/next2gas/internal/routes"
)

func stageSynthesizeRoutes(_ context.Context, bs *BuildState) error {
	files, err := catalog.List(bs.Paths.PagesDir)
	if err != nil {
		return err
	}
	table, err := routes.Synthesize(files, routes.Options{
		PageExtension: bs.Config.Project.PageExtension,
		Reserved:      bs.Config.Project.ReservedPatterns,
	})
	if err != nil {
		return err
	}
	src, err := table.Render()
	if err != nil {
		return err
	}
	if err := writeSource(filepath.Join(bs.Paths.PagesDir, routes.FileName), src); err != nil {
		return err
	}
	for _, d := range table.Entries {
		slog.Debug("Route", logfields.Route(d.Route), logfields.Component(d.Identifier), logfields.File(d.SourcePath))
	}
	bs.Routes = table
	bs.Report.Counts.Routes = table.Len()
	bs.Recorder.SetRouteCount(table.Len())
	return nil
}

func stageRewriteEntry(_ context.Context, bs *BuildState) error {
	name := EntryComponent + bs.Config.Project.PageExtension
	p := filepath.Join(bs.Paths.PagesDir, name)
	data, err := os.ReadFile(p)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInput, "failed to read root component").
			WithContext("file", name).Build()
	}
	out, err := rewrite.RewriteEntry(name, string(data))
	if err != nil {
		return err
	}
	return writeSource(p, out)
}

func stageGenerateShim(_ context.Context, bs *BuildState) error {
	return writeSource(filepath.Join(bs.Paths.PagesDir, rewrite.ShimFileName), rewrite.ShimSource())
}

func stageRewriteNavigation(ctx context.Context, bs *BuildState) error {
	files, err := catalog.List(bs.Paths.SourceDir)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(bs.Paths.SourceDir, bs.Paths.PagesDir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "pages directory is not below the source directory").Build()
	}
	shimDir := filepath.ToSlash(rel)
	exclude := []string{
		path.Join(shimDir, rewrite.ShimModule+".*"),
		path.Join(shimDir, strings.TrimSuffix(routes.FileName, path.Ext(routes.FileName))+".*"),
	}
	candidates := catalog.Filter(files, bs.Config.Project.NavigationPatterns, exclude)

	var rewritten, queries atomic.Int64
	var mu sync.Mutex
	var untouched []string

	g, ctx := errgroup.WithContext(ctx)
	if l := bs.limit(); l > 0 {
		g.SetLimit(l)
	}
	for _, f := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := filepath.Join(bs.Paths.SourceDir, filepath.FromSlash(f))
			data, err := os.ReadFile(p)
			if err != nil {
				return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read source file").
					WithContext("file", f).Build()
			}
			src := string(data)
			res, ok, err := rewrite.RewriteNavigation(f, shimDir, src)
			if err != nil {
				return err
			}
			if !ok {
				if strings.Contains(src, rewrite.RouterModule) && strings.Contains(src, "useRouter") {
					mu.Lock()
					untouched = append(untouched, f)
					mu.Unlock()
				}
				return nil
			}
			if err := writeSource(p, res.Source); err != nil {
				return err
			}
			rewritten.Add(1)
			queries.Add(int64(res.QueryRewrites))
			slog.Debug("Redirected router hook", logfields.File(f), slog.Int("query_rewrites", res.QueryRewrites))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	bs.Report.Counts.NavigationFiles = int(rewritten.Load())
	bs.Report.Counts.QueryRewrites = int(queries.Load())
	if len(untouched) > 0 {
		sort.Strings(untouched)
		return NewWarnStageError(StageRewriteNavigation,
			ferrors.RewriteError("router hook referenced in a form that was not rewritten").
				Warning().
				WithContext("files", strings.Join(untouched, ",")).
				Build())
	}
	return nil
}

func writeSource(p, content string) error {
	if err := fsutil.WriteFile(p, []byte(content)); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write source file").
			WithContext("file", filepath.Base(p)).Build()
	}
	return nil
}
