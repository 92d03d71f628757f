package pipeline

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"git.home.luguber.info/inful/next2gas/internal/assets"
	"git.home.luguber.info/inful/next2gas/internal/entrydoc"
	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/fsutil"
	"git.home.luguber.info/inful/next2gas/internal/logfields"
	"git.home.luguber.info/inful/next2gas/internal/packager"
)

func stageEncodeAssets(ctx context.Context, bs *BuildState) error {
	if !fsutil.Exists(bs.Paths.AssetsDir) {
		slog.Info("Export has no assets directory", logfields.Path(bs.Config.Build.AssetsDir))
		return nil
	}
	refs, err := assets.Encode(ctx, bs.Paths.AssetsDir, bs.limit())
	if err != nil {
		return err
	}
	var total int64
	for _, r := range refs {
		total += r.Size
	}
	bs.Report.Counts.AssetsEncoded = len(refs)
	bs.Report.Counts.AssetBytes = total
	bs.Recorder.AddAssetsEncoded(len(refs), total)
	return nil
}

func stageInlineReferences(ctx context.Context, bs *BuildState) error {
	rw := &assets.Rewriter{
		ExportDir: bs.Paths.ExportDir,
		AssetsDir: bs.Paths.AssetsDir,
		Marker:    "/" + strings.Trim(bs.Config.Build.AssetsDir, "/") + "/",
		Limit:     bs.limit(),
	}
	stats, err := rw.Rewrite(ctx)
	if err != nil {
		return err
	}
	bs.Report.Counts.DocumentsRewritten = stats.FilesRewritten
	bs.Report.Counts.AssetReferences = stats.References
	slog.Info("Inlined asset references",
		logfields.Count(stats.References),
		slog.Int("documents", stats.FilesRewritten),
		slog.Int("scanned", stats.FilesScanned))
	return nil
}

func stageAssembleEntry(ctx context.Context, bs *BuildState) error {
	src, err := os.ReadFile(bs.Paths.EntryDoc)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInput, "failed to read entry document").
			WithContext("file", bs.Config.Build.EntryDocument).Build()
	}
	res, err := entrydoc.Assemble(ctx, src, entrydoc.Options{
		ExportDir: bs.Paths.ExportDir,
		StyleMode: bs.Config.Entry.StyleMode,
		Placement: bs.Config.Entry.RuntimeDataPlacement,
		AppName:   bs.AppName,
		Runtime:   bs.Public,
		Limit:     bs.limit(),
	})
	if err != nil {
		return err
	}
	bs.Assembled = res
	c := &bs.Report.Counts
	c.ScriptsInlined = res.Stats.Scripts
	c.StylesheetsInlined = res.Stats.Stylesheets
	c.DuplicateStylesheets = res.Stats.Duplicates
	c.PreloadsPruned = res.Stats.Preloads
	return nil
}

func stagePackageOutput(ctx context.Context, bs *BuildState) error {
	names, err := packager.Stage(bs.Paths.Staging, packager.Bundle{
		AppName:   bs.AppName,
		Document:  bs.Assembled.HTML,
		Fragments: bs.Assembled.Fragments,
		Public:    bs.Public,
		Private:   bs.Private,
		Platform:  bs.Config.Platform,
	})
	if err != nil {
		return err
	}
	if err := packager.Publish(ctx, bs.Paths.Staging, bs.Options.Output, bs.Options.Force, bs.limit()); err != nil {
		return err
	}
	bs.Report.Counts.FilesWritten = len(names)
	slog.Info("Bundle written", logfields.Path(bs.Options.Output), logfields.Count(len(names)))
	return nil
}
