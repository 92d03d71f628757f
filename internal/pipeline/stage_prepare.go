package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/logfields"
	"git.home.luguber.info/inful/next2gas/internal/retry"
	"git.home.luguber.info/inful/next2gas/internal/source"
)

// EntryComponent is the root component file name without extension.
const EntryComponent = "_app"

func stagePrepareWorkspace(_ context.Context, bs *BuildState) error {
	if err := source.Check(bs.Options.Project); err != nil {
		return err
	}
	if bs.Options.Output == "" {
		return ferrors.InputError("no output directory given").Build()
	}
	if _, err := os.Stat(bs.Options.Output); err == nil && !bs.Options.Force {
		return ferrors.InputError("output directory already exists; pass --force to replace it").
			WithContext("path", bs.Options.Output).Build()
	}
	return bs.Workspace.Reset()
}

func stageAcquireSource(ctx context.Context, bs *BuildState) error {
	opts := source.Options{
		Ref:   bs.Options.Ref,
		Depth: bs.Options.Depth,
		Token: bs.Options.GitToken,
		Limit: bs.limit(),
		Retry: retry.FromConfig(bs.Config.Source),
	}
	if err := source.Acquire(ctx, bs.Options.Project, bs.Paths.WorkingCopy, opts); err != nil {
		return err
	}
	return bs.Workspace.Claim()
}

func stageLoadProject(_ context.Context, bs *BuildState) error {
	cfg := bs.Config
	name, err := source.ResolveName(bs.Options.Name, cfg.Project.Name, bs.Paths.WorkingCopy)
	if err != nil {
		return err
	}
	bs.AppName = name
	bs.Report.AppName = name

	if info, err := os.Stat(bs.Paths.PagesDir); err != nil || !info.IsDir() {
		return ferrors.InputError("pages directory not found in project").
			WithContext("path", cfg.Project.PagesDir).Build()
	}
	entry := filepath.Join(bs.Paths.PagesDir, EntryComponent+cfg.Project.PageExtension)
	if _, err := os.Stat(entry); err != nil {
		return ferrors.InputError("root component not found in pages directory").
			WithContext("file", EntryComponent+cfg.Project.PageExtension).Build()
	}

	n, err := bs.Env.LoadFile(filepath.Join(bs.Paths.WorkingCopy, filepath.FromSlash(cfg.Environment.File)))
	if err != nil {
		return err
	}
	bs.Public, bs.Private = bs.Env.Split(cfg.Environment.PrivateKeys)
	slog.Info("Loaded project",
		logfields.Project(name),
		logfields.Count(n),
		slog.Int("public", len(bs.Public)),
		slog.Int("private", len(bs.Private)))
	return nil
}
