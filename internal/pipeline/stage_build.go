package pipeline

import (
	"context"
	"log/slog"
	"os"

	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/logfields"
	"git.home.luguber.info/inful/next2gas/internal/nextconfig"
	"git.home.luguber.info/inful/next2gas/internal/runner"
)

func stagePatchConfig(ctx context.Context, bs *BuildState) error {
	p := &nextconfig.Patcher{Runner: bs.Runner}
	changes, err := p.Apply(ctx, bs.Paths.WorkingCopy)
	if err != nil {
		return err
	}
	for _, c := range changes {
		slog.Info("Applied build configuration default", slog.String("key", c.Path))
	}
	bs.Report.Counts.ConfigDefaults = len(changes)
	return nil
}

func (bs *BuildState) invoker() *runner.Invoker {
	return &runner.Invoker{
		Runner:   bs.Runner,
		Recorder: bs.Recorder,
		Install:  bs.Config.Build.Install,
		Build:    bs.Config.Build.Commands,
	}
}

func stageInstall(ctx context.Context, bs *BuildState) error {
	return bs.invoker().RunInstall(ctx, bs.Paths.WorkingCopy)
}

func stageBuildExport(ctx context.Context, bs *BuildState) error {
	if err := bs.invoker().RunBuild(ctx, bs.Paths.WorkingCopy); err != nil {
		return err
	}
	if _, err := os.Stat(bs.Paths.EntryDoc); err != nil {
		return ferrors.InputError("static export produced no entry document").
			WithContext("file", bs.Config.Build.EntryDocument).
			WithContext("path", bs.Config.Build.ExportDir).Build()
	}
	slog.Info("Static export ready", logfields.Path(bs.Paths.ExportDir))
	return nil
}
