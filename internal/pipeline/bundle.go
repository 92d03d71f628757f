// Package pipeline runs the bundle stages over an explicit build state: every
// path a stage touches is resolved up front and carried in BuildState.
package pipeline

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/next2gas/internal/config"
	"git.home.luguber.info/inful/next2gas/internal/logfields"
	"git.home.luguber.info/inful/next2gas/internal/metrics"
	"git.home.luguber.info/inful/next2gas/internal/runner"
)

// Bundle runs the full pipeline once. The returned report is populated even
// when the run fails. The workspace is discarded only after a successful run
// so a failure can be inspected; the next run resets it anyway.
func Bundle(ctx context.Context, cfg *config.Config, opts Options, r runner.Runner, rec metrics.Recorder) (*BuildReport, error) {
	bs := NewBuildState(cfg, opts, r, rec)
	slog.Info("Bundle started",
		logfields.RunID(bs.Report.RunID),
		logfields.Project(opts.Project),
		logfields.Path(opts.Output))

	err := RunStages(ctx, bs, DefaultStages())
	if err == nil {
		if cerr := bs.Workspace.Cleanup(); cerr != nil {
			slog.Warn("Failed to discard workspace", logfields.Path(bs.Paths.Workspace), logfields.Error(cerr))
		}
	}

	bs.Report.Finish()
	bs.Report.DeriveOutcome()
	bs.Recorder.ObserveBundleDuration(bs.Report.Duration())
	bs.Recorder.IncBundleOutcome(string(bs.Report.Outcome))

	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
	}
	slog.Log(ctx, level, "Bundle finished",
		logfields.RunID(bs.Report.RunID),
		slog.String("outcome", string(bs.Report.Outcome)),
		logfields.DurationMS(float64(bs.Report.Duration().Milliseconds())))
	return bs.Report, err
}
