package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/logfields"
)

// RunStages executes stages in order, recording timing and stopping on the
// first fatal error. A state can be run once; its working copy is not
// transformed a second time.
func RunStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	if bs.started {
		return ferrors.ValidationError("bundle state already ran; start a new run").Build()
	}
	bs.started = true

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			se := NewCanceledStageError(st.Name, err)
			bs.Report.Errors = append(bs.Report.Errors, se)
			bs.Report.RecordStageResult(st.Name, StageResultCanceled, bs.Recorder)
			return se
		}

		slog.Debug("Stage started", logfields.Stage(string(st.Name)), logfields.RunID(bs.Report.RunID))
		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)

		bs.Report.StageDurations[st.Name] = dur
		bs.Recorder.ObserveStageDuration(string(st.Name), dur)

		se := classify(st.Name, err)
		if se == nil {
			bs.Report.RecordStageResult(st.Name, StageResultSuccess, bs.Recorder)
			slog.Info("Stage complete", logfields.Stage(string(st.Name)), logfields.DurationMS(float64(dur.Milliseconds())))
			continue
		}

		switch se.Kind {
		case StageErrorWarning:
			bs.Report.Warnings = append(bs.Report.Warnings, se)
			bs.Report.RecordStageResult(st.Name, StageResultWarning, bs.Recorder)
			slog.Warn("Stage completed with warnings", logfields.Stage(string(st.Name)), logfields.Error(se.Err))
		case StageErrorCanceled:
			bs.Report.Errors = append(bs.Report.Errors, se)
			bs.Report.RecordStageResult(st.Name, StageResultCanceled, bs.Recorder)
			return se
		default:
			bs.Report.Errors = append(bs.Report.Errors, se)
			bs.Report.RecordStageResult(st.Name, StageResultFatal, bs.Recorder)
			return se
		}
	}
	return nil
}

// classify converts a raw stage error into a StageError, nil on success.
func classify(stage StageName, err error) *StageError {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		if se.Stage == "" {
			se.Stage = stage
		}
		return se
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewCanceledStageError(stage, err)
	}
	if ce, ok := ferrors.AsClassified(err); ok && ce.Severity() == ferrors.SeverityWarning {
		return NewWarnStageError(stage, err)
	}
	return NewFatalStageError(stage, err)
}
