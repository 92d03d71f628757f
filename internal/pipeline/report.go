package pipeline

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/fsutil"
	"git.home.luguber.info/inful/next2gas/internal/metrics"
	"git.home.luguber.info/inful/next2gas/internal/version"
)

// BuildOutcome is the typed enumeration of final run result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// Counts aggregates what the stages produced.
type Counts struct {
	Routes               int   `json:"routes"`
	NavigationFiles      int   `json:"navigation_files"`
	QueryRewrites        int   `json:"query_rewrites"`
	ConfigDefaults       int   `json:"config_defaults"`
	AssetsEncoded        int   `json:"assets_encoded"`
	AssetBytes           int64 `json:"asset_bytes"`
	DocumentsRewritten   int   `json:"documents_rewritten"`
	AssetReferences      int   `json:"asset_references"`
	ScriptsInlined       int   `json:"scripts_inlined"`
	StylesheetsInlined   int   `json:"stylesheets_inlined"`
	DuplicateStylesheets int   `json:"duplicate_stylesheets"`
	PreloadsPruned       int   `json:"preloads_pruned"`
	FilesWritten         int   `json:"files_written"`
}

// BuildReport captures what happened during one bundle run.
type BuildReport struct {
	SchemaVersion  int                         `json:"schema_version"`
	RunID          string                      `json:"run_id"`
	Version        string                      `json:"version"`
	Project        string                      `json:"project"`
	Output         string                      `json:"output"`
	AppName        string                      `json:"app_name,omitempty"`
	Start          time.Time                   `json:"start"`
	End            time.Time                   `json:"end"`
	StageDurations map[StageName]time.Duration `json:"-"`
	StageResults   map[StageName]StageResult   `json:"stage_results"`
	Counts         Counts                      `json:"counts"`
	Errors         []error                     `json:"-"`
	Warnings       []error                     `json:"-"`
	Outcome        BuildOutcome                `json:"outcome"`
}

// NewBuildReport constructs a report with a fresh run identifier.
func NewBuildReport(project, output string) *BuildReport {
	return &BuildReport{
		SchemaVersion:  1,
		RunID:          uuid.NewString(),
		Version:        version.Version,
		Project:        project,
		Output:         output,
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
		StageResults:   make(map[StageName]StageResult),
	}
}

// RecordStageResult stores the stage outcome and emits metrics.
func (r *BuildReport) RecordStageResult(stage StageName, res StageResult, recorder metrics.Recorder) {
	r.StageResults[stage] = res
	if recorder == nil {
		return
	}
	recorder.IncStageResult(string(stage), metrics.ResultLabel(res))
}

// DeriveOutcome sets Outcome from the recorded errors and stage results.
func (r *BuildReport) DeriveOutcome() {
	for _, res := range r.StageResults {
		if res == StageResultCanceled {
			r.Outcome = OutcomeCanceled
			return
		}
	}
	switch {
	case len(r.Errors) > 0:
		r.Outcome = OutcomeFailed
	case len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Finish sets the end time of the report.
func (r *BuildReport) Finish() { r.End = time.Now() }

// Duration is the wall time of the run so far.
func (r *BuildReport) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

// MarshalJSON renders durations in milliseconds and errors as messages.
func (r *BuildReport) MarshalJSON() ([]byte, error) {
	type plain BuildReport
	out := struct {
		plain
		DurationMS      int64               `json:"duration_ms"`
		StageDurationMS map[StageName]int64 `json:"stage_duration_ms"`
		Errors          []string            `json:"errors,omitempty"`
		Warnings        []string            `json:"warnings,omitempty"`
	}{
		plain:           plain(*r),
		DurationMS:      r.Duration().Milliseconds(),
		StageDurationMS: make(map[StageName]int64, len(r.StageDurations)),
	}
	for k, d := range r.StageDurations {
		out.StageDurationMS[k] = d.Milliseconds()
	}
	for _, err := range r.Errors {
		out.Errors = append(out.Errors, err.Error())
	}
	for _, err := range r.Warnings {
		out.Warnings = append(out.Warnings, err.Error())
	}
	return json.Marshal(out)
}

// WriteFile stores the report as indented JSON at path.
func (r *BuildReport) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode report").Build()
	}
	if err := fsutil.WriteFile(path, append(data, '\n')); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write report").
			WithContext("path", path).Build()
	}
	return nil
}
