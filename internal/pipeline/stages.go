package pipeline

import (
	"context"
	"fmt"
)

// Stage is a discrete unit of work in a bundle run.
type Stage func(ctx context.Context, bs *BuildState) error

// StageName is a strongly-typed identifier for a bundle stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StagePrepareWorkspace  StageName = "prepare_workspace"
	StageAcquireSource     StageName = "acquire_source"
	StageLoadProject       StageName = "load_project"
	StageSynthesizeRoutes  StageName = "synthesize_routes"
	StageRewriteEntry      StageName = "rewrite_entry"
	StageGenerateShim      StageName = "generate_shim"
	StageRewriteNavigation StageName = "rewrite_navigation"
	StagePatchConfig       StageName = "patch_config"
	StageInstall           StageName = "install_dependencies"
	StageBuildExport       StageName = "build_export"
	StageEncodeAssets      StageName = "encode_assets"
	StageInlineReferences  StageName = "inline_asset_references"
	StageAssembleEntry     StageName = "assemble_entry"
	StagePackageOutput     StageName = "package_output"
)

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Run must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying the stage and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

func NewFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func NewWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func NewCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Pipeline is a fluent builder for ordered stage definitions.
type Pipeline struct{ Defs []StageDef }

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{Defs: make([]StageDef, 0, 14)} }

// Add appends a stage unconditionally.
func (p *Pipeline) Add(name StageName, fn Stage) *Pipeline {
	p.Defs = append(p.Defs, StageDef{Name: name, Fn: fn})
	return p
}

// Build returns a copy of the stage definitions.
func (p *Pipeline) Build() []StageDef {
	out := make([]StageDef, len(p.Defs))
	copy(out, p.Defs)
	return out
}

// DefaultStages returns the full bundle pipeline.
func DefaultStages() []StageDef {
	return NewPipeline().
		Add(StagePrepareWorkspace, stagePrepareWorkspace).
		Add(StageAcquireSource, stageAcquireSource).
		Add(StageLoadProject, stageLoadProject).
		Add(StageSynthesizeRoutes, stageSynthesizeRoutes).
		Add(StageRewriteEntry, stageRewriteEntry).
		Add(StageGenerateShim, stageGenerateShim).
		Add(StageRewriteNavigation, stageRewriteNavigation).
		Add(StagePatchConfig, stagePatchConfig).
		Add(StageInstall, stageInstall).
		Add(StageBuildExport, stageBuildExport).
		Add(StageEncodeAssets, stageEncodeAssets).
		Add(StageInlineReferences, stageInlineReferences).
		Add(StageAssembleEntry, stageAssembleEntry).
		Add(StagePackageOutput, stagePackageOutput).
		Build()
}
