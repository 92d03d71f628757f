package pipeline

import (
	"path/filepath"

	"git.home.luguber.info/inful/next2gas/internal/config"
	"git.home.luguber.info/inful/next2gas/internal/entrydoc"
	"git.home.luguber.info/inful/next2gas/internal/env"
	"git.home.luguber.info/inful/next2gas/internal/metrics"
	"git.home.luguber.info/inful/next2gas/internal/routes"
	"git.home.luguber.info/inful/next2gas/internal/runner"
	"git.home.luguber.info/inful/next2gas/internal/workspace"
)

// Options are the per-run inputs of a bundle.
type Options struct {
	// Project is a local directory or a git URL.
	Project string
	// Output is the destination directory of the bundle.
	Output        string
	Force         bool
	Name          string
	Ref           string
	Depth         int
	GitToken      string
	KeepWorkspace bool
	// WorkspaceBase overrides the directory holding the workspace.
	WorkspaceBase string
}

// Paths holds every location the stages read or write, resolved once.
type Paths struct {
	Workspace   string
	WorkingCopy string
	SourceDir   string
	PagesDir    string
	ExportDir   string
	AssetsDir   string
	EntryDoc    string
	Staging     string
}

// ResolvePaths derives the run paths from the workspace layout and config.
func ResolvePaths(ws *workspace.Manager, cfg *config.Config) Paths {
	wc := ws.ProjectPath()
	export := filepath.Join(wc, filepath.FromSlash(cfg.Build.ExportDir))
	return Paths{
		Workspace:   ws.GetPath(),
		WorkingCopy: wc,
		SourceDir:   filepath.Join(wc, filepath.FromSlash(cfg.Project.SourceDir)),
		PagesDir:    filepath.Join(wc, filepath.FromSlash(cfg.Project.PagesDir)),
		ExportDir:   export,
		AssetsDir:   filepath.Join(export, filepath.FromSlash(cfg.Build.AssetsDir)),
		EntryDoc:    filepath.Join(export, cfg.Build.EntryDocument),
		Staging:     ws.StagingPath(),
	}
}

// BuildState is the explicit context threaded through the stages.
type BuildState struct {
	Config    *config.Config
	Options   Options
	Paths     Paths
	Report    *BuildReport
	Recorder  metrics.Recorder
	Runner    runner.Runner
	Workspace *workspace.Manager

	AppName   string
	Env       *env.Set
	Public    []env.Variable
	Private   []env.Variable
	Routes    *routes.Table
	Assembled *entrydoc.Result

	started bool
}

// NewBuildState wires a state for one run.
func NewBuildState(cfg *config.Config, opts Options, r runner.Runner, rec metrics.Recorder) *BuildState {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	ws := workspace.NewManager(opts.WorkspaceBase, opts.KeepWorkspace)
	return &BuildState{
		Config:    cfg,
		Options:   opts,
		Paths:     ResolvePaths(ws, cfg),
		Report:    NewBuildReport(opts.Project, opts.Output),
		Recorder:  rec,
		Runner:    r,
		Workspace: ws,
		Env:       env.NewSet(),
	}
}

func (bs *BuildState) limit() int {
	return bs.Config.Build.Concurrency
}
