package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/next2gas/internal/config"
	"git.home.luguber.info/inful/next2gas/internal/logfields"
	"git.home.luguber.info/inful/next2gas/internal/metrics"
	"git.home.luguber.info/inful/next2gas/internal/pipeline"
	"git.home.luguber.info/inful/next2gas/internal/source"
)

// BundleCmd implements the 'bundle' command.
type BundleCmd struct {
	Project string `arg:"" help:"Next.js project directory or git URL"`
	Output  string `arg:"" help:"Destination directory of the bundle"`

	Force         bool   `short:"f" help:"Replace the output directory if it exists"`
	Name          string `help:"Application name (overrides project.name and package.json)"`
	StyleMode     string `name:"style-mode" help:"Override entry.style_mode (inline|include)"`
	Concurrency   int    `help:"Override build.concurrency"`
	Ref           string `help:"Branch or tag to check out when the project is a git URL"`
	Depth         int    `help:"Clone depth for git projects (0 = full history)" default:"1"`
	ReportFile    string `name:"report-file" help:"Write a JSON build report to this path"`
	MetricsFile   string `name:"metrics-file" help:"Write Prometheus metrics in textfile format to this path"`
	KeepWorkspace bool   `name:"keep-workspace" help:"Keep the working copy after a successful run"`
	WorkspaceDir  string `name:"workspace-dir" help:"Directory holding the workspace (default: system temp dir)"`
}

func (b *BundleCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	b.applyOverrides(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return b.run(ctx, g, cfg)
}

// applyOverrides folds flag values into cfg; flags win over the file.
func (b *BundleCmd) applyOverrides(cfg *config.Config) {
	if b.StyleMode != "" {
		if m := config.NormalizeStyleMode(b.StyleMode); m != "" {
			cfg.Entry.StyleMode = m
			slog.Info("Style mode overridden via CLI flag", slog.String("mode", string(m)))
		} else {
			slog.Warn("Ignoring invalid --style-mode value", slog.String("value", b.StyleMode))
		}
	}
	if b.Concurrency > 0 {
		cfg.Build.Concurrency = b.Concurrency
	}
	if b.Name != "" {
		cfg.Project.Name = b.Name
	}
}

func (b *BundleCmd) options() pipeline.Options {
	return pipeline.Options{
		Project:       b.Project,
		Output:        b.Output,
		Force:         b.Force,
		Name:          b.Name,
		Ref:           b.Ref,
		Depth:         b.Depth,
		GitToken:      os.Getenv(source.TokenEnv),
		KeepWorkspace: b.KeepWorkspace,
		WorkspaceBase: b.WorkspaceDir,
	}
}

func (b *BundleCmd) run(ctx context.Context, g *Global, cfg *config.Config) error {
	var (
		rec  metrics.Recorder = metrics.NoopRecorder{}
		prec *metrics.PrometheusRecorder
	)
	if b.MetricsFile != "" {
		prec = metrics.NewPrometheusRecorder(prom.NewRegistry())
		rec = prec
	}

	report, err := pipeline.Bundle(ctx, cfg, b.options(), g.runner(), rec)

	if b.ReportFile != "" && report != nil {
		if werr := report.WriteFile(b.ReportFile); werr != nil {
			slog.Warn("Failed to write build report", logfields.Path(b.ReportFile), logfields.Error(werr))
		}
	}
	if prec != nil {
		if werr := prec.WriteTextfile(b.MetricsFile); werr != nil {
			slog.Warn("Failed to write metrics", logfields.Path(b.MetricsFile), logfields.Error(werr))
		}
	}
	if err != nil {
		return err
	}

	fmt.Printf("Bundled %s into %s (%d files)\n", report.AppName, b.Output, report.Counts.FilesWritten)
	for _, w := range report.Warnings {
		fmt.Printf("warning: %v\n", w)
	}
	return nil
}
