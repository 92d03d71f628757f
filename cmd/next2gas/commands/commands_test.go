package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/next2gas/internal/config"
	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/runner"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"}, kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, ctx
}

func TestParseBundleFlags(t *testing.T) {
	cli, ctx := parse(t, "-c", "x.yaml", "bundle", "./app", "./dist",
		"--force", "--name", "shop", "--style-mode", "include", "--concurrency", "3",
		"--ref", "v1", "--report-file", "r.json", "--keep-workspace")

	assert.Equal(t, "bundle <project> <output>", ctx.Command())
	assert.Equal(t, "x.yaml", cli.Config)
	b := cli.Bundle
	assert.Equal(t, "./app", b.Project)
	assert.Equal(t, "./dist", b.Output)
	assert.True(t, b.Force)
	assert.True(t, b.KeepWorkspace)
	assert.Equal(t, 1, b.Depth)
	assert.Equal(t, "v1", b.Ref)
	assert.Equal(t, "r.json", b.ReportFile)
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.Default()

	b := &BundleCmd{StyleMode: "INCLUDE", Concurrency: 2, Name: "shop"}
	b.applyOverrides(cfg)
	assert.Equal(t, config.StyleModeInclude, cfg.Entry.StyleMode)
	assert.Equal(t, 2, cfg.Build.Concurrency)
	assert.Equal(t, "shop", cfg.Project.Name)

	before := cfg.Entry.StyleMode
	(&BundleCmd{StyleMode: "sideways"}).applyOverrides(cfg)
	assert.Equal(t, before, cfg.Entry.StyleMode, "invalid mode must be ignored")
}

func TestParseLogLevel(t *testing.T) {
	t.Setenv(LogLevelEnv, "")
	assert.Equal(t, slog.LevelInfo, parseLogLevel(false))
	assert.Equal(t, slog.LevelDebug, parseLogLevel(true))

	t.Setenv(LogLevelEnv, "DEBUG")
	assert.Equal(t, slog.LevelDebug, parseLogLevel(false))
	t.Setenv(LogLevelEnv, "warn")
	assert.Equal(t, slog.LevelWarn, parseLogLevel(false))
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "next2gas.yaml")

	require.NoError(t, RunInit(path, false))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "my-app", cfg.Project.Name)

	err = RunInit(path, false)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	assert.Equal(t, 2, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))

	require.NoError(t, RunInit(path, true))
}

func TestBundle_MissingProjectStillWritesReport(t *testing.T) {
	dir := t.TempDir()
	rec := &runner.RecordingRunner{}
	b := &BundleCmd{
		Project:      filepath.Join(dir, "absent"),
		Output:       filepath.Join(dir, "out"),
		ReportFile:   filepath.Join(dir, "report.json"),
		MetricsFile:  filepath.Join(dir, "metrics.prom"),
		WorkspaceDir: dir,
	}

	err := b.run(context.Background(), &Global{Runner: rec}, config.Default())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryInput))
	assert.Equal(t, 3, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.Empty(t, rec.Calls())

	data, err := os.ReadFile(b.ReportFile)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "failed", got["outcome"])
	assert.NotEmpty(t, got["run_id"])

	metricsText, err := os.ReadFile(b.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metricsText), "next2gas_bundle_outcomes_total")
}

func TestGlobalRunnerDefaultsToExec(t *testing.T) {
	var g *Global
	_, ok := g.runner().(*runner.ExecRunner)
	assert.True(t, ok)

	rec := &runner.RecordingRunner{}
	assert.Same(t, rec, (&Global{Runner: rec}).runner())
}
