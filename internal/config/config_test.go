package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "next2gas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "src/pages", cfg.Project.PagesDir)
	assert.Equal(t, ".tsx", cfg.Project.PageExtension)
	assert.Equal(t, []string{"npm install", "npm install react-router-dom@^6.5.0"}, cfg.Build.Install)
	assert.Equal(t, "out", cfg.Build.ExportDir)
	assert.Equal(t, StyleModeInline, cfg.Entry.StyleMode)
	assert.Equal(t, PlacementHead, cfg.Entry.RuntimeDataPlacement)
	assert.Equal(t, "USER_ACCESSING", cfg.Platform.ExecuteAs)
	assert.Equal(t, "DOMAIN", cfg.Platform.Access)
	assert.Positive(t, cfg.Build.Concurrency)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoad_FileWithEnvExpansion(t *testing.T) {
	t.Setenv("NEXT2GAS_TEST_SCRIPT", "abc123")
	path := writeConfig(t, `
project:
  name: shop
entry:
  style_mode: INCLUDE
  runtime_data_placement: body
platform:
  script_id: ${NEXT2GAS_TEST_SCRIPT}
build:
  commands: ["bun run build"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "shop", cfg.Project.Name)
	assert.Equal(t, StyleModeInclude, cfg.Entry.StyleMode)
	assert.Equal(t, PlacementBody, cfg.Entry.RuntimeDataPlacement)
	assert.Equal(t, "abc123", cfg.Platform.ScriptID)
	assert.Equal(t, []string{"bun run build"}, cfg.Build.Commands)
	// Untouched sections still receive defaults
	assert.Equal(t, "America/Sao_Paulo", cfg.Platform.TimeZone)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad style mode", "entry:\n  style_mode: embed\n"},
		{"bad placement", "entry:\n  runtime_data_placement: footer\n"},
		{"extension without dot", "project:\n  page_extension: tsx\n"},
		{"pages outside source", "project:\n  source_dir: src\n  pages_dir: pages\n"},
		{"bad glob", "project:\n  reserved_patterns: ['[']\n"},
		{"blank command", "build:\n  commands: ['  ']\n"},
		{"negative retries", "source:\n  clone_retries: -1\n"},
		{"bad backoff", "source:\n  retry_backoff: random\n"},
		{"malformed yaml", "project: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Equal(t, ferrors.CategoryConfig, ferrors.GetCategory(err))
		})
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "next2gas.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "my-app", cfg.Project.Name)
	assert.Equal(t, []string{"API_SECRET"}, cfg.Environment.PrivateKeys)

	err = Init(path, false)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	require.NoError(t, Init(path, true))
}

func TestNormalizeModes(t *testing.T) {
	assert.Equal(t, StyleModeInclude, NormalizeStyleMode(" Include "))
	assert.Equal(t, StyleMode(""), NormalizeStyleMode("other"))
	assert.Equal(t, PlacementBody, NormalizeDataPlacement("BODY"))
	assert.Equal(t, DataPlacement(""), NormalizeDataPlacement(""))
}

func TestLoad_SourceRetry(t *testing.T) {
	cfg, err := Load(writeConfig(t, "source:\n  clone_retries: 4\n  retry_backoff: Exponential\n  retry_initial_delay: 250ms\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Source.CloneRetries)
	assert.Equal(t, RetryBackoffExponential, cfg.Source.RetryBackoff)
	assert.Equal(t, 250*time.Millisecond, cfg.Source.RetryInitialDelay)
	assert.Equal(t, 30*time.Second, cfg.Source.RetryMaxDelay)

	def := Default()
	assert.Equal(t, 2, def.Source.CloneRetries)
	assert.Equal(t, RetryBackoffLinear, def.Source.RetryBackoff)
}
