package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
)

// Validate checks a defaulted configuration.
func Validate(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	for _, check := range []func() error{v.validateProject, v.validateSource, v.validateBuild, v.validateEntry} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validateProject() error {
	p := cv.config.Project
	if !strings.HasPrefix(p.PageExtension, ".") {
		return invalid("project.page_extension", p.PageExtension, "must start with a dot")
	}
	for _, dir := range []struct{ key, val string }{{"project.source_dir", p.SourceDir}, {"project.pages_dir", p.PagesDir}} {
		if filepath.IsAbs(dir.val) || strings.HasPrefix(filepath.Clean(dir.val), "..") {
			return invalid(dir.key, dir.val, "must be relative to the project root")
		}
	}
	rel, err := filepath.Rel(p.SourceDir, p.PagesDir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return invalid("project.pages_dir", p.PagesDir, "must be inside project.source_dir")
	}
	for _, list := range []struct {
		key      string
		patterns []string
	}{{"project.reserved_patterns", p.ReservedPatterns}, {"project.navigation_patterns", p.NavigationPatterns}} {
		for _, pat := range list.patterns {
			if !doublestar.ValidatePattern(pat) {
				return invalid(list.key, pat, "invalid glob pattern")
			}
		}
	}
	return nil
}

func (cv *configurationValidator) validateSource() error {
	s := cv.config.Source
	if s.CloneRetries < 0 {
		return invalid("source.clone_retries", fmt.Sprint(s.CloneRetries), "cannot be negative")
	}
	if NormalizeRetryBackoff(string(s.RetryBackoff)) == "" {
		return invalid("source.retry_backoff", string(s.RetryBackoff), "expected fixed, linear or exponential")
	}
	return nil
}

func (cv *configurationValidator) validateBuild() error {
	b := cv.config.Build
	for _, cmd := range append(append([]string{}, b.Install...), b.Commands...) {
		if strings.TrimSpace(cmd) == "" {
			return invalid("build.commands", cmd, "empty command")
		}
	}
	if filepath.IsAbs(b.ExportDir) {
		return invalid("build.export_dir", b.ExportDir, "must be relative to the project root")
	}
	if strings.ContainsAny(b.EntryDocument, `/\`) {
		return invalid("build.entry_document", b.EntryDocument, "must be a file name inside the export directory")
	}
	return nil
}

func (cv *configurationValidator) validateEntry() error {
	e := cv.config.Entry
	if NormalizeStyleMode(string(e.StyleMode)) == "" {
		return invalid("entry.style_mode", string(e.StyleMode), "expected inline or include")
	}
	if NormalizeDataPlacement(string(e.RuntimeDataPlacement)) == "" {
		return invalid("entry.runtime_data_placement", string(e.RuntimeDataPlacement), "expected head or body")
	}
	return nil
}

func invalid(key, value, reason string) error {
	return ferrors.ConfigError(fmt.Sprintf("invalid %s: %s", key, reason)).
		WithContext("key", key).
		WithContext("value", value).
		Build()
}
