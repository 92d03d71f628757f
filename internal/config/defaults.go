package config

import (
	"fmt"
	"runtime"
	"time"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// ProjectDefaultApplier handles Next.js layout defaults.
type ProjectDefaultApplier struct{}

func (ProjectDefaultApplier) Domain() string { return "project" }

func (ProjectDefaultApplier) ApplyDefaults(cfg *Config) error {
	p := &cfg.Project
	if p.SourceDir == "" {
		p.SourceDir = "src"
	}
	if p.PagesDir == "" {
		p.PagesDir = "src/pages"
	}
	if p.PageExtension == "" {
		p.PageExtension = ".tsx"
	}
	if len(p.ReservedPatterns) == 0 {
		p.ReservedPatterns = []string{"_*", "api/**", "routes.*", "useRouter.*"}
	}
	if len(p.NavigationPatterns) == 0 {
		p.NavigationPatterns = []string{"**/*.{ts,tsx,js,jsx}"}
	}
	return nil
}

// SourceDefaultApplier handles clone retry defaults.
type SourceDefaultApplier struct{}

func (SourceDefaultApplier) Domain() string { return "source" }

func (SourceDefaultApplier) ApplyDefaults(cfg *Config) error {
	s := &cfg.Source
	if s.CloneRetries == 0 {
		s.CloneRetries = 2
	}
	if s.RetryBackoff == "" {
		s.RetryBackoff = RetryBackoffLinear
	} else if m := NormalizeRetryBackoff(string(s.RetryBackoff)); m != "" {
		s.RetryBackoff = m
	}
	if s.RetryInitialDelay <= 0 {
		s.RetryInitialDelay = time.Second
	}
	if s.RetryMaxDelay <= 0 {
		s.RetryMaxDelay = 30 * time.Second
	}
	return nil
}

// BuildDefaultApplier handles install/build command defaults.
type BuildDefaultApplier struct{}

func (BuildDefaultApplier) Domain() string { return "build" }

func (BuildDefaultApplier) ApplyDefaults(cfg *Config) error {
	b := &cfg.Build
	if len(b.Install) == 0 {
		b.Install = []string{"npm install", "npm install react-router-dom@^6.5.0"}
	}
	if len(b.Commands) == 0 {
		b.Commands = []string{"./node_modules/.bin/next build", "./node_modules/.bin/next export"}
	}
	if b.ExportDir == "" {
		b.ExportDir = "out"
	}
	if b.AssetsDir == "" {
		b.AssetsDir = "assets"
	}
	if b.EntryDocument == "" {
		b.EntryDocument = "index.html"
	}
	if b.Concurrency <= 0 {
		b.Concurrency = runtime.NumCPU()
	}
	return nil
}

// EntryDefaultApplier handles entry-document assembly defaults.
type EntryDefaultApplier struct{}

func (EntryDefaultApplier) Domain() string { return "entry" }

func (EntryDefaultApplier) ApplyDefaults(cfg *Config) error {
	// Unknown values are left for validation to reject.
	if cfg.Entry.StyleMode == "" {
		cfg.Entry.StyleMode = StyleModeInline
	} else if m := NormalizeStyleMode(string(cfg.Entry.StyleMode)); m != "" {
		cfg.Entry.StyleMode = m
	}
	if cfg.Entry.RuntimeDataPlacement == "" {
		cfg.Entry.RuntimeDataPlacement = PlacementHead
	} else if p := NormalizeDataPlacement(string(cfg.Entry.RuntimeDataPlacement)); p != "" {
		cfg.Entry.RuntimeDataPlacement = p
	}
	if cfg.Environment.File == "" {
		cfg.Environment.File = ".env"
	}
	return nil
}

// PlatformDefaultApplier handles manifest defaults.
type PlatformDefaultApplier struct{}

func (PlatformDefaultApplier) Domain() string { return "platform" }

func (PlatformDefaultApplier) ApplyDefaults(cfg *Config) error {
	p := &cfg.Platform
	if p.TimeZone == "" {
		p.TimeZone = "America/Sao_Paulo"
	}
	if p.ExecuteAs == "" {
		p.ExecuteAs = "USER_ACCESSING"
	}
	if p.Access == "" {
		p.Access = "DOMAIN"
	}
	if p.RuntimeVersion == "" {
		p.RuntimeVersion = "V8"
	}
	if p.ExceptionLogging == "" {
		p.ExceptionLogging = "STACKDRIVER"
	}
	if p.ScriptID == "" {
		p.ScriptID = "<YOUR_ID_HERE>"
	}
	return nil
}

var appliers = []DefaultApplier{
	ProjectDefaultApplier{},
	SourceDefaultApplier{},
	BuildDefaultApplier{},
	EntryDefaultApplier{},
	PlatformDefaultApplier{},
}

// ApplyDefaults runs every domain applier in order.
func ApplyDefaults(cfg *Config) error {
	for _, a := range appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("apply %s defaults: %w", a.Domain(), err)
		}
	}
	return nil
}
