package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
)

// DefaultFile is looked up in the working directory when no --config is given.
const DefaultFile = "next2gas.yaml"

// Config represents the bundler configuration.
type Config struct {
	Project     ProjectConfig     `yaml:"project"`
	Source      SourceConfig      `yaml:"source"`
	Build       BuildConfig       `yaml:"build"`
	Entry       EntryConfig       `yaml:"entry"`
	Environment EnvironmentConfig `yaml:"environment"`
	Platform    PlatformConfig    `yaml:"platform"`
}

// ProjectConfig describes the layout of the source application.
type ProjectConfig struct {
	Name               string   `yaml:"name,omitempty"`
	SourceDir          string   `yaml:"source_dir"`
	PagesDir           string   `yaml:"pages_dir"`
	PageExtension      string   `yaml:"page_extension"`
	ReservedPatterns   []string `yaml:"reserved_patterns"`
	NavigationPatterns []string `yaml:"navigation_patterns"`
}

// SourceConfig controls cloning when the project is a git URL.
type SourceConfig struct {
	CloneRetries      int              `yaml:"clone_retries"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitialDelay time.Duration    `yaml:"retry_initial_delay"`
	RetryMaxDelay     time.Duration    `yaml:"retry_max_delay"`
}

// BuildConfig controls the external install/build invocation and export layout.
type BuildConfig struct {
	Install       []string `yaml:"install"`
	Commands      []string `yaml:"commands"`
	ExportDir     string   `yaml:"export_dir"`
	AssetsDir     string   `yaml:"assets_dir"`
	EntryDocument string   `yaml:"entry_document"`
	Concurrency   int      `yaml:"concurrency"`
}

// EntryConfig controls how the entry document is reassembled.
type EntryConfig struct {
	StyleMode            StyleMode     `yaml:"style_mode"`
	RuntimeDataPlacement DataPlacement `yaml:"runtime_data_placement"`
}

// EnvironmentConfig selects the variables file and the keys kept server-side.
type EnvironmentConfig struct {
	File        string   `yaml:"file"`
	PrivateKeys []string `yaml:"private_keys,omitempty"`
}

// PlatformConfig holds the deployment manifest fields.
type PlatformConfig struct {
	TimeZone         string `yaml:"time_zone"`
	ExecuteAs        string `yaml:"execute_as"`
	Access           string `yaml:"access"`
	RuntimeVersion   string `yaml:"runtime_version"`
	ExceptionLogging string `yaml:"exception_logging"`
	ScriptID         string `yaml:"script_id"`
}

// Load reads configuration from path. An empty path falls back to DefaultFile,
// and a missing default file yields the built-in defaults.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Expand environment variables in the YAML content
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").
				WithContext("file", path).Build()
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// defaults only
	case errors.Is(err, fs.ErrNotExist):
		return nil, ferrors.ConfigError(fmt.Sprintf("configuration file not found: %s", path)).Build()
	default:
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithContext("file", path).Build()
	}

	if err := ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	var cfg Config
	_ = ApplyDefaults(&cfg)
	return &cfg
}

// Init creates a new configuration file with example content.
func Init(path string, force bool) error {
	if path == "" {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", path)).Build()
	}

	example := Default()
	example.Project.Name = "my-app"
	example.Environment.PrivateKeys = []string{"API_SECRET"}
	example.Platform.ScriptID = "<YOUR_ID_HERE>"

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			WithContext("file", path).Build()
	}

	return nil
}
