package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/zerv/internal/logger"
)

// Config holds project defaults for the zerv commands.
type Config struct {
	// InputFormat is how tags and stdin versions are parsed: auto, semver,
	// pep440, or zerv.
	InputFormat string `yaml:"input_format,omitempty"`

	// OutputFormat is semver, pep440, or zerv.
	OutputFormat string `yaml:"output_format,omitempty"`

	// Schema is a preset name or inline schema text.
	Schema string `yaml:"schema,omitempty"`

	// Template is an output template; it replaces OutputFormat.
	Template string `yaml:"template,omitempty"`

	LogLevel string `yaml:"log_level,omitempty"`

	// HistoryDB is the SQLite file used by --record and zerv history.
	HistoryDB string `yaml:"history_db,omitempty"`

	CommitHashPrefix string `yaml:"commit_hash_prefix,omitempty"`
}

const (
	// DefaultFilename is looked up in the working directory.
	DefaultFilename = ".zerv.yaml"

	DefaultInputFormat  = "auto"
	DefaultOutputFormat = "semver"
	DefaultSchema       = "standard"
	DefaultLogLevel     = "warn"

	filePermissions = 0o644
)

var (
	errConfigIsNotSet = errors.New("configuration is not set")
	// ErrTemplateAndFormat is returned when both a template and an
	// explicit output format are configured.
	ErrTemplateAndFormat = errors.New("template and output_format are mutually exclusive")
)

var (
	inputFormats  = []string{"auto", "semver", "pep440", "zerv"}
	outputFormats = []string{"semver", "pep440", "zerv"}
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		InputFormat:  DefaultInputFormat,
		OutputFormat: DefaultOutputFormat,
		Schema:       DefaultSchema,
		LogLevel:     DefaultLogLevel,
	}
}

// Load reads and validates the file at path. An empty path reads
// DefaultFilename and returns Default when that file does not exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save validates cfg and writes it to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}
	if path == "" {
		path = DefaultFilename
	}
	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Clean(path), data, filePermissions); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks enumerated values and fills defaults for empty ones.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Template != "" && cfg.OutputFormat != "" {
		return ErrTemplateAndFormat
	}

	if cfg.InputFormat == "" {
		cfg.InputFormat = DefaultInputFormat
	}
	if !oneOf(cfg.InputFormat, inputFormats) {
		return fmt.Errorf("invalid input_format %q: must be one of %s", cfg.InputFormat, strings.Join(inputFormats, ", "))
	}

	if cfg.OutputFormat == "" && cfg.Template == "" {
		cfg.OutputFormat = DefaultOutputFormat
	}
	if cfg.OutputFormat != "" && !oneOf(cfg.OutputFormat, outputFormats) {
		return fmt.Errorf("invalid output_format %q: must be one of %s", cfg.OutputFormat, strings.Join(outputFormats, ", "))
	}

	if cfg.Schema == "" {
		cfg.Schema = DefaultSchema
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
}
