// Package config loads the staticsearch configuration from TOML or YAML
// files, merging file values over built-in defaults and validating them
// eagerly before any build or serve work starts.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"staticsearch/internal/index"
)

// AppConfig captures configuration for the CLI, the serve mode, and index
// building defaults.
type AppConfig struct {
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Paths   PathsConfig   `toml:"paths" yaml:"paths"`
	Search  SearchConfig  `toml:"search" yaml:"search"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Metrics MetricsConfig `toml:"metrics" yaml:"metrics"`
}

// ServerConfig controls network settings for serve mode.
type ServerConfig struct {
	Listen string `toml:"listen" yaml:"listen"`
}

// PathsConfig configures the on-disk layout.
type PathsConfig struct {
	IndexFile     string `toml:"index_file" yaml:"index_file"`
	StopwordsFile string `toml:"stopwords_file" yaml:"stopwords_file"`
}

// SearchConfig provides indexing and query defaults.
type SearchConfig struct {
	Schema        index.Schema `toml:"schema" yaml:"schema"`
	NumResults    int          `toml:"num_results" yaml:"num_results"`
	StripMarkdown *bool        `toml:"strip_markdown" yaml:"strip_markdown"`
}

// LoggingConfig toggles observability around requests.
type LoggingConfig struct {
	RequestLogs *bool `toml:"request_logs" yaml:"request_logs"`
}

// MetricsConfig enables counters/telemetry endpoints.
type MetricsConfig struct {
	Enabled *bool `toml:"enabled" yaml:"enabled"`
}

// DefaultConfig returns the baseline configuration used when no file is
// supplied.
func DefaultConfig() AppConfig {
	return AppConfig{
		Server: ServerConfig{Listen: ":8080"},
		Paths:  PathsConfig{IndexFile: "storage.bin"},
		Search: SearchConfig{
			Schema:        index.DefaultSchema(),
			NumResults:    5,
			StripMarkdown: boolPtr(true),
		},
		Logging: LoggingConfig{RequestLogs: boolPtr(true)},
		Metrics: MetricsConfig{Enabled: boolPtr(true)},
	}
}

// Load reads the provided config path, merging it onto the defaults and
// validating the result.
func Load(path string) (AppConfig, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var fileCfg AppConfig
	switch ext {
	case ".toml":
		if err := toml.Unmarshal(content, &fileCfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse toml: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &fileCfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return AppConfig{}, errors.New("config file must be .toml, .yaml, or .yml")
	}

	merged := mergeConfig(cfg, fileCfg)
	if err := merged.Validate(); err != nil {
		return AppConfig{}, err
	}
	return merged, nil
}

// Validate checks the configuration eagerly so misconfiguration never
// surfaces halfway through a build.
func (cfg AppConfig) Validate() error {
	if err := cfg.Search.Schema.Validate(); err != nil {
		return err
	}
	if cfg.Search.NumResults < 0 {
		return errors.New("search.num_results must not be negative")
	}
	if strings.TrimSpace(cfg.Paths.IndexFile) == "" {
		return errors.New("paths.index_file is required")
	}
	return nil
}

// LoadStopwords reads the configured stopword file, a flat
// whitespace-separated word list, or falls back to the built-in list when
// no file is configured.
func (cfg AppConfig) LoadStopwords() (index.Stopwords, error) {
	if cfg.Paths.StopwordsFile == "" {
		return index.DefaultStopwords(), nil
	}
	content, err := os.ReadFile(cfg.Paths.StopwordsFile)
	if err != nil {
		return nil, fmt.Errorf("read stopwords: %w", err)
	}
	return index.ParseStopwords(string(content)), nil
}

func mergeConfig(base, override AppConfig) AppConfig {
	if override.Server.Listen != "" {
		base.Server.Listen = override.Server.Listen
	}
	if override.Paths.IndexFile != "" {
		base.Paths.IndexFile = override.Paths.IndexFile
	}
	if override.Paths.StopwordsFile != "" {
		base.Paths.StopwordsFile = override.Paths.StopwordsFile
	}

	if len(override.Search.Schema.IndexedFields) > 0 {
		base.Search.Schema.IndexedFields = override.Search.Schema.IndexedFields
	}
	if len(override.Search.Schema.MetadataFields) > 0 {
		base.Search.Schema.MetadataFields = override.Search.Schema.MetadataFields
	}
	if override.Search.Schema.URLField != "" {
		base.Search.Schema.URLField = override.Search.Schema.URLField
	}
	if override.Search.NumResults != 0 {
		base.Search.NumResults = override.Search.NumResults
	}
	if override.Search.StripMarkdown != nil {
		base.Search.StripMarkdown = override.Search.StripMarkdown
	}

	if override.Logging.RequestLogs != nil {
		base.Logging.RequestLogs = override.Logging.RequestLogs
	}

	if override.Metrics.Enabled != nil {
		base.Metrics.Enabled = override.Metrics.Enabled
	}

	return base
}

func boolPtr(v bool) *bool {
	return &v
}
