// Package config loads classmap settings from .classmap/config.yml in the
// analyzed root, with CLASSMAP_* environment variable overrides.
//
// Priority (highest to lowest):
//  1. Environment variables (CLASSMAP_ANALYSIS_WORKERS, ...)
//  2. Config file (.classmap/config.yml or .classmap/config.yaml, or --config)
//  3. Built-in defaults
package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/mvp-joe/classmap/internal/model"
	"github.com/mvp-joe/classmap/internal/scanner"
)

// Config represents the complete classmap configuration.
type Config struct {
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	Limits   LimitsConfig   `yaml:"limits" mapstructure:"limits"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Watch    WatchConfig    `yaml:"watch" mapstructure:"watch"`
}

// PathsConfig defines which files are analyzed.
type PathsConfig struct {
	Include   []string `yaml:"include" mapstructure:"include"`       // glob patterns; empty selects every supported extension
	Ignore    []string `yaml:"ignore" mapstructure:"ignore"`         // glob patterns over root-relative paths
	SkipDirs  []string `yaml:"skip_dirs" mapstructure:"skip_dirs"`   // directory names never descended into
	SkipFiles []string `yaml:"skip_files" mapstructure:"skip_files"` // base-name patterns never analyzed
}

// LimitsConfig bounds the size of a run.
type LimitsConfig struct {
	MaxFiles     int   `yaml:"max_files" mapstructure:"max_files"`
	MaxFileBytes int64 `yaml:"max_file_bytes" mapstructure:"max_file_bytes"`
}

// AnalysisConfig selects analysis passes.
type AnalysisConfig struct {
	Workers      int    `yaml:"workers" mapstructure:"workers"` // 0 means one per CPU
	DetectCycles bool   `yaml:"detect_cycles" mapstructure:"detect_cycles"`
	MinStrength  string `yaml:"min_strength" mapstructure:"min_strength"` // strong, medium or weak
	Endpoints    bool   `yaml:"endpoints" mapstructure:"endpoints"`
}

// CacheConfig configures the partition cache used between watch runs.
type CacheConfig struct {
	Enabled  bool `yaml:"enabled" mapstructure:"enabled"`
	Capacity int  `yaml:"capacity" mapstructure:"capacity"`
}

// StorageConfig configures run history persistence.
type StorageConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"` // relative paths resolve against the analyzed root
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Include:   []string{},
			Ignore:    []string{},
			SkipDirs:  append([]string(nil), scanner.DefaultSkipDirs...),
			SkipFiles: append([]string(nil), scanner.DefaultSkipFiles...),
		},
		Limits: LimitsConfig{
			MaxFiles:     5000,
			MaxFileBytes: 500000,
		},
		Analysis: AnalysisConfig{
			Workers:      0,
			DetectCycles: true,
			MinStrength:  "weak",
			Endpoints:    true,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Capacity: 10000,
		},
		Storage: StorageConfig{
			Enabled: false,
			Path:    filepath.Join(".classmap", "classmap.db"),
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
	}
}

// ScanOptions converts the configuration into scanner options.
func (c *Config) ScanOptions() scanner.Options {
	return scanner.Options{
		Include:      c.Paths.Include,
		Ignore:       c.Paths.Ignore,
		SkipDirs:     c.Paths.SkipDirs,
		SkipFiles:    c.Paths.SkipFiles,
		MaxFiles:     c.Limits.MaxFiles,
		MaxFileBytes: c.Limits.MaxFileBytes,
		Workers:      c.Analysis.Workers,
		DetectCycles: c.Analysis.DetectCycles,
		Endpoints:    c.Analysis.Endpoints,
	}
}

// MinStrength returns the configured output strength threshold.
// Invalid values are rejected by Validate; they read as weak here.
func (c *Config) MinStrength() model.Strength {
	s, _ := model.ParseStrength(strings.ToLower(c.Analysis.MinStrength))
	return s
}

// StoragePath returns the database path, resolving a relative path against root.
func (c *Config) StoragePath(root string) string {
	if filepath.IsAbs(c.Storage.Path) {
		return c.Storage.Path
	}
	return filepath.Join(root, c.Storage.Path)
}

// Debounce returns the watch debounce interval.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}
