package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// LoaderOption configures a Loader.
type LoaderOption func(*loader)

// WithConfigFile reads an explicit config file instead of searching
// the root's .classmap directory. A missing explicit file is an error.
func WithConfigFile(path string) LoaderOption {
	return func(l *loader) {
		l.configFile = path
	}
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string, opts ...LoaderOption) Loader {
	l := &loader{rootDir: rootDir}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// envKeys lists every key that may be overridden from the environment.
var envKeys = []string{
	"paths.include",
	"paths.ignore",
	"paths.skip_dirs",
	"paths.skip_files",
	"limits.max_files",
	"limits.max_file_bytes",
	"analysis.workers",
	"analysis.detect_cycles",
	"analysis.min_strength",
	"analysis.endpoints",
	"cache.enabled",
	"cache.capacity",
	"storage.enabled",
	"storage.path",
	"watch.debounce_ms",
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CLASSMAP_*)
// 2. Config file (.classmap/config.yml or .classmap/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, ".classmap"))
	}

	// Replace . with _ in env var names (e.g., CLASSMAP_ANALYSIS_WORKERS)
	v.SetEnvPrefix("CLASSMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		var notFound viper.ConfigFileNotFoundError
		if l.configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("paths.include", defaults.Paths.Include)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)
	v.SetDefault("paths.skip_dirs", defaults.Paths.SkipDirs)
	v.SetDefault("paths.skip_files", defaults.Paths.SkipFiles)

	v.SetDefault("limits.max_files", defaults.Limits.MaxFiles)
	v.SetDefault("limits.max_file_bytes", defaults.Limits.MaxFileBytes)

	v.SetDefault("analysis.workers", defaults.Analysis.Workers)
	v.SetDefault("analysis.detect_cycles", defaults.Analysis.DetectCycles)
	v.SetDefault("analysis.min_strength", defaults.Analysis.MinStrength)
	v.SetDefault("analysis.endpoints", defaults.Analysis.Endpoints)

	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.capacity", defaults.Cache.Capacity)

	v.SetDefault("storage.enabled", defaults.Storage.Enabled)
	v.SetDefault("storage.path", defaults.Storage.Path)

	v.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMS)
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
