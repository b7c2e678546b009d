package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/classmap/internal/model"
)

var (
	// ErrInvalidPattern indicates a path pattern that does not compile
	ErrInvalidPattern = errors.New("invalid path pattern")

	// ErrInvalidWorkers indicates a negative worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidLimit indicates a non-positive file limit
	ErrInvalidLimit = errors.New("invalid limit")

	// ErrInvalidStrength indicates an unknown strength tier
	ErrInvalidStrength = errors.New("invalid strength tier")

	// ErrInvalidCacheSettings indicates invalid cache configuration
	ErrInvalidCacheSettings = errors.New("invalid cache settings")

	// ErrEmptyStoragePath indicates storage is enabled without a path
	ErrEmptyStoragePath = errors.New("empty storage path")

	// ErrInvalidDebounce indicates a negative watch debounce
	ErrInvalidDebounce = errors.New("invalid debounce")
)

// Validate checks that the configuration is valid and complete.
// Every problem is reported; the result is nil or an errors.Join of all of them.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validatePaths(&cfg.Paths)...)

	if cfg.Limits.MaxFiles <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_files must be positive, got %d", ErrInvalidLimit, cfg.Limits.MaxFiles))
	}
	if cfg.Limits.MaxFileBytes <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_file_bytes must be positive, got %d", ErrInvalidLimit, cfg.Limits.MaxFileBytes))
	}

	if cfg.Analysis.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers cannot be negative, got %d", ErrInvalidWorkers, cfg.Analysis.Workers))
	}
	if _, err := model.ParseStrength(strings.ToLower(cfg.Analysis.MinStrength)); err != nil {
		errs = append(errs, fmt.Errorf("%w: must be strong, medium or weak, got '%s'", ErrInvalidStrength, cfg.Analysis.MinStrength))
	}

	if cfg.Cache.Enabled && cfg.Cache.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidCacheSettings, cfg.Cache.Capacity))
	}

	if cfg.Storage.Enabled && strings.TrimSpace(cfg.Storage.Path) == "" {
		errs = append(errs, fmt.Errorf("%w: path is required when storage is enabled", ErrEmptyStoragePath))
	}

	if cfg.Watch.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("%w: debounce_ms cannot be negative, got %d", ErrInvalidDebounce, cfg.Watch.DebounceMS))
	}

	return errors.Join(errs...)
}

func validatePaths(cfg *PathsConfig) []error {
	var errs []error
	groups := []struct {
		name     string
		patterns []string
	}{
		{"include", cfg.Include},
		{"ignore", cfg.Ignore},
		{"skip_files", cfg.SkipFiles},
	}
	for _, group := range groups {
		for _, pattern := range group.patterns {
			if _, err := glob.Compile(pattern, '/'); err != nil {
				errs = append(errs, fmt.Errorf("%w: %s pattern '%s': %v", ErrInvalidPattern, group.name, pattern, err))
			}
		}
	}
	return errs
}
