package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mvp-joe/classmap/internal/config"
	"github.com/mvp-joe/classmap/internal/model"
	"github.com/mvp-joe/classmap/internal/scanner"
	"github.com/mvp-joe/classmap/internal/storage"
)

// resolveRoot returns the absolute directory named by args, defaulting to
// the working directory.
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to access %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return abs, nil
}

// loadConfig loads configuration for root, honoring --config.
func loadConfig(root string) (*config.Config, error) {
	var opts []config.LoaderOption
	if cfgFile != "" {
		opts = append(opts, config.WithConfigFile(cfgFile))
	}
	cfg, err := config.NewLoader(root, opts...).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// signalContext returns a context cancelled on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// progressFor returns a progress reporter writing to w, or a silent one with --quiet.
func progressFor(w io.Writer) scanner.ProgressReporter {
	if quiet {
		return scanner.NoOpProgressReporter{}
	}
	return NewCLIProgressReporter(w)
}

// runScan performs one analysis of root.
func runScan(ctx context.Context, root string, opts scanner.Options, progress scanner.ProgressReporter) (*scanner.Result, error) {
	s := scanner.New(opts, scanner.WithLogger(slog.Default()), scanner.WithProgress(progress))
	return s.Scan(ctx, root)
}

// saveRun stores schema when storage is enabled. It returns nil when disabled.
func saveRun(cfg *config.Config, root string, schema *model.Schema) (*storage.Run, error) {
	if !cfg.Storage.Enabled {
		return nil, nil
	}
	store, err := storage.Open(cfg.StoragePath(root))
	if err != nil {
		return nil, err
	}
	defer store.Close()

	run, err := store.SaveRun(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}
	slog.Debug("stored run", "id", run.ID, "path", cfg.StoragePath(root))
	return run, nil
}

// openStore opens the run database for root. It returns a nil Store when no
// database has been written yet.
func openStore(cfg *config.Config, root string) (*storage.Store, error) {
	path := cfg.StoragePath(root)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return storage.Open(path)
}

// strengthThreshold resolves --min-strength, falling back to the configured tier.
func strengthThreshold(flag string, cfg *config.Config) (model.Strength, error) {
	if flag == "" {
		return cfg.MinStrength(), nil
	}
	return model.ParseStrength(flag)
}
