package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/classmap/internal/cache"
	"github.com/mvp-joe/classmap/internal/config"
	"github.com/mvp-joe/classmap/internal/scanner"
	"github.com/mvp-joe/classmap/internal/watcher"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Re-analyze a source tree whenever its files change",
	Long: `Watch analyzes path once, then re-analyzes after every batch of source
changes (debounced by watch.debounce_ms). Language groups whose files did not
change are served from the in-memory cache. A summary line is printed after
each run; with storage enabled every run is also recorded in the history.

Press Ctrl+C to stop.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	opts := []scanner.Option{scanner.WithLogger(slog.Default())}
	var partitions *cache.Cache[*scanner.Partition]
	if cfg.Cache.Enabled {
		partitions, err = cache.New[*scanner.Partition](cfg.Cache.Capacity)
		if err != nil {
			return err
		}
		defer partitions.Close()
		opts = append(opts, scanner.WithCache(partitions))
	}
	s := scanner.New(cfg.ScanOptions(), opts...)

	w, err := watcher.NewFileWatcher(root,
		watcher.WithDebounce(cfg.Debounce()),
		watcher.WithSkipDirs(cfg.Paths.SkipDirs),
		watcher.WithLogger(slog.Default()),
	)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", root)
	return watcher.NewRunner(root, s, w, slog.Default()).Run(ctx, func(u watcher.Update) {
		handleWatchUpdate(out, cfg, root, u, partitions)
	})
}

func handleWatchUpdate(w io.Writer, cfg *config.Config, root string, u watcher.Update, partitions *cache.Cache[*scanner.Partition]) {
	if u.Err != nil {
		fmt.Fprintf(w, "✗ Analysis failed: %v\n", u.Err)
		return
	}
	printWatchSummary(w, u, partitions)
	if _, err := saveRun(cfg, root, u.Result.Schema); err != nil {
		slog.Warn("failed to store run", "error", err)
	}
}

// printWatchSummary prints one line per run. partitions may be nil when the
// cache is disabled.
func printWatchSummary(w io.Writer, u watcher.Update, partitions *cache.Cache[*scanner.Partition]) {
	meta := u.Result.Schema.Meta
	trigger := "initial scan"
	if len(u.Changed) > 0 {
		trigger = fmt.Sprintf("%d changed", len(u.Changed))
	}
	fmt.Fprintf(w, "✓ %s: %s classes, %s relations, %d cycles in %.1fs",
		trigger,
		formatNumber(meta.ClassesFound),
		formatNumber(meta.RelationshipStats.Total),
		len(meta.CircularDependencies),
		u.Result.Elapsed.Seconds())
	if len(u.Result.Reused) > 0 {
		fmt.Fprintf(w, " (cached: %s)", strings.Join(u.Result.Reused, ", "))
	}
	if partitions != nil {
		stats := partitions.Stats()
		fmt.Fprintf(w, " [cache: %d hits, %d misses, %d entries]", stats.Hits, stats.Misses, partitions.Len())
	}
	fmt.Fprintln(w)
}

