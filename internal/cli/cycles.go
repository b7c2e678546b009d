package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/classmap/internal/config"
	"github.com/mvp-joe/classmap/internal/storage"
)

var cyclesRun string

// cyclesCmd represents the cycles command
var cyclesCmd = &cobra.Command{
	Use:   "cycles [path]",
	Short: "List circular dependencies between classes",
	Long: `Cycles follows extends, implements, composition and dependency edges and
prints every cycle found. Weaker relations (uses, aggregation, association)
are not considered. With --run, the cycles recorded for a stored run are
printed instead of analyzing path again.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCycles,
}

func init() {
	rootCmd.AddCommand(cyclesCmd)
	cyclesCmd.Flags().StringVar(&cyclesRun, "run", "", "print the cycles of this stored run id")
}

func runCycles(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	if cyclesRun != "" {
		return printStoredCycles(cmd.OutOrStdout(), cfg, root, cyclesRun)
	}

	ctx, cancel := signalContext()
	defer cancel()

	opts := cfg.ScanOptions()
	opts.DetectCycles = true
	result, err := runScan(ctx, root, opts, progressFor(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	printCycles(cmd.OutOrStdout(), result.Schema.Meta.CircularDependencies)
	return nil
}

func printStoredCycles(w io.Writer, cfg *config.Config, root, runID string) error {
	store, err := openStore(cfg, root)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("%w: %s (no run database under %s)", storage.ErrRunNotFound, runID, root)
	}
	defer store.Close()

	if _, err := store.GetRun(runID); err != nil {
		return err
	}
	cycles, err := store.LoadCycles(runID)
	if err != nil {
		return err
	}
	printCycles(w, cycles)
	return nil
}

func printCycles(w io.Writer, cycles [][]string) {
	if len(cycles) == 0 {
		fmt.Fprintln(w, "No circular dependencies found")
		return
	}
	fmt.Fprintf(w, "%d circular dependencies:\n", len(cycles))
	for _, cycle := range cycles {
		fmt.Fprintf(w, "  %s\n", strings.Join(cycle, " -> "))
	}
}
