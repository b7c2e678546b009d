package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/classmap/internal/model"
	"github.com/mvp-joe/classmap/internal/storage"
)

var (
	historyLimit  int
	historyShow   string
	historyLatest bool
	historyDelete string
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [path]",
	Short: "List stored analysis runs",
	Long: `History lists the runs recorded for path when storage.enabled is set,
newest first. Use --show to print the stored schema of one run, --latest to
print the newest one, and --delete to remove a run.

Examples:
  classmap history
  classmap history --limit 5
  classmap history --show 3f2c9a8e-...
  classmap history --latest
  classmap history --delete 3f2c9a8e-...
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs to list (0 for all)")
	historyCmd.Flags().StringVar(&historyShow, "show", "", "print the stored schema of this run id")
	historyCmd.Flags().BoolVar(&historyLatest, "latest", false, "print the stored schema of the newest run")
	historyCmd.Flags().StringVar(&historyDelete, "delete", "", "delete the run with this id")
	historyCmd.MarkFlagsMutuallyExclusive("show", "latest", "delete")
}

func runHistory(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	store, err := openStore(cfg, root)
	if err != nil {
		return err
	}
	if store == nil {
		fmt.Fprintf(out, "No stored runs (set storage.enabled: true in .classmap/config.yml)\n")
		return nil
	}
	defer store.Close()

	switch {
	case historyDelete != "":
		if err := store.DeleteRun(historyDelete); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted run %s\n", historyDelete)
		return nil
	case historyShow != "":
		run, err := store.GetRun(historyShow)
		if err != nil {
			return err
		}
		return showRun(out, store, run)
	case historyLatest:
		run, err := store.LatestRun(root)
		if err != nil {
			return err
		}
		return showRun(out, store, run)
	}

	runs, err := store.ListRuns(root, historyLimit)
	if err != nil {
		return err
	}
	printRuns(out, runs, time.Now())
	return nil
}

func showRun(w io.Writer, store *storage.Store, run *storage.Run) error {
	schema, err := store.LoadSchema(run.ID)
	if err != nil {
		return err
	}
	return writeSchema(w, schema, model.StrengthWeak)
}

func printRuns(w io.Writer, runs []*storage.Run, now time.Time) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No stored runs")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tWHEN\tFILES\tCLASSES\tRELATIONS\tLANGUAGES")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s ago\t%s\t%s\t%s\t%s\n",
			run.ID,
			formatDuration(now.Sub(run.CreatedAt)),
			formatNumber(run.FilesScanned),
			formatNumber(run.ClassesFound),
			formatNumber(run.RelationCount),
			strings.Join(run.Languages, ","))
	}
	tw.Flush()
}

// formatDuration formats a duration in compact format.
// Examples: "5s", "1m", "1h 30m", "2h", "1d", "1d 3h", "3d"
func formatDuration(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 0 {
		seconds = 0
	}

	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	switch {
	case days > 0:
		if hours > 0 {
			return fmt.Sprintf("%dd %dh", days, hours)
		}
		return fmt.Sprintf("%dd", days)
	case hours > 0:
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}
