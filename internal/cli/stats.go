package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/classmap/internal/model"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats [path]",
	Short: "Print analysis statistics for a source tree",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
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

	result, err := runScan(ctx, root, cfg.ScanOptions(), progressFor(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	printStats(cmd.OutOrStdout(), &result.Schema.Meta)
	return nil
}

func printStats(w io.Writer, meta *model.Meta) {
	fmt.Fprintf(w, "Files scanned:  %s\n", formatNumber(meta.FilesScanned))
	fmt.Fprintf(w, "Failed files:   %s\n", formatNumber(meta.FailedFiles))
	fmt.Fprintf(w, "Skipped files:  %s\n", formatNumber(meta.SkippedFiles))
	fmt.Fprintf(w, "Classes found:  %s\n", formatNumber(meta.ClassesFound))
	fmt.Fprintf(w, "Languages:      %s\n", strings.Join(meta.Languages, ", "))

	fmt.Fprintf(w, "Relations:      %s\n", formatNumber(meta.RelationshipStats.Total))
	for _, t := range model.RelationshipTypes {
		if n := meta.RelationshipStats.ByType[t]; n > 0 {
			fmt.Fprintf(w, "  %-12s %s\n", t, formatNumber(n))
		}
	}
	fmt.Fprintf(w, "Cycles:         %s\n", formatNumber(meta.RelationshipStats.CircularDependencies))

	if meta.Graph != nil {
		fmt.Fprintf(w, "Graph:          %s nodes, %s edges, %d strongly connected groups\n",
			formatNumber(meta.Graph.Nodes), formatNumber(meta.Graph.Edges), len(meta.Graph.Components))
	}

	if len(meta.AnalyzerStats) > 0 {
		names := make([]string, 0, len(meta.AnalyzerStats))
		for name := range meta.AnalyzerStats {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(w, "Analyzers:")
		for _, name := range names {
			st := meta.AnalyzerStats[name]
			fmt.Fprintf(w, "  %-12s %s classes, %s relations\n", name, formatNumber(st.ClassesFound), formatNumber(st.Relationships))
		}
	}
}

// formatNumber formats integer with thousand separators.
// Examples: 1234 -> "1,234", 1234567 -> "1,234,567"
func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var b strings.Builder
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}
