package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/classmap/internal/relationship"
)

var relationsClass string

// relationsCmd represents the relations command
var relationsCmd = &cobra.Command{
	Use:     "relations [path]",
	Short:   "Show the incoming and outgoing relations of one class",
	Example: `  classmap relations ./src --class OrderService`,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runRelations,
}

func init() {
	rootCmd.AddCommand(relationsCmd)
	relationsCmd.Flags().StringVarP(&relationsClass, "class", "c", "", "class name to inspect (required)")
	_ = relationsCmd.MarkFlagRequired("class")
}

func runRelations(cmd *cobra.Command, args []string) error {
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
	if !result.Detector.Known(relationsClass) {
		return fmt.Errorf("class %q not found under %s", relationsClass, root)
	}
	printClassRelations(cmd.OutOrStdout(), relationsClass, result.Detector.ClassRelationships(relationsClass))
	return nil
}

func printClassRelations(w io.Writer, name string, rel relationship.ClassRelations) {
	fmt.Fprintf(w, "%s: %d incoming, %d outgoing\n", name, len(rel.Incoming), len(rel.Outgoing))
	if len(rel.Outgoing) > 0 {
		fmt.Fprintln(w, "  outgoing:")
		for _, e := range rel.Outgoing {
			fmt.Fprintf(w, "    %-12s -> %s\n", e.Type, e.To)
		}
	}
	if len(rel.Incoming) > 0 {
		fmt.Fprintln(w, "  incoming:")
		for _, e := range rel.Incoming {
			fmt.Fprintf(w, "    %-12s <- %s\n", e.Type, e.From)
		}
	}
}
