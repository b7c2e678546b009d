package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/classmap/internal/model"
	"github.com/mvp-joe/classmap/internal/relationship"
)

var (
	analyzeOutput      string
	analyzeMinStrength string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a source tree and print its class schema as JSON",
	Long: `Analyze discovers every supported source file under path (default: the
current directory), extracts classes and resolves their relationships.

The schema is written to stdout, or to --output. Relations weaker than
--min-strength (strong, medium or weak) are left out of the output; meta
statistics always describe the full relationship list.

Examples:
  # Analyze the current directory
  classmap analyze

  # Keep only inheritance edges and write to a file
  classmap analyze ./src --min-strength strong --output schema.json
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "write the schema to this file instead of stdout")
	analyzeCmd.Flags().StringVar(&analyzeMinStrength, "min-strength", "", "minimum relation strength to output (strong, medium, weak)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	threshold, err := strengthThreshold(analyzeMinStrength, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := runScan(ctx, root, cfg.ScanOptions(), progressFor(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	if _, err := saveRun(cfg, root, result.Schema); err != nil {
		return err
	}

	if analyzeOutput == "" {
		return writeSchema(cmd.OutOrStdout(), result.Schema, threshold)
	}

	if err := os.MkdirAll(filepath.Dir(analyzeOutput), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(analyzeOutput)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", analyzeOutput, err)
	}
	defer f.Close()
	if err := writeSchema(f, result.Schema, threshold); err != nil {
		return err
	}
	return f.Close()
}

// writeSchema writes schema as indented JSON, keeping only relations at or
// above threshold.
func writeSchema(w io.Writer, schema *model.Schema, threshold model.Strength) error {
	filtered := *schema
	filtered.Relations = relationship.FilterByStrength(schema.Relations, threshold)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&filtered); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return nil
}
