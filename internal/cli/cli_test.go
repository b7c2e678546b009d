package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/classmap/internal/cache"
	"github.com/mvp-joe/classmap/internal/model"
	"github.com/mvp-joe/classmap/internal/relationship"
	"github.com/mvp-joe/classmap/internal/scanner"
	"github.com/mvp-joe/classmap/internal/storage"
	"github.com/mvp-joe/classmap/internal/watcher"
)

// Test Plan for CLI:
// - formatNumber and formatDuration render compact human output
// - newLogger honors --verbose and --quiet
// - writeSchema drops relations below the threshold but keeps meta intact
// - printCycles, printClassRelations, printStats and printRuns render their data
// - analyze writes a decodable schema to --output and records a run when storage is enabled
// - history lists stored runs, shows one by id or the newest, and deletes runs
// - cycles --run reads the cycles of a stored run and rejects unknown ids
// - watch summaries report cache hits and misses
// - relations reports a class and rejects unknown names
// - version prints the build version

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", formatNumber(0))
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,234", formatNumber(1234))
	assert.Equal(t, "1,234,567", formatNumber(1234567))
	assert.Equal(t, "-1,000", formatNumber(-1000))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "5s", formatDuration(5*time.Second))
	assert.Equal(t, "2m", formatDuration(2*time.Minute+10*time.Second))
	assert.Equal(t, "1h 30m", formatDuration(90*time.Minute))
	assert.Equal(t, "2h", formatDuration(2*time.Hour))
	assert.Equal(t, "1d 3h", formatDuration(27*time.Hour))
	assert.Equal(t, "0s", formatDuration(-time.Second))
}

func TestNewLogger(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer

	assert.True(t, newLogger(&buf, true, false).Enabled(ctx, slog.LevelDebug))
	assert.False(t, newLogger(&buf, false, false).Enabled(ctx, slog.LevelDebug))
	assert.True(t, newLogger(&buf, false, false).Enabled(ctx, slog.LevelInfo))
	assert.False(t, newLogger(&buf, false, true).Enabled(ctx, slog.LevelInfo))
	assert.True(t, newLogger(&buf, false, true).Enabled(ctx, slog.LevelWarn))
}

func TestWriteSchema_FiltersByStrength(t *testing.T) {
	schema := model.NewSchema()
	schema.Classes["python"] = []model.ClassRecord{
		{Name: "Shape", Language: "python", Fields: []string{}, Methods: []string{}},
		{Name: "Circle", Language: "python", Fields: []string{}, Methods: []string{}},
	}
	schema.Relations = []model.RelationshipEdge{
		{From: "Shape", To: "Circle", Type: model.Extends, Source: model.SourceHeuristic},
		{From: "Circle", To: "Shape", Type: model.Uses, Source: model.SourceHeuristic},
	}
	schema.Meta.RelationshipStats.Total = 2

	var buf bytes.Buffer
	require.NoError(t, writeSchema(&buf, schema, model.StrengthStrong))

	var decoded model.Schema
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, schema.Relations[:1], decoded.Relations)
	assert.Equal(t, 2, decoded.Meta.RelationshipStats.Total)
	assert.Len(t, decoded.Classes["python"], 2)

	// The source schema is untouched.
	assert.Len(t, schema.Relations, 2)
}

func TestPrintCycles(t *testing.T) {
	var buf bytes.Buffer
	printCycles(&buf, nil)
	assert.Equal(t, "No circular dependencies found\n", buf.String())

	buf.Reset()
	printCycles(&buf, [][]string{{"A", "B", "A"}})
	assert.Equal(t, "1 circular dependencies:\n  A -> B -> A\n", buf.String())
}

func TestPrintClassRelations(t *testing.T) {
	var buf bytes.Buffer
	printClassRelations(&buf, "Car", relationship.ClassRelations{
		Incoming: []model.RelationshipEdge{{From: "Vehicle", To: "Car", Type: model.Extends}},
		Outgoing: []model.RelationshipEdge{{From: "Car", To: "Engine", Type: model.Composition}},
		Total:    2,
	})

	out := buf.String()
	assert.Contains(t, out, "Car: 1 incoming, 1 outgoing")
	assert.Contains(t, out, "composition  -> Engine")
	assert.Contains(t, out, "extends      <- Vehicle")
}

func TestPrintStats(t *testing.T) {
	meta := &model.Meta{
		FilesScanned: 1200,
		ClassesFound: 3,
		Languages:    []string{"java", "python"},
		RelationshipStats: model.RelationshipStats{
			Total:  3,
			ByType: map[model.RelationshipType]int{model.Extends: 2, model.Uses: 1},
		},
		AnalyzerStats: map[string]model.AnalyzerStats{"python": {ClassesFound: 2, Relationships: 1}},
		Graph:         &model.GraphSummary{Nodes: 3, Edges: 3},
	}

	var buf bytes.Buffer
	printStats(&buf, meta)

	out := buf.String()
	assert.Contains(t, out, "Files scanned:  1,200")
	assert.Contains(t, out, "Languages:      java, python")
	assert.Contains(t, out, "  extends      2")
	assert.NotContains(t, out, "composition")
	assert.Contains(t, out, "3 nodes, 3 edges")
	assert.Contains(t, out, "  python       2 classes, 1 relations")
}

func TestPrintRuns(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	printRuns(&buf, nil, now)
	assert.Equal(t, "No stored runs\n", buf.String())

	buf.Reset()
	printRuns(&buf, []*storage.Run{{
		ID:           "run-1",
		CreatedAt:    now.Add(-90 * time.Minute),
		FilesScanned: 10,
		ClassesFound: 4,
		Languages:    []string{"java", "python"},
	}}, now)
	assert.Contains(t, buf.String(), "RUN")
	assert.Contains(t, buf.String(), "run-1")
	assert.Contains(t, buf.String(), "1h 30m ago")
	assert.Contains(t, buf.String(), "java,python")
}

func TestPrintWatchSummary(t *testing.T) {
	schema := model.NewSchema()
	schema.Meta.ClassesFound = 3
	schema.Meta.RelationshipStats.Total = 2
	u := watcher.Update{
		Result:  &scanner.Result{Schema: schema, Reused: []string{"java"}, Elapsed: time.Second},
		Changed: []string{"shapes/circle.py"},
	}

	var buf bytes.Buffer
	printWatchSummary(&buf, u, nil)
	assert.Contains(t, buf.String(), "1 changed: 3 classes, 2 relations, 0 cycles")
	assert.Contains(t, buf.String(), "(cached: java)")
	assert.NotContains(t, buf.String(), "[cache:")

	partitions, err := cache.New[*scanner.Partition](8)
	require.NoError(t, err)
	defer partitions.Close()
	_, _ = partitions.Get(1)
	partitions.Set(1, &scanner.Partition{Family: "java"})
	_, _ = partitions.Get(1)

	buf.Reset()
	printWatchSummary(&buf, u, partitions)
	assert.Contains(t, buf.String(), "[cache: 1 hits, 1 misses, 1 entries]")
}

func writeRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"app/Car.java":    "class Car {\n    Engine engine;\n    void drive() { engine.start(); }\n}\nclass Engine { void start() {} }\n",
		"shapes/shape.py": "class Shape:\n    pass\n\nclass Circle(Shape):\n    pass\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// resetFlags restores every flag to its default so commands run in sequence
// do not see values left over from an earlier invocation.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestAnalyzeAndHistoryCommands(t *testing.T) {
	root := writeRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".classmap"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".classmap", "config.yml"), []byte("storage:\n  enabled: true\n"), 0o644))

	output := filepath.Join(t.TempDir(), "out", "schema.json")
	_, err := execute(t, "analyze", root, "--quiet", "--output", output, "--min-strength", "weak")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var schema model.Schema
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, 4, schema.Meta.ClassesFound)
	assert.Equal(t, []string{"java", "python"}, schema.Meta.Languages)
	assert.Equal(t, root, schema.Meta.Root)

	out, err := execute(t, "history", root, "--quiet", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "RUN")
	assert.Contains(t, out, "java,python")
}

func TestHistoryRunCommands(t *testing.T) {
	root := writeRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".classmap"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".classmap", "config.yml"), []byte("storage:\n  enabled: true\n"), 0o644))

	_, err := execute(t, "analyze", root, "--quiet", "--output", filepath.Join(t.TempDir(), "schema.json"))
	require.NoError(t, err)

	store, err := storage.Open(filepath.Join(root, ".classmap", "classmap.db"))
	require.NoError(t, err)
	run, err := store.LatestRun(root)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out, err := execute(t, "history", root, "--quiet", "--latest")
	require.NoError(t, err)
	var latest model.Schema
	require.NoError(t, json.Unmarshal([]byte(out), &latest))
	assert.Equal(t, 4, latest.Meta.ClassesFound)

	out, err = execute(t, "history", root, "--quiet", "--show", run.ID)
	require.NoError(t, err)
	assert.Contains(t, out, `"Engine"`)

	out, err = execute(t, "cycles", root, "--quiet", "--run", run.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "No circular dependencies found")

	_, err = execute(t, "cycles", root, "--quiet", "--run", "missing-run")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrRunNotFound)

	out, err = execute(t, "history", root, "--quiet", "--delete", run.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted run "+run.ID)

	out, err = execute(t, "history", root, "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "No stored runs")

	_, err = execute(t, "history", root, "--quiet", "--show", run.ID)
	assert.ErrorIs(t, err, storage.ErrRunNotFound)
}

func TestRelationsCommand(t *testing.T) {
	root := writeRepo(t)

	out, err := execute(t, "relations", root, "--quiet", "--class", "Car")
	require.NoError(t, err)
	assert.Contains(t, out, "Car: 0 incoming")
	assert.Contains(t, out, "-> Engine")

	_, err = execute(t, "relations", root, "--quiet", "--class", "Nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "classmap dev")
}
