package relationship

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/classmap/internal/model"
)

// Test Plan for Detector:
// - Validate drops unknown types, empty endpoints, non-dependency self-loops
//   and edges naming unknown classes; dependency edges skip the known check
// - Deduplicate keeps first occurrences and is idempotent
// - Infer emits composition from typed fields and implements from abstract bases
// - Run defaults the source to heuristic and keeps heuristic edges over
//   identical inferred ones
// - FilterByStrength and Categorize bucket by tier and type
// - ClassRelationships splits incoming and outgoing edges
// - Statistics counts the final list

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func class(name string, abstract bool, fields ...string) model.ClassRecord {
	return model.ClassRecord{Name: name, Language: "java", Fields: fields, Abstract: abstract}
}

func rel(from, to string, typ model.RelationshipType) model.RelationshipEdge {
	return model.RelationshipEdge{From: from, To: to, Type: typ}
}

func keys(edges []model.RelationshipEdge) []model.EdgeKey {
	out := make([]model.EdgeKey, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.Key())
	}
	return out
}

func TestDetector_Validate(t *testing.T) {
	t.Parallel()

	d := NewDetector([]model.ClassRecord{class("A", false), class("B", false)}, WithLogger(quietLogger()))
	d.Add(
		rel("A", "B", model.Composition),
		rel("A", "B", "creates"),
		rel("", "B", model.Uses),
		rel("A", "", model.Uses),
		rel("A", "A", model.Uses),
		rel("A", "A", model.Dependency),
		rel("requests", "requests", model.Dependency),
		rel("A", "Missing", model.Uses),
		rel("Missing", "B", model.Extends),
	)

	valid := d.Validate()
	assert.Equal(t, []model.EdgeKey{
		{From: "A", To: "B", Type: model.Composition},
		{From: "A", To: "A", Type: model.Dependency},
		{From: "requests", To: "requests", Type: model.Dependency},
	}, keys(valid))

	for _, e := range valid {
		assert.True(t, e.Type.Valid())
		if e.Type != model.Dependency {
			assert.NotEqual(t, e.From, e.To)
		}
	}
}

func TestDeduplicate(t *testing.T) {
	t.Parallel()

	edges := []model.RelationshipEdge{
		{From: "A", To: "B", Type: model.Uses, Source: model.SourceHeuristic},
		{From: "A", To: "B", Type: model.Composition},
		{From: "A", To: "B", Type: model.Uses, Source: model.SourceInferred},
		{From: "B", To: "A", Type: model.Uses},
	}

	once := Deduplicate(edges)
	require.Len(t, once, 3)
	assert.Equal(t, model.SourceHeuristic, once[0].Source)
	assert.Equal(t, once, Deduplicate(once))
	assert.Empty(t, Deduplicate(nil))
}

func TestDetector_Infer(t *testing.T) {
	t.Parallel()

	classes := []model.ClassRecord{
		class("Car", false, "engine: Engine", "wheels: List<Wheel>", "spare: Wheel[]", "self: Car", "color"),
		class("Engine", false),
		class("Wheel", false),
		class("Shape", true),
		class("Circle", false),
		class("Polygon", true),
	}
	d := NewDetector(classes, WithLogger(quietLogger()))
	d.Add(
		rel("Shape", "Circle", model.Extends),
		rel("Shape", "Polygon", model.Extends),
		rel("Engine", "Wheel", model.Extends),
	)

	inferred := d.Infer()
	assert.ElementsMatch(t, []model.EdgeKey{
		{From: "Car", To: "Engine", Type: model.Composition},
		{From: "Car", To: "Wheel", Type: model.Composition},
		{From: "Shape", To: "Circle", Type: model.Implements},
	}, keys(inferred))
	for _, e := range inferred {
		assert.Equal(t, model.SourceInferred, e.Source)
	}
}

func TestDetector_Run(t *testing.T) {
	t.Parallel()

	classes := []model.ClassRecord{
		class("Car", false, "engine: Engine"),
		class("Engine", false),
		class("Vehicle", true),
	}
	d := NewDetector(classes, WithLogger(quietLogger()))
	d.Add(
		rel("Car", "Engine", model.Composition),
		rel("Vehicle", "Car", model.Extends),
		rel("Car", "Engine", model.Composition),
		rel("Car", "Ghost", model.Uses),
	)

	final := d.Run()
	assert.Equal(t, []model.RelationshipEdge{
		{From: "Car", To: "Engine", Type: model.Composition, Source: model.SourceHeuristic},
		{From: "Vehicle", To: "Car", Type: model.Extends, Source: model.SourceHeuristic},
		{From: "Vehicle", To: "Car", Type: model.Implements, Source: model.SourceInferred},
	}, final)
	assert.Equal(t, final, d.Relationships())
	assert.Equal(t, final, Deduplicate(final))
}

func TestFilterByStrength(t *testing.T) {
	t.Parallel()

	edges := []model.RelationshipEdge{
		rel("A", "B", model.Extends),
		rel("A", "B", model.Implements),
		rel("A", "B", model.Composition),
		rel("A", "B", model.Association),
		rel("A", "B", model.Uses),
		rel("A", "A", model.Dependency),
		rel("A", "B", "creates"),
	}

	assert.Len(t, FilterByStrength(edges, model.StrengthStrong), 2)
	assert.Len(t, FilterByStrength(edges, model.StrengthMedium), 4)
	assert.Len(t, FilterByStrength(edges, model.StrengthWeak), 7)
}

func TestCategorize(t *testing.T) {
	t.Parallel()

	got := Categorize([]model.RelationshipEdge{
		rel("A", "B", model.Uses),
		rel("B", "C", model.Uses),
		rel("A", "C", model.Extends),
		rel("A", "C", "creates"),
	})

	assert.Len(t, got, len(model.RelationshipTypes))
	assert.Len(t, got[model.Uses], 2)
	assert.Len(t, got[model.Extends], 1)
	assert.Empty(t, got[model.Aggregation])
}

func TestDetector_ClassRelationships(t *testing.T) {
	t.Parallel()

	d := NewDetector([]model.ClassRecord{class("A", false), class("B", false), class("C", false)}, WithLogger(quietLogger()))
	d.Add(
		rel("A", "B", model.Uses),
		rel("C", "A", model.Extends),
		rel("A", "A", model.Dependency),
	)
	d.Run()

	got := d.ClassRelationships("A")
	assert.Len(t, got.Outgoing, 2)
	assert.Len(t, got.Incoming, 2)
	assert.Equal(t, 4, got.Total)

	none := d.ClassRelationships("Nope")
	assert.Empty(t, none.Incoming)
	assert.Empty(t, none.Outgoing)
	assert.Zero(t, none.Total)
}

func TestDetector_Statistics(t *testing.T) {
	t.Parallel()

	d := NewDetector([]model.ClassRecord{class("A", false), class("B", false), class("C", false)}, WithLogger(quietLogger()))
	d.Add(
		rel("A", "B", model.Extends),
		rel("B", "A", model.Composition),
		rel("A", "C", model.Uses),
	)
	d.Run()

	stats := d.Statistics()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.TotalClasses)
	assert.Equal(t, map[model.RelationshipType]int{
		model.Extends:     1,
		model.Composition: 1,
		model.Uses:        1,
	}, stats.ByType)
	assert.Equal(t, 1, stats.CircularDependencies)
}
