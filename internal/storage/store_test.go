package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/classmap/internal/model"
)

// Test Plan for Store:
// - A saved run is listed, fetched by id and reported newest first
// - Runs can be filtered by root and limited
// - Relations load in stored order and can be narrowed by strength tier
// - A loaded schema matches the saved one, including meta and cycles
// - Deleting a run removes its rows; unknown ids report ErrRunNotFound
// - A file database keeps runs across reopen and records the schema version

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSchema(root string) *model.Schema {
	schema := model.NewSchema()
	schema.Classes["python"] = []model.ClassRecord{
		{Name: "Shape", Language: "python", Fields: []string{}, Methods: []string{"area"}, Stereotype: model.StereotypeAbstract, Abstract: true, Package: "shapes", File: "shapes/shape.py"},
		{Name: "Circle", Language: "python", Fields: []string{"radius: float"}, Methods: []string{"area"}, Stereotype: model.StereotypeClass, Package: "shapes", File: "shapes/circle.py"},
	}
	schema.Classes["java"] = []model.ClassRecord{
		{Name: "Car", Language: "java", Fields: []string{"engine: Engine"}, Methods: []string{"drive"}, Stereotype: model.StereotypeClass, Package: "app", File: "app/Car.java"},
		{Name: "Engine", Language: "java", Fields: []string{}, Methods: []string{}, Stereotype: model.StereotypeClass, Package: "app", File: "app/Car.java"},
	}
	schema.Relations = []model.RelationshipEdge{
		{From: "Shape", To: "Circle", Type: model.Extends, Source: model.SourceHeuristic},
		{From: "Car", To: "Engine", Type: model.Composition, Source: model.SourceInferred, Multiplicity: &model.Multiplicity{From: "1", To: "1"}},
		{From: "Car", To: "Engine", Type: model.Uses, Source: model.SourceHeuristic},
		{From: "Engine", To: "Engine", Type: model.Dependency, Source: model.SourceHeuristic},
	}
	schema.Endpoints = []model.Endpoint{
		{Framework: "fastapi", Method: "GET", Path: "/health", File: "api.py"},
	}
	schema.Meta = model.Meta{
		Root:         root,
		FilesScanned: 3,
		ClassesFound: 4,
		Languages:    []string{"java", "python"},
		FailedFiles:  1,
		SkippedFiles: 2,
		RelationshipStats: model.RelationshipStats{
			Total:                4,
			ByType:               map[model.RelationshipType]int{model.Extends: 1, model.Composition: 1, model.Uses: 1, model.Dependency: 1},
			TotalClasses:         4,
			CircularDependencies: 1,
		},
		CircularDependencies: [][]string{{"Engine", "Engine"}},
		Graph:                &model.GraphSummary{Nodes: 4, Edges: 3},
	}
	return schema
}

func TestStore_SaveAndGetRun(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	before := time.Now().UTC()

	run, err := s.SaveRun(sampleSchema("/repo"))
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "/repo", got.Root)
	assert.Equal(t, 3, got.FilesScanned)
	assert.Equal(t, 1, got.FailedFiles)
	assert.Equal(t, 2, got.SkippedFiles)
	assert.Equal(t, 4, got.ClassesFound)
	assert.Equal(t, 4, got.RelationCount)
	assert.Equal(t, []string{"java", "python"}, got.Languages)
	assert.WithinDuration(t, before, got.CreatedAt, time.Minute)
}

func TestStore_SaveRun_Nil(t *testing.T) {
	t.Parallel()

	_, err := newTestStore(t).SaveRun(nil)
	assert.Error(t, err)
}

func TestStore_ListRuns(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	first, err := s.SaveRun(sampleSchema("/repo"))
	require.NoError(t, err)
	second, err := s.SaveRun(sampleSchema("/repo"))
	require.NoError(t, err)
	other, err := s.SaveRun(sampleSchema("/other"))
	require.NoError(t, err)

	all, err := s.ListRuns("", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, other.ID, all[0].ID)

	repo, err := s.ListRuns("/repo", 0)
	require.NoError(t, err)
	require.Len(t, repo, 2)
	assert.Equal(t, second.ID, repo[0].ID)
	assert.Equal(t, first.ID, repo[1].ID)

	limited, err := s.ListRuns("/repo", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, second.ID, limited[0].ID)

	latest, err := s.LatestRun("/repo")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	_, err = s.LatestRun("/missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_LoadRelations(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	schema := sampleSchema("/repo")
	run, err := s.SaveRun(schema)
	require.NoError(t, err)

	all, err := s.LoadRelations(run.ID, model.StrengthWeak)
	require.NoError(t, err)
	assert.Equal(t, schema.Relations, all)

	strong, err := s.LoadRelations(run.ID, model.StrengthStrong)
	require.NoError(t, err)
	assert.Equal(t, []model.RelationshipEdge{schema.Relations[0]}, strong)

	medium, err := s.LoadRelations(run.ID, model.StrengthMedium)
	require.NoError(t, err)
	assert.Len(t, medium, 2)
}

func TestStore_LoadSchema(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	schema := sampleSchema("/repo")
	run, err := s.SaveRun(schema)
	require.NoError(t, err)

	loaded, err := s.LoadSchema(run.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.Classes, loaded.Classes)
	assert.Equal(t, schema.Relations, loaded.Relations)
	assert.Equal(t, schema.Endpoints, loaded.Endpoints)
	assert.Equal(t, schema.Meta, loaded.Meta)

	cycles, err := s.LoadCycles(run.ID)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Engine", "Engine"}}, cycles)

	_, err = s.LoadSchema("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_DeleteRun(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	run, err := s.SaveRun(sampleSchema("/repo"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteRun(run.ID))

	_, err = s.GetRun(run.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)

	edges, err := s.LoadRelations(run.ID, model.StrengthWeak)
	require.NoError(t, err)
	assert.Empty(t, edges)

	assert.ErrorIs(t, s.DeleteRun(run.ID), ErrRunNotFound)
}

func TestOpen_FileDatabase(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".classmap", "classmap.db")

	s, err := Open(path)
	require.NoError(t, err)
	run, err := s.SaveRun(sampleSchema("/repo"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)

	version, err := GetSchemaVersion(reopened.db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}
