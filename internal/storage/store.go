// Package storage persists analysis runs to SQLite so results can be
// compared across runs and queried without re-analyzing.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mvp-joe/classmap/internal/model"
)

// ErrRunNotFound is returned when a run id is not in the database.
var ErrRunNotFound = errors.New("run not found")

// timeLayout sorts lexically in creation order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is the summary row of one stored analysis.
type Run struct {
	ID            string
	Root          string
	CreatedAt     time.Time
	FilesScanned  int
	FailedFiles   int
	SkippedFiles  int
	ClassesFound  int
	RelationCount int
	Languages     []string
}

// Store reads and writes analysis runs.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the schema.
// The parent directory is created when missing; ":memory:" is accepted.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun writes a complete schema snapshot in a single transaction and
// returns the new run.
func (s *Store) SaveRun(schema *model.Schema) (*Run, error) {
	if schema == nil {
		return nil, fmt.Errorf("schema cannot be nil")
	}

	metaJSON, err := json.Marshal(schema.Meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode meta: %w", err)
	}

	run := &Run{
		ID:            uuid.New().String(),
		Root:          schema.Meta.Root,
		CreatedAt:     time.Now().UTC(),
		FilesScanned:  schema.Meta.FilesScanned,
		FailedFiles:   schema.Meta.FailedFiles,
		SkippedFiles:  schema.Meta.SkippedFiles,
		ClassesFound:  schema.Meta.ClassesFound,
		RelationCount: len(schema.Relations),
		Languages:     schema.Meta.Languages,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	_, err = sq.Insert("runs").
		Columns(
			"run_id", "root", "created_at", "files_scanned", "failed_files",
			"skipped_files", "classes_found", "relation_count", "languages", "meta_json",
		).
		Values(
			run.ID, run.Root, run.CreatedAt.Format(timeLayout), run.FilesScanned, run.FailedFiles,
			run.SkippedFiles, run.ClassesFound, run.RelationCount, strings.Join(run.Languages, ","), string(metaJSON),
		).
		RunWith(tx).
		Exec()
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	if err := writeClasses(tx, run.ID, schema.AllClasses()); err != nil {
		return nil, err
	}
	if err := writeRelations(tx, run.ID, schema.Relations); err != nil {
		return nil, err
	}
	if err := writeEndpoints(tx, run.ID, schema.Endpoints); err != nil {
		return nil, err
	}
	if err := writeCycles(tx, run.ID, schema.Meta.CircularDependencies); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return run, nil
}

func writeClasses(tx *sql.Tx, runID string, classes []model.ClassRecord) error {
	for i, c := range classes {
		fields, err := json.Marshal(nonNil(c.Fields))
		if err != nil {
			return fmt.Errorf("failed to encode fields of %s: %w", c.Name, err)
		}
		methods, err := json.Marshal(nonNil(c.Methods))
		if err != nil {
			return fmt.Errorf("failed to encode methods of %s: %w", c.Name, err)
		}

		_, err = sq.Insert("classes").
			Columns(
				"run_id", "position", "name", "language", "stereotype",
				"is_abstract", "package", "file_path", "fields", "methods",
			).
			Values(
				runID, i, c.Name, c.Language, string(c.Stereotype),
				c.Abstract, c.Package, c.File, string(fields), string(methods),
			).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to insert class %s: %w", c.Name, err)
		}
	}
	return nil
}

func writeRelations(tx *sql.Tx, runID string, edges []model.RelationshipEdge) error {
	for i, e := range edges {
		var multFrom, multTo sql.NullString
		if e.Multiplicity != nil {
			multFrom = sql.NullString{String: e.Multiplicity.From, Valid: true}
			multTo = sql.NullString{String: e.Multiplicity.To, Valid: true}
		}

		_, err := sq.Insert("relations").
			Columns(
				"run_id", "position", "from_class", "to_class", "relationship_type",
				"source", "strength", "multiplicity_from", "multiplicity_to",
			).
			Values(
				runID, i, e.From, e.To, string(e.Type),
				string(e.Source), model.StrengthOf(e.Type).String(), multFrom, multTo,
			).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to insert relation %s->%s: %w", e.From, e.To, err)
		}
	}
	return nil
}

func writeEndpoints(tx *sql.Tx, runID string, endpoints []model.Endpoint) error {
	for i, ep := range endpoints {
		_, err := sq.Insert("endpoints").
			Columns("run_id", "position", "framework", "method", "path", "class_name", "file_path").
			Values(runID, i, ep.Framework, ep.Method, ep.Path, ep.Class, ep.File).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to insert endpoint %s %s: %w", ep.Method, ep.Path, err)
		}
	}
	return nil
}

func writeCycles(tx *sql.Tx, runID string, cycles [][]string) error {
	for i, cycle := range cycles {
		_, err := sq.Insert("cycles").
			Columns("run_id", "position", "path").
			Values(runID, i, strings.Join(cycle, cyclePathSeparator)).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to insert cycle %d: %w", i, err)
		}
	}
	return nil
}

const cyclePathSeparator = " -> "

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// DeleteRun removes a run and everything stored with it.
func (s *Store) DeleteRun(runID string) error {
	res, err := sq.Delete("runs").
		Where(sq.Eq{"run_id": runID}).
		RunWith(s.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}
