package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mvp-joe/classmap/internal/model"
)

var runColumns = []string{
	"run_id", "root", "created_at", "files_scanned", "failed_files",
	"skipped_files", "classes_found", "relation_count", "languages",
}

// ListRuns returns stored runs, newest first. An empty root lists runs of
// every root; limit <= 0 means no limit.
func (s *Store) ListRuns(root string, limit int) ([]*Run, error) {
	query := sq.Select(runColumns...).
		From("runs").
		OrderBy("created_at DESC", "rowid DESC")
	if root != "" {
		query = query.Where(sq.Eq{"root": root})
	}
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	rows, err := query.RunWith(s.db).Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run by id.
func (s *Store) GetRun(runID string) (*Run, error) {
	run, err := scanRun(sq.Select(runColumns...).
		From("runs").
		Where(sq.Eq{"run_id": runID}).
		RunWith(s.db).
		QueryRow())
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// LatestRun returns the newest run for root, or ErrRunNotFound.
func (s *Store) LatestRun(root string) (*Run, error) {
	runs, err := s.ListRuns(root, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: no runs for %s", ErrRunNotFound, root)
	}
	return runs[0], nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var createdAt, languages string
	err := row.Scan(
		&run.ID,
		&run.Root,
		&createdAt,
		&run.FilesScanned,
		&run.FailedFiles,
		&run.SkippedFiles,
		&run.ClassesFound,
		&run.RelationCount,
		&languages,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	run.Languages = []string{}
	if languages != "" {
		run.Languages = strings.Split(languages, ",")
	}
	return run, nil
}

// LoadRelations returns the stored edges of a run at or above the given
// strength tier, in their original order.
func (s *Store) LoadRelations(runID string, threshold model.Strength) ([]model.RelationshipEdge, error) {
	var tiers []string
	for _, tier := range []model.Strength{model.StrengthStrong, model.StrengthMedium, model.StrengthWeak} {
		if tier <= threshold {
			tiers = append(tiers, tier.String())
		}
	}

	rows, err := sq.Select(
		"from_class", "to_class", "relationship_type", "source",
		"multiplicity_from", "multiplicity_to",
	).
		From("relations").
		Where(sq.Eq{"run_id": runID, "strength": tiers}).
		OrderBy("position").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query relations of run %s: %w", runID, err)
	}
	defer rows.Close()

	edges := []model.RelationshipEdge{}
	for rows.Next() {
		var e model.RelationshipEdge
		var relType, source string
		var multFrom, multTo sql.NullString
		if err := rows.Scan(&e.From, &e.To, &relType, &source, &multFrom, &multTo); err != nil {
			return nil, fmt.Errorf("failed to scan relation: %w", err)
		}
		e.Type = model.RelationshipType(relType)
		e.Source = model.EdgeSource(source)
		if multFrom.Valid || multTo.Valid {
			e.Multiplicity = &model.Multiplicity{From: multFrom.String, To: multTo.String}
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// LoadSchema reconstructs the full schema stored for a run.
func (s *Store) LoadSchema(runID string) (*model.Schema, error) {
	var metaJSON string
	err := sq.Select("meta_json").
		From("runs").
		Where(sq.Eq{"run_id": runID}).
		RunWith(s.db).
		QueryRow().
		Scan(&metaJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	schema := model.NewSchema()
	if err := json.Unmarshal([]byte(metaJSON), &schema.Meta); err != nil {
		return nil, fmt.Errorf("failed to decode meta of run %s: %w", runID, err)
	}

	if err := s.loadClasses(runID, schema); err != nil {
		return nil, err
	}
	if schema.Relations, err = s.LoadRelations(runID, model.StrengthWeak); err != nil {
		return nil, err
	}
	if schema.Endpoints, err = s.loadEndpoints(runID); err != nil {
		return nil, err
	}
	return schema, nil
}

func (s *Store) loadClasses(runID string, schema *model.Schema) error {
	rows, err := sq.Select(
		"name", "language", "stereotype", "is_abstract", "package", "file_path", "fields", "methods",
	).
		From("classes").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("position").
		RunWith(s.db).
		Query()
	if err != nil {
		return fmt.Errorf("failed to query classes of run %s: %w", runID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c model.ClassRecord
		var stereotype, fields, methods string
		if err := rows.Scan(&c.Name, &c.Language, &stereotype, &c.Abstract, &c.Package, &c.File, &fields, &methods); err != nil {
			return fmt.Errorf("failed to scan class: %w", err)
		}
		c.Stereotype = model.Stereotype(stereotype)
		if err := json.Unmarshal([]byte(fields), &c.Fields); err != nil {
			return fmt.Errorf("failed to decode fields of %s: %w", c.Name, err)
		}
		if err := json.Unmarshal([]byte(methods), &c.Methods); err != nil {
			return fmt.Errorf("failed to decode methods of %s: %w", c.Name, err)
		}
		schema.Classes[c.Language] = append(schema.Classes[c.Language], c)
	}
	return rows.Err()
}

func (s *Store) loadEndpoints(runID string) ([]model.Endpoint, error) {
	rows, err := sq.Select("framework", "method", "path", "class_name", "file_path").
		From("endpoints").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("position").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query endpoints of run %s: %w", runID, err)
	}
	defer rows.Close()

	endpoints := []model.Endpoint{}
	for rows.Next() {
		var ep model.Endpoint
		if err := rows.Scan(&ep.Framework, &ep.Method, &ep.Path, &ep.Class, &ep.File); err != nil {
			return nil, fmt.Errorf("failed to scan endpoint: %w", err)
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, rows.Err()
}

// LoadCycles returns the stored cycles of a run as class-name paths.
func (s *Store) LoadCycles(runID string) ([][]string, error) {
	rows, err := sq.Select("path").
		From("cycles").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("position").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles of run %s: %w", runID, err)
	}
	defer rows.Close()

	cycles := [][]string{}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		cycles = append(cycles, strings.Split(path, cyclePathSeparator))
	}
	return cycles, rows.Err()
}
