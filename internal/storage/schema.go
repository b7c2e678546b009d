package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is recorded in the metadata table of every database.
const SchemaVersion = "1"

// CreateSchema creates all tables and indexes for stored analysis runs.
// It is idempotent, so it can run on every open.
//
// Must be called with SQLite PRAGMA foreign_keys = ON.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	// Create all tables in dependency order
	tables := []struct {
		name string
		ddl  string
	}{
		{"metadata", createMetadataTable},
		{"runs", createRunsTable},
		{"classes", createClassesTable},
		{"relations", createRelationsTable},
		{"endpoints", createEndpointsTable},
		{"cycles", createCyclesTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range allIndexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		`INSERT OR IGNORE INTO metadata (key, value, updated_at) VALUES ('schema_version', ?, ?)`,
		SchemaVersion, now,
	); err != nil {
		return fmt.Errorf("failed to bootstrap metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// GetSchemaVersion retrieves the schema version from metadata.
// Returns "0" if the table doesn't exist (new database).
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil
	}

	var version string
	err = db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "0", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

const createMetadataTable = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,                     -- UUID
    root TEXT NOT NULL,
    created_at TEXT NOT NULL,                    -- RFC3339
    files_scanned INTEGER NOT NULL,
    failed_files INTEGER NOT NULL,
    skipped_files INTEGER NOT NULL,
    classes_found INTEGER NOT NULL,
    relation_count INTEGER NOT NULL,
    languages TEXT NOT NULL,                     -- comma separated
    meta_json TEXT NOT NULL                      -- full Meta as JSON
)
`

const createClassesTable = `
CREATE TABLE IF NOT EXISTS classes (
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,                   -- order within the run
    name TEXT NOT NULL,
    language TEXT NOT NULL,
    stereotype TEXT NOT NULL,
    is_abstract INTEGER NOT NULL,
    package TEXT NOT NULL,
    file_path TEXT NOT NULL,
    fields TEXT NOT NULL,                        -- JSON array
    methods TEXT NOT NULL,                       -- JSON array
    PRIMARY KEY (run_id, position),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
)
`

const createRelationsTable = `
CREATE TABLE IF NOT EXISTS relations (
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    from_class TEXT NOT NULL,
    to_class TEXT NOT NULL,
    relationship_type TEXT NOT NULL,
    source TEXT NOT NULL,
    strength TEXT NOT NULL,
    multiplicity_from TEXT,                      -- NULL when not annotated
    multiplicity_to TEXT,
    PRIMARY KEY (run_id, position),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
)
`

const createEndpointsTable = `
CREATE TABLE IF NOT EXISTS endpoints (
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    framework TEXT NOT NULL,
    method TEXT NOT NULL,
    path TEXT NOT NULL,
    class_name TEXT NOT NULL,
    file_path TEXT NOT NULL,
    PRIMARY KEY (run_id, position),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
)
`

const createCyclesTable = `
CREATE TABLE IF NOT EXISTS cycles (
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    path TEXT NOT NULL,                          -- class names joined by " -> "
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE,
    PRIMARY KEY (run_id, position)
)
`

var allIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_runs_root_created ON runs(root, created_at)",
	"CREATE INDEX IF NOT EXISTS idx_classes_name ON classes(run_id, name)",
	"CREATE INDEX IF NOT EXISTS idx_relations_from ON relations(run_id, from_class)",
	"CREATE INDEX IF NOT EXISTS idx_relations_to ON relations(run_id, to_class)",
	"CREATE INDEX IF NOT EXISTS idx_relations_type ON relations(run_id, relationship_type)",
}
