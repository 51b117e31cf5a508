package db

import (
	"database/sql"
	"fmt"
)

// All contains the ordered list of migrations to apply. Existing entries
// must never change; append new ones.
var All = []string{
	`CREATE TABLE files (
		id         INTEGER PRIMARY KEY,
		file_path  TEXT UNIQUE NOT NULL,
		name       TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT (datetime('now')),
		updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`,
	`CREATE TABLE scenarios (
		id       INTEGER PRIMARY KEY,
		file_id  INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		token    TEXT NOT NULL,
		name     TEXT NOT NULL,
		line     INTEGER NOT NULL,
		steps    INTEGER NOT NULL,
		content  TEXT NOT NULL
	)`,
	`CREATE TABLE tags (
		id          INTEGER PRIMARY KEY,
		file_id     INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		scenario_id INTEGER REFERENCES scenarios(id) ON DELETE CASCADE,
		name        TEXT NOT NULL
	)`,
	`CREATE INDEX tags_name ON tags(name)`,
	`CREATE TABLE sync_runs (
		id          TEXT PRIMARY KEY,
		started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
		finished_at DATETIME,
		files       INTEGER NOT NULL DEFAULT 0
	)`,
}

// Migrate brings db up to len(All), one transaction per migration.
func Migrate(db *sql.DB) error {
	current, err := schemaVersion(db)
	if err != nil {
		return err
	}
	for i := current; i < len(All); i++ {
		if err := apply(db, i+1, All[i]); err != nil {
			return err
		}
	}
	return nil
}

// Version reports the schema version recorded in db.
func Version(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow(`SELECT version FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

func schemaVersion(db *sql.DB) (int, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return 0, fmt.Errorf("creating schema_version table: %w", err)
	}
	if _, err := db.Exec(`INSERT INTO schema_version (version) SELECT 0 WHERE NOT EXISTS (SELECT 1 FROM schema_version)`); err != nil {
		return 0, fmt.Errorf("initializing schema version: %w", err)
	}
	return Version(db)
}

func apply(db *sql.DB, version int, stmt string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning migration %d: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(stmt); err != nil {
		return fmt.Errorf("migration %d failed: %w", version, err)
	}
	if _, err := tx.Exec(`UPDATE schema_version SET version = ?`, version); err != nil {
		return fmt.Errorf("updating schema version to %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration %d: %w", version, err)
	}
	return nil
}
