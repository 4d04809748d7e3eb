package db

import (
	"database/sql"
	"fmt"
)

const currentSchemaVersion = 1

// RunMigrations executes all database migrations
func RunMigrations(db *DB) error {
	// Check if schema_version table exists
	var tableExists bool
	err := db.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("failed to check schema_version table: %w", err)
	}

	if !tableExists {
		// First time initialization
		if err := initializeSchema(db); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
		return nil
	}

	// Get current version
	var version int
	err = db.QueryRow(`
		SELECT version FROM schema_version
		ORDER BY version DESC LIMIT 1
	`).Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	if version < 1 || version > currentSchemaVersion {
		return fmt.Errorf("invalid schema version: %d", version)
	}

	return nil
}

// initializeSchema creates all tables for a new database
func initializeSchema(db *DB) error {
	tx, err := db.BeginTx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := execSQL(tx, schemaVersionTable); err != nil {
		return err
	}
	if err := execSQL(tx, certCacheTable); err != nil {
		return err
	}
	if err := execSQL(tx, certCacheIndexes); err != nil {
		return err
	}

	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}

// execSQL executes a SQL statement
func execSQL(tx *sql.Tx, query string) error {
	_, err := tx.Exec(query)
	return err
}

// Schema definitions
const (
	schemaVersionTable = `
CREATE TABLE schema_version (
    version INTEGER NOT NULL,
    applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

	certCacheTable = `
CREATE TABLE cert_cache (
    cache_key  TEXT PRIMARY KEY,
    data       BLOB NOT NULL,
    stored_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

	certCacheIndexes = `
CREATE INDEX idx_cert_cache_stored_at ON cert_cache(stored_at)`
)
