package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// DriverFor maps a configured database type to its database/sql driver name
func DriverFor(dbType string) (string, error) {
	switch dbType {
	case "sqlite", "sqlite3", "":
		return DriverSQLite, nil
	case "postgres", "postgresql":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("unsupported database type %q", dbType)
}

// Connect opens the database and creates the schema if it does not exist yet.
// For sqlite the dsn is a file path; its directory is created on demand.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	if driver == DriverSQLite {
		if dir := filepath.Dir(dsn); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	statements := sqliteSchema
	if db.DriverName() == DriverPostgres {
		statements = postgresSchema
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt.sql); err != nil {
			return fmt.Errorf("failed to create %s table: %w", stmt.table, err)
		}
	}
	return nil
}

type schemaStatement struct {
	table string
	sql   string
}

var sqliteSchema = []schemaStatement{
	{"items", `
		CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			family TEXT NOT NULL,
			name TEXT NOT NULL,
			data BLOB NOT NULL,
			estimate REAL NOT NULL DEFAULT 0.5,
			num_correct INTEGER NOT NULL DEFAULT 0,
			num_incorrect INTEGER NOT NULL DEFAULT 0,
			last_answered_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(family, name)
		)
	`},
	{"answers", `
		CREATE TABLE IF NOT EXISTS answers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			item_id INTEGER NOT NULL,
			session_id TEXT NOT NULL DEFAULT '',
			answered_at TIMESTAMP NOT NULL,
			correct BOOLEAN NOT NULL,
			FOREIGN KEY (item_id) REFERENCES items(id)
		)
	`},
	{"set_members", `
		CREATE TABLE IF NOT EXISTS set_members (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			set_name TEXT NOT NULL,
			item_id INTEGER NOT NULL,
			FOREIGN KEY (item_id) REFERENCES items(id),
			UNIQUE(set_name, item_id)
		)
	`},
	{"set_descriptors", `
		CREATE TABLE IF NOT EXISTS set_descriptors (
			name TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			data BLOB NOT NULL
		)
	`},
}

var postgresSchema = []schemaStatement{
	{"items", `
		CREATE TABLE IF NOT EXISTS items (
			id BIGSERIAL PRIMARY KEY,
			family TEXT NOT NULL,
			name TEXT NOT NULL,
			data BYTEA NOT NULL,
			estimate DOUBLE PRECISION NOT NULL DEFAULT 0.5,
			num_correct INTEGER NOT NULL DEFAULT 0,
			num_incorrect INTEGER NOT NULL DEFAULT 0,
			last_answered_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(family, name)
		)
	`},
	{"answers", `
		CREATE TABLE IF NOT EXISTS answers (
			id BIGSERIAL PRIMARY KEY,
			item_id BIGINT NOT NULL REFERENCES items(id),
			session_id TEXT NOT NULL DEFAULT '',
			answered_at TIMESTAMPTZ NOT NULL,
			correct BOOLEAN NOT NULL
		)
	`},
	{"set_members", `
		CREATE TABLE IF NOT EXISTS set_members (
			id BIGSERIAL PRIMARY KEY,
			set_name TEXT NOT NULL,
			item_id BIGINT NOT NULL REFERENCES items(id),
			UNIQUE(set_name, item_id)
		)
	`},
	{"set_descriptors", `
		CREATE TABLE IF NOT EXISTS set_descriptors (
			name TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			data BYTEA NOT NULL
		)
	`},
}
