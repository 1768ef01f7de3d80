// Package store persists indexed files and resolved mockable type descriptors
// in SQLite so the emission stage can read them without re-resolving.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for mockgraph's tables.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
-- Indexing tables

CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  module          TEXT NOT NULL,
  hash            TEXT,
  should_mock     BOOLEAN DEFAULT FALSE,
  declarations    INTEGER DEFAULT 0,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT NOT NULL
);

-- Descriptor tables

CREATE TABLE IF NOT EXISTS mockable_types (
  id              INTEGER PRIMARY KEY,
  ordinal         INTEGER NOT NULL,
  name            TEXT NOT NULL,
  module          TEXT NOT NULL,
  fqn             TEXT NOT NULL UNIQUE,
  kind            TEXT NOT NULL,
  identity        TEXT NOT NULL,
  should_mock     BOOLEAN DEFAULT FALSE,
  attributes      TEXT,
  is_contained    BOOLEAN DEFAULT FALSE,
  subclasses_external BOOLEAN DEFAULT FALSE,
  has_opaque_inherited BOOLEAN DEFAULT FALSE,
  signature_hash  TEXT
);

CREATE TABLE IF NOT EXISTS type_methods (
  id              INTEGER PRIMARY KEY,
  type_id         INTEGER NOT NULL REFERENCES mockable_types(id),
  name            TEXT NOT NULL,
  short_name      TEXT NOT NULL,
  kind            TEXT NOT NULL,
  signature       TEXT NOT NULL,
  return_type     TEXT,
  attributes      TEXT,
  overloads       INTEGER DEFAULT 1
);

CREATE TABLE IF NOT EXISTS type_variables (
  id              INTEGER PRIMARY KEY,
  type_id         INTEGER NOT NULL REFERENCES mockable_types(id),
  name            TEXT NOT NULL,
  kind            TEXT NOT NULL,
  type_name       TEXT,
  settable        BOOLEAN DEFAULT FALSE,
  signature       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS type_inheritance (
  id              INTEGER PRIMARY KEY,
  type_id         INTEGER NOT NULL REFERENCES mockable_types(id),
  inherited_fqn   TEXT NOT NULL,
  relation        TEXT NOT NULL DEFAULT 'inherits'
);

CREATE TABLE IF NOT EXISTS type_generics (
  id              INTEGER PRIMARY KEY,
  type_id         INTEGER NOT NULL REFERENCES mockable_types(id),
  name            TEXT NOT NULL,
  ordinal         INTEGER NOT NULL,
  constraints     TEXT
);

CREATE TABLE IF NOT EXISTS type_where_clauses (
  id              INTEGER PRIMARY KEY,
  type_id         INTEGER NOT NULL REFERENCES mockable_types(id),
  ordinal         INTEGER NOT NULL,
  clause          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS type_directives (
  id              INTEGER PRIMARY KEY,
  type_id         INTEGER NOT NULL REFERENCES mockable_types(id),
  ordinal         INTEGER NOT NULL,
  condition       TEXT NOT NULL
);

-- Indexes

CREATE INDEX IF NOT EXISTS idx_files_module ON files(module);
CREATE INDEX IF NOT EXISTS idx_types_name ON mockable_types(name);
CREATE INDEX IF NOT EXISTS idx_types_module ON mockable_types(module);
CREATE INDEX IF NOT EXISTS idx_types_identity ON mockable_types(identity);
CREATE INDEX IF NOT EXISTS idx_type_methods_type ON type_methods(type_id);
CREATE INDEX IF NOT EXISTS idx_type_variables_type ON type_variables(type_id);
CREATE INDEX IF NOT EXISTS idx_type_inheritance_type ON type_inheritance(type_id);
CREATE INDEX IF NOT EXISTS idx_type_inheritance_target ON type_inheritance(inherited_fqn);
CREATE INDEX IF NOT EXISTS idx_type_generics_type ON type_generics(type_id);
CREATE INDEX IF NOT EXISTS idx_type_where_clauses_type ON type_where_clauses(type_id);
CREATE INDEX IF NOT EXISTS idx_type_directives_type ON type_directives(type_id);
`

// descriptorTables lists the descriptor tables in reverse-dependency order.
var descriptorTables = []string{
	"type_directives",
	"type_where_clauses",
	"type_generics",
	"type_inheritance",
	"type_variables",
	"type_methods",
	"mockable_types",
}

// clearDescriptors removes every persisted descriptor inside tx. Deletes in
// reverse-dependency order to respect FK constraints.
func clearDescriptors(tx *sql.Tx) error {
	for _, table := range descriptorTables {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
