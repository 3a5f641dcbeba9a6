// Package store provides SQLite-backed persistence for scanned export
// signatures. The database normally lives at .tsig/signatures.db and keeps
// one row per exported function plus the content hash of every scanned file,
// so unchanged files can be skipped on the next scan.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a file has no entry in the store.
var ErrNotFound = errors.New("not found")

// Store manages the signature database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the database at dbPath, creating its parent
// directory if needed, and initializes the schema.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Clear removes all stored files and exports.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM exports; DELETE FROM files;"); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	return nil
}

// Stats describes the store contents.
type Stats struct {
	Files        int64 `json:"files" yaml:"files"`
	Exports      int64 `json:"exports" yaml:"exports"`
	Placeholders int64 `json:"placeholders" yaml:"placeholders"`
}

// Stats returns counts of stored files and exports.
func (s *Store) Stats() (*Stats, error) {
	var stats Stats

	if err := s.db.QueryRow("SELECT COUNT(*) FROM files").Scan(&stats.Files); err != nil {
		return nil, fmt.Errorf("count files: %w", err)
	}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM exports").Scan(&stats.Exports); err != nil {
		return nil, fmt.Errorf("count exports: %w", err)
	}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM exports WHERE placeholder = 1").Scan(&stats.Placeholders); err != nil {
		return nil, fmt.Errorf("count placeholders: %w", err)
	}

	return &stats, nil
}
