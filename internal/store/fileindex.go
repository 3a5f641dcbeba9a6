package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// FileEntry holds the scan state for a file.
type FileEntry struct {
	Path      string    `json:"path" yaml:"path"`
	Hash      string    `json:"hash" yaml:"hash"`
	ScannedAt time.Time `json:"scanned_at" yaml:"scanned_at"`
}

// FileHash retrieves the content hash recorded for path.
// Returns ErrNotFound if the file has not been scanned.
func (s *Store) FileHash(path string) (string, error) {
	var hash string
	err := s.db.QueryRow("SELECT hash FROM files WHERE path = ?", path).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get file hash %s: %w", path, err)
	}
	return hash, nil
}

// IsFileChanged reports whether newHash differs from the recorded hash.
// Files that were never scanned count as changed.
func (s *Store) IsFileChanged(path, newHash string) (bool, error) {
	oldHash, err := s.FileHash(path)
	if errors.Is(err, ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return oldHash != newHash, nil
}

// Files returns every scanned file ordered by path.
func (s *Store) Files() ([]FileEntry, error) {
	rows, err := s.db.Query("SELECT path, hash, scanned_at FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var entries []FileEntry
	for rows.Next() {
		var entry FileEntry
		var scannedAt string
		if err := rows.Scan(&entry.Path, &entry.Hash, &scannedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		entry.ScannedAt, _ = time.Parse(time.RFC3339, scannedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// DeleteFile removes a file and its exports.
func (s *Store) DeleteFile(path string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM exports WHERE path = ?", path); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete exports %s: %w", path, err)
	}
	if _, err := tx.Exec("DELETE FROM files WHERE path = ?", path); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete file %s: %w", path, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// PruneMissing removes files, and their exports, that are not in valid.
// Only files at or beneath dir are considered; an empty dir covers the
// whole store. It returns the number of files removed.
func (s *Store) PruneMissing(dir string, valid map[string]bool) (int, error) {
	entries, err := s.Files()
	if err != nil {
		return 0, err
	}

	dir = strings.Trim(dir, "/")
	var pruned int
	for _, entry := range entries {
		if !underDir(entry.Path, dir) || valid[entry.Path] {
			continue
		}
		if err := s.DeleteFile(entry.Path); err != nil {
			return pruned, err
		}
		pruned++
	}

	return pruned, nil
}

// underDir reports whether the slash path p is dir or lies beneath it.
func underDir(p, dir string) bool {
	if dir == "" || dir == "." || p == dir {
		return true
	}
	return strings.HasPrefix(p, dir+"/")
}
