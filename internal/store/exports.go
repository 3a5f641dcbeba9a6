package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hargabyte/tsig/internal/extract"
)

// Record is an exported function as stored, tagged with its file and
// signature hash.
type Record struct {
	Path                     string `json:"path" yaml:"path"`
	extract.ExportedFunction `yaml:",inline"`
	SigHash                  string `json:"sig_hash" yaml:"sig_hash"`
}

// ReplaceFile records hash for path and replaces every stored export of the
// file with fns, in one transaction.
func (s *Store) ReplaceFile(path, hash string, fns []extract.ExportedFunction) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM exports WHERE path = ?", path); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete exports %s: %w", path, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO exports (path, name, line, return_type, params_json, source_text, sig_hash, placeholder)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, fn := range fns {
		params := fn.Parameters
		if params == nil {
			params = []extract.Parameter{}
		}
		paramsJSON, err := json.Marshal(params)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encode parameters of %s: %w", fn.Name, err)
		}

		placeholder := 0
		if fn.IsPlaceholder() {
			placeholder = 1
		}

		_, err = stmt.Exec(path, fn.Name, fn.LineNumber, fn.ReturnType, string(paramsJSON),
			fn.SourceText, extract.SignatureHash(fn), placeholder)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("save export %s in %s: %w", fn.Name, path, err)
		}
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO files (path, hash, scanned_at)
		VALUES (?, ?, ?)`,
		path, hash, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("set file scanned %s: %w", path, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const selectRecords = `
	SELECT path, name, line, return_type, params_json, source_text, sig_hash
	FROM exports`

// Exports returns the stored exports of path in source order.
func (s *Store) Exports(path string) ([]Record, error) {
	rows, err := s.db.Query(selectRecords+" WHERE path = ? ORDER BY line, id", path)
	if err != nil {
		return nil, fmt.Errorf("query exports %s: %w", path, err)
	}
	return scanRecords(rows)
}

// FindByName returns exports whose name matches pattern. `*` matches any
// run of characters and `?` a single character; matching is
// case-insensitive for ASCII. Results are ordered by path and line.
func (s *Store) FindByName(pattern string) ([]Record, error) {
	rows, err := s.db.Query(selectRecords+` WHERE name LIKE ? ESCAPE '\' ORDER BY path, line, id`,
		likePattern(pattern))
	if err != nil {
		return nil, fmt.Errorf("query exports by name: %w", err)
	}
	return scanRecords(rows)
}

// FindBySigHash returns exports sharing the given signature hash.
func (s *Store) FindBySigHash(hash string) ([]Record, error) {
	rows, err := s.db.Query(selectRecords+" WHERE sig_hash = ? ORDER BY path, line, id", hash)
	if err != nil {
		return nil, fmt.Errorf("query exports by hash: %w", err)
	}
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		var paramsJSON string
		err := rows.Scan(&r.Path, &r.Name, &r.LineNumber, &r.ReturnType, &paramsJSON,
			&r.SourceText, &r.SigHash)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(paramsJSON), &r.Parameters); err != nil {
			return nil, fmt.Errorf("decode parameters of %s: %w", r.Name, err)
		}
		if r.Parameters == nil {
			r.Parameters = []extract.Parameter{}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}

// likePattern converts a glob-style name pattern into a LIKE pattern,
// escaping LIKE's own wildcards.
func likePattern(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		case '%', '_', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
