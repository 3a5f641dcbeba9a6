package store

// schemaSQL defines the SQLite schema for the signature database.
// Tables:
//   - files: content hash per scanned file, for incremental scanning
//   - exports: one row per exported function, in source order per file
const schemaSQL = `
CREATE TABLE IF NOT EXISTS files (
    path TEXT PRIMARY KEY,
    hash TEXT NOT NULL,
    scanned_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS exports (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL,
    name TEXT NOT NULL,
    line INTEGER NOT NULL,
    return_type TEXT NOT NULL DEFAULT '',
    params_json TEXT NOT NULL DEFAULT '[]',
    source_text TEXT NOT NULL DEFAULT '',
    sig_hash TEXT NOT NULL,
    placeholder INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_exports_path ON exports(path);
CREATE INDEX IF NOT EXISTS idx_exports_name ON exports(name);
CREATE INDEX IF NOT EXISTS idx_exports_sig_hash ON exports(sig_hash);
`

// initSchema creates the database tables and indexes if they don't exist.
func (s *Store) initSchema() error {
	_, err := s.db.Exec(schemaSQL)
	return err
}
