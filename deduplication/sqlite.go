package deduplication

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const recordsSchema = `
CREATE TABLE IF NOT EXISTS records (
	namespace  TEXT NOT NULL,
	hash       TEXT NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (namespace, hash)
);
CREATE INDEX IF NOT EXISTS idx_records_created ON records(created_at);
`

// SQLiteDB holds all record namespaces in one database file.
type SQLiteDB struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the records database at path.
func OpenSQLite(path string) (*SQLiteDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening records db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(recordsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating records schema: %w", err)
	}
	return &SQLiteDB{db: db, now: time.Now}, nil
}

func (d *SQLiteDB) Close() error { return d.db.Close() }

// Namespace returns a Store scoped to one record kind.
func (d *SQLiteDB) Namespace(ns string) Store {
	return &sqliteStore{parent: d, ns: ns}
}

type sqliteStore struct {
	parent *SQLiteDB
	ns     string
}

func (s *sqliteStore) Contains(ctx context.Context, hash string) (bool, error) {
	_, ok, err := s.Get(ctx, hash)
	return ok, err
}

func (s *sqliteStore) Get(ctx context.Context, hash string) (Entry, bool, error) {
	var raw string
	err := s.parent.db.QueryRowContext(ctx,
		`SELECT metadata FROM records WHERE namespace = ? AND hash = ?`, s.ns, hash).Scan(&raw)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("querying record: %w", err)
	}
	return decodeEntry(hash, raw), true, nil
}

func (s *sqliteStore) Add(ctx context.Context, hash string, meta map[string]any) (bool, error) {
	now := s.parent.now()
	meta = withTimestamp(meta, now)
	b, err := json.Marshal(meta)
	if err != nil {
		return false, fmt.Errorf("encoding record: %w", err)
	}
	created := now.UTC()
	if ts, ok := (Entry{Metadata: meta}).Timestamp(); ok {
		created = ts
	}

	res, err := s.parent.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO records (namespace, hash, metadata, created_at) VALUES (?, ?, ?, ?)`,
		s.ns, hash, string(b), created)
	if err != nil {
		return false, fmt.Errorf("inserting record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *sqliteStore) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := s.parent.db.QueryContext(ctx,
		`SELECT hash, metadata FROM records WHERE namespace = ? ORDER BY created_at, hash`, s.ns)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var hash, raw string
		if err := rows.Scan(&hash, &raw); err != nil {
			return nil, err
		}
		out = append(out, decodeEntry(hash, raw))
	}
	return out, rows.Err()
}

func (s *sqliteStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.parent.db.ExecContext(ctx,
		`DELETE FROM records WHERE namespace = ? AND created_at < ?`, s.ns, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning records: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Close is a no-op; the shared database is closed through SQLiteDB.
func (s *sqliteStore) Close() error { return nil }

func decodeEntry(hash, raw string) Entry {
	e := Entry{Hash: hash}
	var meta map[string]any
	if json.Unmarshal([]byte(raw), &meta) == nil && len(meta) > 0 {
		e.Metadata = meta
	}
	return e
}
