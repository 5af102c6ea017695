package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"printq/internal/request"
)

// sqliteBackend satisfies the same whole-snapshot contract as the JSON
// backend: each save replaces the affected collection inside a transaction.
// Row order is preserved through an explicit position column.
type sqliteBackend struct {
	db   *sql.DB
	path string
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS active_requests (
    position INTEGER PRIMARY KEY,
    id       TEXT NOT NULL UNIQUE,
    document TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS archive_requests (
    position INTEGER PRIMARY KEY,
    id       TEXT NOT NULL UNIQUE,
    document TEXT NOT NULL
);`

func newSQLiteBackend(dataDir string) (*sqliteBackend, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %q: %w", dataDir, err)
	}

	dbPath := filepath.Join(dataDir, "requests.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &sqliteBackend{db: db, path: dbPath}, nil
}

func (b *sqliteBackend) Load() (Snapshot, error) {
	active, err := b.loadTable("active_requests")
	if err != nil {
		return Snapshot{}, fmt.Errorf("load active collection: %w", err)
	}
	archive, err := b.loadTable("archive_requests")
	if err != nil {
		return Snapshot{}, fmt.Errorf("load archive collection: %w", err)
	}
	return Snapshot{Active: active, Archive: archive}, nil
}

func (b *sqliteBackend) loadTable(table string) ([]*request.Request, error) {
	rows, err := b.db.Query(`SELECT document FROM ` + table + ` ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*request.Request
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var req request.Request
		if err := json.Unmarshal([]byte(doc), &req); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		requests = append(requests, &req)
	}
	return requests, rows.Err()
}

func (b *sqliteBackend) SaveActive(active []*request.Request) error {
	return b.replaceTable("active_requests", active)
}

func (b *sqliteBackend) SaveArchive(archive []*request.Request) error {
	return b.replaceTable("archive_requests", archive)
}

func (b *sqliteBackend) replaceTable(table string, requests []*request.Request) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	stmt, err := tx.Prepare(`INSERT INTO ` + table + ` (position, id, document) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, req := range requests {
		doc, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("encode request %s: %w", req.ID, err)
		}
		if _, err := stmt.Exec(i, req.ID, string(doc)); err != nil {
			return fmt.Errorf("insert request %s: %w", req.ID, err)
		}
	}
	return tx.Commit()
}

func (b *sqliteBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
