package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
  resource      TEXT NOT NULL,
  owner_id      TEXT NOT NULL,
  id            TEXT NOT NULL,
  last_modified INTEGER NOT NULL,
  fields        TEXT NOT NULL,
  PRIMARY KEY (resource, owner_id, id)
);
CREATE INDEX IF NOT EXISTS records_partition ON records (resource, owner_id);
`

// SQLiteStore persists records in a SQLite file, one JSON document per row
// keyed by (resource, owner_id, id). A local mutex serializes
// read-modify-write sequences.
type SQLiteStore struct {
	sqlDB   *sql.DB
	stamper *Timestamper
	mu      sync.Mutex
}

// OpenSQLiteStore opens (creating if needed) a SQLite store at path.
func OpenSQLiteStore(path string, stamper *Timestamper) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB, stamper: stamper}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Create stores a new record under a generated id.
func (s *SQLiteStore) Create(ctx context.Context, resource, ownerID string, payload Record) (Record, error) {
	rec := newRecord(payload, ownerID, newRecordID(), s.stamper.Now())
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO records (resource, owner_id, id, last_modified, fields)
		 VALUES (?, ?, ?, ?, ?)`,
		resource, ownerID, rec.ID(), rec.LastModified(), string(data))
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	return rec, nil
}

// Get returns the record if it exists for this owner.
func (s *SQLiteStore) Get(ctx context.Context, resource, ownerID, id string) (Record, error) {
	var fields string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT fields FROM records WHERE resource = ? AND owner_id = ? AND id = ?`,
		resource, ownerID, id).Scan(&fields)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select record: %w", err)
	}
	return decodeRecord([]byte(fields))
}

// Update merges or replaces the record's fields and re-stamps it.
func (s *SQLiteStore) Update(ctx context.Context, resource, ownerID, id string, payload Record, mode UpdateMode) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.Get(ctx, resource, ownerID, id)
	if err != nil {
		return nil, err
	}
	next := applyUpdate(existing, payload, mode, s.stamper.Now())
	data, err := json.Marshal(next)
	if err != nil {
		return nil, err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE records SET last_modified = ?, fields = ?
		 WHERE resource = ? AND owner_id = ? AND id = ?`,
		next.LastModified(), string(data), resource, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return next, nil
}

// Delete removes the record and returns its final state.
func (s *SQLiteStore) Delete(ctx context.Context, resource, ownerID, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.Get(ctx, resource, ownerID, id)
	if err != nil {
		return nil, err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`DELETE FROM records WHERE resource = ? AND owner_id = ? AND id = ?`,
		resource, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("delete record: %w", err)
	}
	return rec, nil
}

// List returns the owner's records matching filters, ordered by id.
func (s *SQLiteStore) List(ctx context.Context, resource, ownerID string, filters map[string]any) ([]Record, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT fields FROM records WHERE resource = ? AND owner_id = ? ORDER BY id`,
		resource, ownerID)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	defer rows.Close()
	out := []Record{}
	for rows.Next() {
		var fields string
		if err := rows.Scan(&fields); err != nil {
			return nil, err
		}
		rec, err := decodeRecord([]byte(fields))
		if err != nil {
			return nil, err
		}
		if matchFilters(rec, filters) {
			out = append(out, rec)
		}
	}
	return out, rows.Err()
}
