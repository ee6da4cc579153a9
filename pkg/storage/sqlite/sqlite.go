// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/leseb/featuregw/pkg/core/journal"
	"github.com/leseb/featuregw/pkg/core/schema"
	"github.com/leseb/featuregw/pkg/provider"

	_ "modernc.org/sqlite"
)

func init() {
	journal.Providers.Register("sqlite", func(ctx context.Context, params provider.Params) (journal.Journal, error) {
		return New(ctx, params.Get("dsn", ":memory:"))
	})
}

// compile-time check
var _ journal.Journal = (*Store)(nil)

// Store is a SQLite-backed implementation of journal.Journal.
type Store struct {
	db *sql.DB
}

// New opens the SQLite database at dsn (a file path or ":memory:").
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// Each connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS dispatches (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			outcome TEXT NOT NULL,
			model TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dispatches_created ON dispatches(created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite create tables: %w", err)
		}
	}
	return nil
}

// Record inserts entry. created_at is stored as Unix nanoseconds.
func (s *Store) Record(ctx context.Context, entry *journal.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dispatches (id, kind, outcome, model, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, string(entry.Kind), entry.Outcome, entry.Model,
		entry.DurationMS, entry.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record entry %s: %w", entry.ID, err)
	}
	return nil
}

// List returns up to limit entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*journal.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, outcome, model, duration_ms, created_at
		 FROM dispatches ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*journal.Entry, 0)
	for rows.Next() {
		var (
			e       journal.Entry
			kind    string
			created int64
		)
		if err := rows.Scan(&e.ID, &kind, &e.Outcome, &e.Model, &e.DurationMS, &created); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = schema.Kind(kind)
		e.CreatedAt = time.Unix(0, created).UTC()
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
