// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists scoring verdicts and finished research runs in a
// SQLite database with a full-text index over accepted sources.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const dbFile = "topic-scout.db"

// timeLayout is fixed-width so stored timestamps compare as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// Store manages the SQLite database. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	dir string
}

// Open opens or creates dir/topic-scout.db and its schema.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Dir returns the directory holding the database.
func (s *Store) Dir() string { return s.dir }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS verdicts (
			key TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			excerpt_hash TEXT NOT NULL,
			verdict TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verdicts_created ON verdicts(created_at)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			status TEXT NOT NULL,
			confidence REAL,
			iterations INTEGER,
			result TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sources (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			url TEXT NOT NULL,
			title TEXT,
			tier INTEGER,
			total_score REAL,
			relevance REAL,
			excerpt TEXT,
			UNIQUE(run_id, url)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sources_run ON sources(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='sources_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE sources_fts USING fts5(title, excerpt, content=sources, content_rowid=rowid)`,
			`CREATE TRIGGER sources_ai AFTER INSERT ON sources BEGIN
				INSERT INTO sources_fts(rowid, title, excerpt) VALUES (new.rowid, new.title, new.excerpt);
			END`,
			`CREATE TRIGGER sources_ad AFTER DELETE ON sources BEGIN
				INSERT INTO sources_fts(sources_fts, rowid, title, excerpt) VALUES('delete', old.rowid, old.title, old.excerpt);
			END`,
			`CREATE TRIGGER sources_au AFTER UPDATE ON sources BEGIN
				INSERT INTO sources_fts(sources_fts, rowid, title, excerpt) VALUES('delete', old.rowid, old.title, old.excerpt);
				INSERT INTO sources_fts(rowid, title, excerpt) VALUES (new.rowid, new.title, new.excerpt);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Stats holds row counts for the cache command.
type Stats struct {
	Verdicts int `json:"verdicts" yaml:"verdicts"`
	Runs     int `json:"runs" yaml:"runs"`
	Sources  int `json:"sources" yaml:"sources"`
}

// Stats counts the stored verdicts, runs, and sources.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT count(*) FROM verdicts), (SELECT count(*) FROM runs), (SELECT count(*) FROM sources)`,
	).Scan(&st.Verdicts, &st.Runs, &st.Sources)
	if err != nil {
		return Stats{}, fmt.Errorf("counting rows: %w", err)
	}
	return st, nil
}
