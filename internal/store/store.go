// Package store is the cluster's durable backing store: a single-table
// SQLite database standing in for the distributed backend the spec
// permits substituting, fronted with bounded retry for transient
// "database is locked" conditions.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/rs/zerolog"

	cerrors "github.com/jiisanda/pandapouch/internal/errors"
	"github.com/jiisanda/pandapouch/internal/retry"
)

// Store manages the SQLite database backing the cluster's cache table.
// *sql.DB pools and synchronizes its own connections, so Store needs no
// lock of its own around Get/Put/Close.
type Store struct {
	db       *sql.DB
	logger   zerolog.Logger
	retryCfg retry.Config
}

// New opens (or creates) the SQLite database, sets its PRAGMAs, and
// ensures the cache table schema exists.
func New(dbPath string, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		db:       db,
		logger:   logger,
		retryCfg: retry.DefaultConfig(),
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if err := s.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema setup failed: %w", err)
	}

	logger.Info().Msg("store initialized successfully")
	return s, nil
}

// EnsureSchema idempotently creates the cache table.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const stmt = `CREATE TABLE IF NOT EXISTS cache (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	_, err := s.db.ExecContext(ctx, stmt)
	if err != nil {
		return cerrors.BackendError(err)
	}
	return nil
}

// Get reads a value by key. Returns (value, true, nil) on a hit, (_, false,
// nil) on a miss, or a classified error on failure.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.withRetry(ctx, func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `SELECT value FROM cache WHERE key = ?`, key)
		return row.Scan(&value)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Put upserts key/value.
func (s *Store) Put(ctx context.Context, key, value string) error {
	return s.withRetry(ctx, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO cache (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value)
		return err
	})
}

// withRetry wraps fn with bounded backoff, reserved for transient SQLite
// busy errors — sql.ErrNoRows is passed through untouched so a genuine
// miss returns immediately without being classified as a backend error.
func (s *Store) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, s.retryCfg, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil || errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return cerrors.BackendError(err)
	})
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying database connection (for testing).
func (s *Store) DB() *sql.DB {
	return s.db
}
