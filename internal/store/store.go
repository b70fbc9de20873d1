// Package store persists all domain state in SQLite via database/sql.
// The schema mirrors the planning data model: users, goals, tasks and
// their links, calendar events, relationships, daily plans and the
// override log. Timestamps are stored as RFC 3339 UTC text and dates as
// plain YYYY-MM-DD text.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"metaconscious/internal/config"
)

// ErrNotFound is returned when a referenced entity does not exist for the
// given owner.
var ErrNotFound = errors.New("not found")

// Store wraps the SQLite handle. The sql.DB pool is bounded by config;
// acquisition blocks until a connection frees, and busy_timeout bounds how
// long a writer waits on the database lock.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open initializes the database at cfg.Path, creating the file and schema
// on first run.
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime.Std())

	busyMillis := cfg.BusyTimeout.Std().Milliseconds()
	if busyMillis <= 0 {
		busyMillis = 2000
	}
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyMillis),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			logger.Debug("pragma failed", zap.String("pragma", p), zap.Error(err))
		}
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("store initialized", zap.String("path", cfg.Path))
	return s, nil
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const timeFormat = time.RFC3339

func now() string {
	return time.Now().UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeFormat), Valid: true}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func timePtr(n sql.NullString) *time.Time {
	if !n.Valid {
		return nil
	}
	t := parseTime(n.String)
	return &t
}
