package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/rahulptl/synapse-sub001/internal/config"
)

// ErrQuotaExceeded marks a primary-store write rejected for capacity. The
// message text doubles as the marker the quota guard scans for when an error
// has crossed a serialization boundary.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Store is the durable, quota-limited primary store backed by SQLite. It keeps
// the capture client's key-value contract: whole JSON collections live under
// single keys and are rewritten in full on every mutation.
type Store struct {
	db    *sql.DB
	path  string
	quota int64
}

// Open initializes or connects to the primary store database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, quota: cfg.Storage.QuotaBytes}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Quota returns the configured byte budget.
func (s *Store) Quota() int64 { return s.quota }

// Get fetches the requested keys in one query. Missing keys are absent from
// the result map rather than reported as errors.
func (s *Store) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	query := `SELECT key, value FROM kv WHERE key IN (` + makePlaceholders(len(keys)) + `)`
	args := make([]any, len(keys))
	for i, key := range keys {
		args[i] = key
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		result[key] = value
	}
	return result, rows.Err()
}

// Set upserts the provided values atomically, enforcing the byte quota across
// the whole store. On a quota violation nothing is written and the returned
// error wraps ErrQuotaExceeded.
func (s *Store) Set(ctx context.Context, values map[string][]byte) error {
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	var incoming int64
	for key, value := range values {
		keys = append(keys, key)
		incoming += int64(len(value))
	}
	sort.Strings(keys)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT COALESCE(SUM(LENGTH(value)), 0) FROM kv WHERE key NOT IN (` + makePlaceholders(len(keys)) + `)`
	args := make([]any, len(keys))
	for i, key := range keys {
		args[i] = key
	}
	var retained int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&retained); err != nil {
		return fmt.Errorf("measure retained bytes: %w", err)
	}

	if s.quota > 0 && retained+incoming > s.quota {
		return fmt.Errorf("write %d bytes over %d-byte budget: %w", retained+incoming-s.quota, s.quota, ErrQuotaExceeded)
	}

	for _, key := range keys {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO kv (key, value) VALUES (?, ?)
             ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key,
			values[key],
		); err != nil {
			return fmt.Errorf("upsert key %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set: %w", err)
	}
	return nil
}

// Remove deletes the given keys. Unknown keys are ignored.
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query := `DELETE FROM kv WHERE key IN (` + makePlaceholders(len(keys)) + `)`
	args := make([]any, len(keys))
	for i, key := range keys {
		args[i] = key
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("remove keys: %w", err)
	}
	return nil
}

// UsedBytes reports the total size of all stored values.
func (s *Store) UsedBytes(ctx context.Context) (int64, error) {
	var used int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(LENGTH(value)), 0) FROM kv`).Scan(&used); err != nil {
		return 0, fmt.Errorf("measure used bytes: %w", err)
	}
	return used, nil
}

// IsQuotaError reports whether an error represents a primary-store capacity
// failure, either as a wrapped sentinel or by marker text for errors that
// crossed a process or serialization boundary.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "quota") || strings.Contains(text, "capacity exceeded") || strings.Contains(text, "database or disk is full")
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
