package cache

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopsmart/backend/internal/domain"
	_ "modernc.org/sqlite"
)

const entriesTable = "entries"

// SQLiteStore persists entries in a single sqlite table so cached analyses
// survive restarts. Entries never expire.
type SQLiteStore struct {
	db       *sql.DB
	notifier *notifier
}

var _ domain.KeyValueStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path and migrates it
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite allows one writer; a single connection also keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, notifier: newNotifier()}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS entries (
    name TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Get returns the entries for the keys that are present
func (s *SQLiteStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	query, args, err := sq.Select("name", "value").
		From(entriesTable).
		Where(sq.Eq{"name": keys}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query entries: %v", domain.ErrCacheUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var value []byte
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		result[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

// Set upserts every given entry in one transaction and notifies subscribers
func (s *SQLiteStore) Set(ctx context.Context, entries map[string][]byte) error {
	for key, value := range entries {
		if !json.Valid(value) {
			return fmt.Errorf("value for %q is not valid JSON", key)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrCacheUnavailable, err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	changes := make([]domain.StoreChange, 0, len(entries))

	for key, value := range entries {
		old, err := s.lookup(ctx, tx, key)
		if err != nil {
			return err
		}

		query, args, err := sq.Insert(entriesTable).
			Columns("name", "value", "updated_at").
			Values(key, value, now).
			Suffix("ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("build upsert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert %q: %w", key, err)
		}

		if old != nil && bytes.Equal(old, value) {
			continue
		}
		changes = append(changes, domain.StoreChange{Key: key, Old: old, New: cloneBytes(value)})
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	for _, change := range changes {
		s.notifier.publish(change)
	}
	return nil
}

// Delete removes an entry
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrCacheUnavailable, err)
	}
	defer tx.Rollback()

	old, err := s.lookup(ctx, tx, key)
	if err != nil {
		return err
	}

	query, args, err := sq.Delete(entriesTable).Where(sq.Eq{"name": key}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if old != nil {
		s.notifier.publish(domain.StoreChange{Key: key, Old: old})
	}
	return nil
}

// Subscribe returns a feed of changes to key
func (s *SQLiteStore) Subscribe(key string) (<-chan domain.StoreChange, func()) {
	return s.notifier.subscribe(key)
}

// Close ends every subscription and closes the database
func (s *SQLiteStore) Close() error {
	s.notifier.closeAll()
	return s.db.Close()
}

func (s *SQLiteStore) lookup(ctx context.Context, tx *sql.Tx, key string) ([]byte, error) {
	query, args, err := sq.Select("value").From(entriesTable).Where(sq.Eq{"name": key}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var value []byte
	err = tx.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", key, err)
	}
	return value, nil
}
