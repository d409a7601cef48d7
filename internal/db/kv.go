package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("not found")

// KVStore is a flat string key/value table. Session and preferences share it
// under disjoint key prefixes.
type KVStore struct {
	db *DB
}

func NewKVStore(db *DB) *KVStore {
	return &KVStore{db: db}
}

func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying key %q: %w", key, err)
	}
	return value, nil
}

// GetMany returns the stored values for keys; absent keys are left out.
func (s *KVStore) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("starting read transaction: %w", err)
	}
	defer tx.Rollback()

	for _, key := range keys {
		var value string
		err := tx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("querying key %q: %w", key, err)
		}
		out[key] = value
	}

	return out, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	return s.Commit(ctx, map[string]string{key: value}, nil)
}

// Commit writes set and removes del in a single transaction: either every
// change is visible afterwards or none is.
func (s *KVStore) Commit(ctx context.Context, set map[string]string, del []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting kv transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for key, value := range set {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, now,
		)
		if err != nil {
			return fmt.Errorf("writing key %q: %w", key, err)
		}
	}

	for _, key := range del {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return fmt.Errorf("deleting key %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing kv transaction: %w", err)
	}
	return nil
}
