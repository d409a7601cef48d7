package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

func TestKVStoreSetGet(t *testing.T) {
	store := NewKVStore(openTestDB(t))
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := store.Set(ctx, "prefs.distance_unit", "mi"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, "prefs.distance_unit", "km"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	got, err := store.Get(ctx, "prefs.distance_unit")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "km" {
		t.Fatalf("Get() = %q, want %q", got, "km")
	}
}

func TestKVStoreCommitSetsAndDeletesTogether(t *testing.T) {
	store := NewKVStore(openTestDB(t))
	ctx := context.Background()

	if err := store.Commit(ctx, map[string]string{"a": "1", "b": "2", "c": "3"}, nil); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if err := store.Commit(ctx, map[string]string{"a": "10"}, []string{"b", "c"}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	got, err := store.GetMany(ctx, "a", "b", "c")
	if err != nil {
		t.Fatalf("GetMany() error = %v", err)
	}
	if len(got) != 1 || got["a"] != "10" {
		t.Fatalf("GetMany() = %v, want map[a:10]", got)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huddle.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := NewKVStore(first).Set(context.Background(), "k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer second.Close()

	got, err := NewKVStore(second).Get(context.Background(), "k")
	if err != nil || got != "v" {
		t.Fatalf("Get() after reopen = %q, %v, want %q", got, err, "v")
	}
}
