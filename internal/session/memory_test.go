package session

import (
	"context"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if store.IsLoggedIn() {
		t.Fatal("IsLoggedIn() = true for a new store")
	}
	if err := store.Save(ctx, alice); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if store.AccessToken() != "access-1" || store.RefreshToken() != "refresh-1" {
		t.Fatalf("tokens = %q %q", store.AccessToken(), store.RefreshToken())
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if store.IsLoggedIn() {
		t.Fatal("IsLoggedIn() = true after Clear()")
	}
}
