package store

import (
	"context"
	"testing"
)

func TestNewStore_Memory(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, "memory", "")
	if err != nil {
		t.Fatalf("NewStore('memory') failed: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}

	rec := testRecord(1)
	if err := store.SaveScan(ctx, rec); err != nil {
		t.Fatalf("SaveScan failed: %v", err)
	}
	got, err := store.GetScan(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetScan failed: %v", err)
	}
	if got.ID != rec.ID {
		t.Errorf("Expected ID %s, got %s", rec.ID, got.ID)
	}

	store.Close()
}

func TestNewStore_UnsupportedType(t *testing.T) {
	_, err := NewStore(context.Background(), "redis", "")
	if err == nil {
		t.Fatal("Expected error for unsupported store type")
	}
}

func TestNewStore_PostgresBadDSN(t *testing.T) {
	// A DSN that fails to parse is rejected before any connection attempt.
	_, err := NewStore(context.Background(), "postgres", "not a dsn ://")
	if err == nil {
		t.Fatal("Expected error for malformed DSN")
	}
}
