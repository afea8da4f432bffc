package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/flagops/flagscrub/internal/schema"
)

func testRecord(n int) Record {
	return Record{
		ID:           uuid.New(),
		CreatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Minute),
		InputHash:    HashInput(fmt.Sprintf("input-%d", n)),
		Mode:         "strict",
		InputKeys:    3,
		KeptCount:    1,
		RemovedCount: 1,
		DroppedCount: 1,
		CoercedCount: 0,
		Fingerprint:  fmt.Sprintf("%08d", n),
		Output:       json.RawMessage("{\n  \"DFFlagFoo\": true\n}"),
		Detail: Detail{
			RemovedIllegal: []string{"DFIntHumanoidSpeed"},
			DroppedInvalid: []schema.Rejection{{Key: "FIntBad", Reason: schema.ReasonBadInt}},
			Coercions:      []schema.Coercion{},
		},
	}
}

func TestMemoryStore_SaveAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

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
	if got.Fingerprint != rec.Fingerprint {
		t.Errorf("Expected fingerprint %s, got %s", rec.Fingerprint, got.Fingerprint)
	}
	if string(got.Output) != string(rec.Output) {
		t.Errorf("Output bytes changed: %q vs %q", got.Output, rec.Output)
	}
	if len(got.Detail.RemovedIllegal) != 1 || got.Detail.RemovedIllegal[0] != "DFIntHumanoidSpeed" {
		t.Errorf("Detail.RemovedIllegal = %v", got.Detail.RemovedIllegal)
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.GetScan(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_SaveIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec := testRecord(1)
	if err := store.SaveScan(ctx, rec); err != nil {
		t.Fatalf("SaveScan failed: %v", err)
	}
	rec.Fingerprint = "updated00"
	if err := store.SaveScan(ctx, rec); err != nil {
		t.Fatalf("SaveScan retry failed: %v", err)
	}

	count, err := store.CountScans(ctx)
	if err != nil {
		t.Fatalf("CountScans failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 record after duplicate save, got %d", count)
	}

	got, err := store.GetScan(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetScan failed: %v", err)
	}
	if got.Fingerprint != "updated00" {
		t.Errorf("Expected replaced fingerprint, got %s", got.Fingerprint)
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		rec := testRecord(i)
		ids = append(ids, rec.ID)
		if err := store.SaveScan(ctx, rec); err != nil {
			t.Fatalf("SaveScan failed: %v", err)
		}
	}

	page, err := store.ListScans(ctx, 3, 0)
	if err != nil {
		t.Fatalf("ListScans failed: %v", err)
	}
	if len(page) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(page))
	}
	for i, want := range []uuid.UUID{ids[4], ids[3], ids[2]} {
		if page[i].ID != want {
			t.Errorf("page[%d].ID = %s, want %s", i, page[i].ID, want)
		}
	}

	rest, err := store.ListScans(ctx, 10, 3)
	if err != nil {
		t.Fatalf("ListScans failed: %v", err)
	}
	if len(rest) != 2 {
		t.Fatalf("Expected 2 records after offset, got %d", len(rest))
	}
	if rest[0].ID != ids[1] || rest[1].ID != ids[0] {
		t.Errorf("offset page out of order: %v", []uuid.UUID{rest[0].ID, rest[1].ID})
	}
}

func TestMemoryStore_ListEdgeCases(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.SaveScan(ctx, testRecord(1)); err != nil {
		t.Fatalf("SaveScan failed: %v", err)
	}

	tests := []struct {
		name   string
		limit  int
		offset int
		want   int
	}{
		{"zero limit", 0, 0, 0},
		{"negative limit", -1, 0, 0},
		{"negative offset", 5, -1, 0},
		{"offset past end", 5, 10, 0},
		{"limit past end", 10, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := store.ListScans(ctx, tt.limit, tt.offset)
			if err != nil {
				t.Fatalf("ListScans failed: %v", err)
			}
			if len(page) != tt.want {
				t.Errorf("Expected %d records, got %d", tt.want, len(page))
			}
		})
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				_ = store.SaveScan(ctx, testRecord(n*50+j))
				_, _ = store.ListScans(ctx, 10, 0)
				_, _ = store.CountScans(ctx)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	count, err := store.CountScans(ctx)
	if err != nil {
		t.Fatalf("CountScans failed: %v", err)
	}
	if count != 400 {
		t.Errorf("Expected 400 records, got %d", count)
	}
}

func TestHashInput(t *testing.T) {
	first := HashInput(`{"DFFlagFoo": true}`)
	if len(first) != 16 {
		t.Errorf("Expected 16 hex digits, got %q", first)
	}
	if again := HashInput(`{"DFFlagFoo": true}`); again != first {
		t.Errorf("Hash not stable: %q vs %q", again, first)
	}
	if other := HashInput(`{"DFFlagFoo": false}`); other == first {
		t.Errorf("Distinct inputs share hash %q", first)
	}
}
