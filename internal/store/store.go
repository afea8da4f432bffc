package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/flagops/flagscrub/internal/schema"
)

// ErrNotFound is returned when no scan record matches the requested ID.
var ErrNotFound = errors.New("scan not found")

// Store defines the interface for scan archive persistence.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// SaveScan persists a scan record. Saving an ID that already exists
	// replaces the old record (idempotent for retried writes).
	SaveScan(ctx context.Context, rec Record) error

	// GetScan retrieves a single record by ID.
	// Returns ErrNotFound if no record matches.
	GetScan(ctx context.Context, id uuid.UUID) (*Record, error)

	// ListScans retrieves records newest first. limit caps the page size,
	// offset skips past records for pagination.
	ListScans(ctx context.Context, limit, offset int) ([]Record, error)

	// CountScans returns the total number of stored records.
	CountScans(ctx context.Context) (int64, error)

	// Close releases any resources held by the store.
	// After Close is called, the store should not be used.
	Close() error
}

// Record is one archived scan: what came in, which parse tier handled it,
// how the keys partitioned, and the cleaned payload that went out.
//
// Output holds the exact canonical bytes; the fingerprint is only
// reproducible from those, so they are never re-serialized.
type Record struct {
	ID           uuid.UUID       `json:"id"`
	CreatedAt    time.Time       `json:"createdAt"`
	InputHash    string          `json:"inputHash"`
	Mode         string          `json:"mode"`
	InputKeys    int             `json:"inputKeys"`
	KeptCount    int             `json:"keptCount"`
	RemovedCount int             `json:"removedCount"`
	DroppedCount int             `json:"droppedCount"`
	CoercedCount int             `json:"coercedCount"`
	Fingerprint  string          `json:"fingerprint"`
	Output       json.RawMessage `json:"output"`
	Detail       Detail          `json:"detail"`
}

// Detail carries the full partition listings for a record.
type Detail struct {
	RemovedIllegal []string           `json:"removedIllegal"`
	DroppedInvalid []schema.Rejection `json:"droppedInvalid"`
	Coercions      []schema.Coercion  `json:"coercions"`
}

// FileName is the download name for the record's cleaned payload.
func (r *Record) FileName() string {
	return "fflags_cleaned_" + r.Fingerprint + ".json"
}

// HashInput returns the deterministic identity of a raw submission, used to
// spot repeated dumps without retaining the input itself.
func HashInput(raw string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(raw))
}
