package store

import (
	"context"
	"fmt"

	"github.com/flagops/flagscrub/internal/db"
)

// NewStore creates a new store based on the given store type.
// Supported types: "memory", "postgres"
//
// For postgres, the scans schema is ensured before the store is returned,
// so a misconfigured database fails at startup rather than on first write.
func NewStore(ctx context.Context, storeType, dbDSN string) (Store, error) {
	switch storeType {
	case "memory":
		return NewMemoryStore(), nil
	case "postgres":
		pool, err := db.Connect(ctx, dbDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		pg := NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
