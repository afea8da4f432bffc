package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a PostgreSQL implementation of the Store interface.
//
// The output column is TEXT, not JSONB: JSONB normalizes key order and
// whitespace, which would break the fingerprint's tie to the exact
// canonical bytes.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS scans (
	id            UUID PRIMARY KEY,
	created_at    TIMESTAMPTZ NOT NULL,
	input_hash    TEXT NOT NULL,
	mode          TEXT NOT NULL,
	input_keys    INTEGER NOT NULL,
	kept_count    INTEGER NOT NULL,
	removed_count INTEGER NOT NULL,
	dropped_count INTEGER NOT NULL,
	coerced_count INTEGER NOT NULL,
	fingerprint   TEXT NOT NULL,
	output        TEXT NOT NULL,
	detail        JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS scans_created_at_idx ON scans (created_at DESC);
CREATE INDEX IF NOT EXISTS scans_input_hash_idx ON scans (input_hash);
`

// EnsureSchema creates the scans table and indexes if they do not exist.
// Called once at startup; safe to call repeatedly.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure scans schema: %w", err)
	}
	return nil
}

const selectColumns = `id, created_at, input_hash, mode, input_keys, kept_count,
	removed_count, dropped_count, coerced_count, fingerprint, output, detail`

// SaveScan persists a record, replacing any previous record with the same ID.
func (p *PostgresStore) SaveScan(ctx context.Context, rec Record) error {
	detail, err := json.Marshal(rec.Detail)
	if err != nil {
		return fmt.Errorf("encode scan detail: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO scans (id, created_at, input_hash, mode, input_keys, kept_count,
			removed_count, dropped_count, coerced_count, fingerprint, output, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			created_at    = EXCLUDED.created_at,
			input_hash    = EXCLUDED.input_hash,
			mode          = EXCLUDED.mode,
			input_keys    = EXCLUDED.input_keys,
			kept_count    = EXCLUDED.kept_count,
			removed_count = EXCLUDED.removed_count,
			dropped_count = EXCLUDED.dropped_count,
			coerced_count = EXCLUDED.coerced_count,
			fingerprint   = EXCLUDED.fingerprint,
			output        = EXCLUDED.output,
			detail        = EXCLUDED.detail`,
		rec.ID, rec.CreatedAt, rec.InputHash, rec.Mode, rec.InputKeys, rec.KeptCount,
		rec.RemovedCount, rec.DroppedCount, rec.CoercedCount, rec.Fingerprint,
		string(rec.Output), detail,
	)
	return err
}

// GetScan retrieves a single record by ID.
func (p *PostgresStore) GetScan(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM scans WHERE id = $1`, id)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// ListScans retrieves records newest first.
func (p *PostgresStore) ListScans(ctx context.Context, limit, offset int) ([]Record, error) {
	if limit <= 0 || offset < 0 {
		return []Record{}, nil
	}

	rows, err := p.pool.Query(ctx, `
		SELECT `+selectColumns+`
		FROM scans
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// CountScans returns the total number of stored records.
func (p *PostgresStore) CountScans(ctx context.Context) (int64, error) {
	var count int64
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM scans`).Scan(&count)
	return count, err
}

// Close closes the database connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

// scanRecord reads one row in selectColumns order.
func scanRecord(row pgx.Row) (*Record, error) {
	var (
		rec    Record
		output string
		detail []byte
	)
	if err := row.Scan(
		&rec.ID, &rec.CreatedAt, &rec.InputHash, &rec.Mode, &rec.InputKeys, &rec.KeptCount,
		&rec.RemovedCount, &rec.DroppedCount, &rec.CoercedCount, &rec.Fingerprint,
		&output, &detail,
	); err != nil {
		return nil, err
	}

	rec.Output = json.RawMessage(output)
	if err := json.Unmarshal(detail, &rec.Detail); err != nil {
		return nil, fmt.Errorf("decode scan detail: %w", err)
	}
	return &rec, nil
}
