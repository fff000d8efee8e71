package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore keeps documents in a jsonb table keyed by name and logs in an
// append-only table. The upsert is transactional, which gives the same
// crash-safety as the file store's atomic rename.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates the backing tables when missing.
func NewPGStore(ctx context.Context, pool *pgxpool.Pool) (*PGStore, error) {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			key        TEXT PRIMARY KEY,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS log_entries (
			id         BIGSERIAL PRIMARY KEY,
			log        TEXT NOT NULL,
			entry      JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_log_entries_log ON log_entries (log, id);
	`
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("create storage tables: %w", err)
	}

	return &PGStore{pool: pool}, nil
}

// PutJSON upserts the latest snapshot for key.
func (s *PGStore) PutJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	query := `
		INSERT INTO documents (key, doc, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			doc = EXCLUDED.doc,
			updated_at = NOW()
	`
	if _, err := s.pool.Exec(ctx, query, key, data); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}

	return nil
}

// GetJSON decodes the latest snapshot for key into dest.
func (s *PGStore) GetJSON(ctx context.Context, key string, dest interface{}) error {
	var data []byte
	err := s.pool.QueryRow(ctx, "SELECT doc FROM documents WHERE key = $1", key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("query %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}

	return nil
}

// AppendJSON inserts one entry into the named log.
func (s *PGStore) AppendJSON(ctx context.Context, log string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal log entry for %s: %w", log, err)
	}

	query := "INSERT INTO log_entries (log, entry) VALUES ($1, $2)"
	if _, err := s.pool.Exec(ctx, query, log, data); err != nil {
		return fmt.Errorf("append log %s: %w", log, err)
	}

	return nil
}
