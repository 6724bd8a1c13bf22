package manifeststore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"veritas/internal/sealtypes"
)

// postgresSchema is the design-target schema: bit_count(bytea) requires
// PostgreSQL 14+.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS manifests (
    id               UUID PRIMARY KEY,
    seal_id          TEXT NOT NULL UNIQUE,
    perceptual_hash  BYTEA,
    content_hash_hex TEXT NOT NULL,
    seal_bytes       BYTEA NOT NULL,
    media_type       TEXT NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_manifests_seal_id ON manifests(seal_id);
CREATE INDEX IF NOT EXISTS idx_manifests_content_hash ON manifests(content_hash_hex);
CREATE INDEX IF NOT EXISTS idx_manifests_perceptual_hash ON manifests(perceptual_hash);
`

// PostgresStore is the design-target manifest store, using server-side
// bit_count for similarity queries.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres opens a PostgreSQL connection at dsn and applies the schema.
func OpenPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("manifeststore: open database: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("manifeststore: apply schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Store(ctx context.Context, input Input) (Record, error) {
	id := uuid.NewString()

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO manifests (id, seal_id, perceptual_hash, content_hash_hex, seal_bytes, media_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (seal_id) DO UPDATE
		    SET seal_bytes = EXCLUDED.seal_bytes,
		        perceptual_hash = EXCLUDED.perceptual_hash
		RETURNING id, created_at`,
		id, input.SealID, input.PerceptualHash, input.ContentHashHex, input.SealBytes, string(input.MediaType))

	var returnedID string
	var createdAt time.Time
	if err := row.Scan(&returnedID, &createdAt); err != nil {
		return Record{}, fmt.Errorf("manifeststore: upsert manifest: %w", err)
	}

	return Record{
		ID:             returnedID,
		SealID:         input.SealID,
		PerceptualHash: input.PerceptualHash,
		ContentHashHex: input.ContentHashHex,
		SealBytes:      input.SealBytes,
		MediaType:      input.MediaType,
		CreatedAt:      createdAt,
	}, nil
}

func (s *PostgresStore) pgScanRecord(row *sql.Row) (Record, error) {
	var r Record
	var mediaType string

	err := row.Scan(&r.ID, &r.SealID, &r.PerceptualHash, &r.ContentHashHex, &r.SealBytes, &mediaType, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("manifeststore: scan manifest: %w", err)
	}
	r.MediaType = sealtypes.MediaType(mediaType)
	return r, nil
}

func (s *PostgresStore) GetBySealID(ctx context.Context, sealID string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seal_id, perceptual_hash, content_hash_hex, seal_bytes, media_type, created_at
		FROM manifests WHERE seal_id = $1`, sealID)
	return s.pgScanRecord(row)
}

func (s *PostgresStore) GetByContentHash(ctx context.Context, hashHex string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seal_id, perceptual_hash, content_hash_hex, seal_bytes, media_type, created_at
		FROM manifests WHERE content_hash_hex = $1`, hashHex)
	return s.pgScanRecord(row)
}

// FindSimilar delegates the Hamming distance computation to PostgreSQL's
// server-side bit_count over a bytea XOR, per the design-target schema.
func (s *PostgresStore) FindSimilar(ctx context.Context, phash []byte, threshold int, limit int) ([]Similar, error) {
	if err := validateQueryHash(phash); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seal_id, perceptual_hash, content_hash_hex, seal_bytes, media_type, created_at,
		       bit_count(perceptual_hash # $1) AS distance
		FROM manifests
		WHERE perceptual_hash IS NOT NULL
		  AND length(perceptual_hash) = length($1)
		  AND bit_count(perceptual_hash # $1) <= $2
		ORDER BY distance ASC
		LIMIT $3`,
		phash, threshold, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("manifeststore: find similar: %w", err)
	}
	defer rows.Close()

	var matches []Similar
	for rows.Next() {
		var r Record
		var mediaType string
		var distance int

		if err := rows.Scan(&r.ID, &r.SealID, &r.PerceptualHash, &r.ContentHashHex, &r.SealBytes, &mediaType, &r.CreatedAt, &distance); err != nil {
			return nil, fmt.Errorf("manifeststore: scan similar row: %w", err)
		}
		r.MediaType = sealtypes.MediaType(mediaType)
		matches = append(matches, Similar{Record: r, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("manifeststore: iterate similar rows: %w", err)
	}

	return matches, nil
}

func (s *PostgresStore) Delete(ctx context.Context, sealID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM manifests WHERE seal_id = $1`, sealID)
	if err != nil {
		return fmt.Errorf("manifeststore: delete manifest: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("manifeststore: rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM manifests`).Scan(&count); err != nil {
		return 0, fmt.Errorf("manifeststore: count: %w", err)
	}
	return count, nil
}

var _ Store = (*PostgresStore)(nil)
