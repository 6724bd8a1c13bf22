package manifeststore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/bits"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"veritas/internal/sealtypes"
)

// schema mirrors the manifests table from the PostgreSQL design target;
// bit_count is emulated in Go since SQLite has no such builtin.
const schema = `
CREATE TABLE IF NOT EXISTS manifests (
    id               TEXT PRIMARY KEY,
    seal_id          TEXT NOT NULL UNIQUE,
    perceptual_hash  BLOB,
    content_hash_hex TEXT NOT NULL,
    seal_bytes       BLOB NOT NULL,
    media_type       TEXT NOT NULL,
    created_at       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_manifests_seal_id ON manifests(seal_id);
CREATE INDEX IF NOT EXISTS idx_manifests_content_hash ON manifests(content_hash_hex);
CREATE INDEX IF NOT EXISTS idx_manifests_perceptual_hash ON manifests(perceptual_hash);
`

// SQLiteStore is the development-fallback manifest store. Similarity scans
// are performed in Go since SQLite lacks server-side bit_count.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the SQLite database at path and applies the
// schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("manifeststore: create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("manifeststore: open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("manifeststore: apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Store(ctx context.Context, input Input) (Record, error) {
	existing, err := s.GetBySealID(ctx, input.SealID)
	if err == nil {
		_, err := s.db.ExecContext(ctx,
			`UPDATE manifests SET seal_bytes = ?, perceptual_hash = ? WHERE seal_id = ?`,
			input.SealBytes, input.PerceptualHash, input.SealID)
		if err != nil {
			return Record{}, fmt.Errorf("manifeststore: update manifest: %w", err)
		}
		existing.SealBytes = input.SealBytes
		existing.PerceptualHash = input.PerceptualHash
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Record{}, err
	}

	id := uuid.NewString()
	createdAt := time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO manifests (id, seal_id, perceptual_hash, content_hash_hex, seal_bytes, media_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, input.SealID, input.PerceptualHash, input.ContentHashHex, input.SealBytes, string(input.MediaType), createdAt.Unix())
	if err != nil {
		return Record{}, fmt.Errorf("manifeststore: insert manifest: %w", err)
	}

	return Record{
		ID:             id,
		SealID:         input.SealID,
		PerceptualHash: input.PerceptualHash,
		ContentHashHex: input.ContentHashHex,
		SealBytes:      input.SealBytes,
		MediaType:      input.MediaType,
		CreatedAt:      createdAt,
	}, nil
}

func scanRecord(row *sql.Row) (Record, error) {
	var r Record
	var mediaType string
	var createdAtUnix int64
	var phash []byte

	err := row.Scan(&r.ID, &r.SealID, &phash, &r.ContentHashHex, &r.SealBytes, &mediaType, &createdAtUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("manifeststore: scan manifest: %w", err)
	}

	r.PerceptualHash = phash
	r.MediaType = sealtypes.MediaType(mediaType)
	r.CreatedAt = time.Unix(createdAtUnix, 0).UTC()
	return r, nil
}

func (s *SQLiteStore) GetBySealID(ctx context.Context, sealID string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, seal_id, perceptual_hash, content_hash_hex, seal_bytes, media_type, created_at
		 FROM manifests WHERE seal_id = ?`, sealID)
	return scanRecord(row)
}

func (s *SQLiteStore) GetByContentHash(ctx context.Context, hashHex string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, seal_id, perceptual_hash, content_hash_hex, seal_bytes, media_type, created_at
		 FROM manifests WHERE content_hash_hex = ?`, hashHex)
	return scanRecord(row)
}

func (s *SQLiteStore) FindSimilar(ctx context.Context, phash []byte, threshold int, limit int) ([]Similar, error) {
	if err := validateQueryHash(phash); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seal_id, perceptual_hash, content_hash_hex, seal_bytes, media_type, created_at
		 FROM manifests WHERE perceptual_hash IS NOT NULL AND length(perceptual_hash) = ?`, len(phash))
	if err != nil {
		return nil, fmt.Errorf("manifeststore: query candidates: %w", err)
	}
	defer rows.Close()

	var matches []Similar
	for rows.Next() {
		var r Record
		var mediaType string
		var createdAtUnix int64

		if err := rows.Scan(&r.ID, &r.SealID, &r.PerceptualHash, &r.ContentHashHex, &r.SealBytes, &mediaType, &createdAtUnix); err != nil {
			return nil, fmt.Errorf("manifeststore: scan candidate: %w", err)
		}
		r.MediaType = sealtypes.MediaType(mediaType)
		r.CreatedAt = time.Unix(createdAtUnix, 0).UTC()

		dist := hammingDistance(r.PerceptualHash, phash)
		if dist <= threshold {
			matches = append(matches, Similar{Record: r, Distance: dist})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("manifeststore: iterate candidates: %w", err)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })

	if cap := clampLimit(limit); len(matches) > cap {
		matches = matches[:cap]
	}
	return matches, nil
}

func hammingDistance(a, b []byte) int {
	dist := 0
	for i := range a {
		dist += bits.OnesCount8(a[i] ^ b[i])
	}
	return dist
}

func (s *SQLiteStore) Delete(ctx context.Context, sealID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM manifests WHERE seal_id = ?`, sealID)
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

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM manifests`).Scan(&count); err != nil {
		return 0, fmt.Errorf("manifeststore: count: %w", err)
	}
	return count, nil
}

var _ Store = (*SQLiteStore)(nil)
