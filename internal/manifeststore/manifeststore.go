// Package manifeststore persists manifest records — the seal bytes plus
// indexed lookup fields — and serves similarity queries over perceptual
// hashes. Two backends are provided: PostgreSQL (the design target, with
// server-side bit_count) and SQLite (a development fallback that scans
// candidates in Go).
package manifeststore

import (
	"context"
	"errors"
	"time"

	"veritas/internal/sealtypes"
)

// ErrNotFound is returned when a lookup finds no matching record.
var ErrNotFound = errors.New("manifeststore: record not found")

// ErrInvalidInput is returned when a query hash falls outside 1-8 bytes.
var ErrInvalidInput = errors.New("manifeststore: query hash must be 1-8 bytes")

// MaxSimilarityLimit caps find_similar result counts regardless of the
// caller-requested limit.
const MaxSimilarityLimit = 100

// Record is a manifest row: the seal bytes plus the fields the store
// indexes for lookup.
type Record struct {
	ID              string
	SealID          string
	PerceptualHash  []byte
	ContentHashHex  string
	SealBytes       []byte
	MediaType       sealtypes.MediaType
	CreatedAt       time.Time
}

// Similar pairs a matching Record with its Hamming distance from the query
// hash.
type Similar struct {
	Record   Record
	Distance int
}

// Input supplies the fields needed to store or upsert a manifest record.
type Input struct {
	SealID         string
	PerceptualHash []byte
	ContentHashHex string
	SealBytes      []byte
	MediaType      sealtypes.MediaType
}

// Store is the manifest persistence contract. Implementations (sqlite,
// postgres) must make every mutation a single-row atomic operation; no
// multi-row transaction is required by this contract.
type Store interface {
	// Store upserts by SealID; on conflict, overwrites SealBytes and
	// PerceptualHash only.
	Store(ctx context.Context, input Input) (Record, error)

	GetBySealID(ctx context.Context, sealID string) (Record, error)
	GetByContentHash(ctx context.Context, hashHex string) (Record, error)

	// FindSimilar returns rows with a non-null perceptual hash of the same
	// byte length as phash, ordered by ascending Hamming distance, capped
	// at min(limit, MaxSimilarityLimit).
	FindSimilar(ctx context.Context, phash []byte, threshold int, limit int) ([]Similar, error)

	Delete(ctx context.Context, sealID string) error
	Count(ctx context.Context) (int64, error)

	Close() error
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxSimilarityLimit {
		return MaxSimilarityLimit
	}
	return limit
}

func validateQueryHash(phash []byte) error {
	if len(phash) < 1 || len(phash) > 8 {
		return ErrInvalidInput
	}
	return nil
}
