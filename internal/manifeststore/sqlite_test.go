package manifeststore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"veritas/internal/sealtypes"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifests.db")
	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreAndGetBySealID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec, err := store.Store(ctx, Input{
		SealID:         "seal-1",
		PerceptualHash: []byte{0x01, 0x02},
		ContentHashHex: "abcd",
		SealBytes:      []byte("seal bytes"),
		MediaType:      sealtypes.MediaTypeImage,
	})
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if rec.ID == "" {
		t.Error("expected a generated record ID")
	}

	got, err := store.GetBySealID(ctx, "seal-1")
	if err != nil {
		t.Fatalf("GetBySealID failed: %v", err)
	}
	if got.ContentHashHex != "abcd" {
		t.Errorf("expected content hash abcd, got %s", got.ContentHashHex)
	}
}

func TestStoreUpsertOverwritesBytesAndHashOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Store(ctx, Input{
		SealID:         "seal-1",
		PerceptualHash: []byte{0x01},
		ContentHashHex: "original",
		SealBytes:      []byte("v1"),
		MediaType:      sealtypes.MediaTypeImage,
	})
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	_, err = store.Store(ctx, Input{
		SealID:         "seal-1",
		PerceptualHash: []byte{0x02},
		ContentHashHex: "replaced",
		SealBytes:      []byte("v2"),
		MediaType:      sealtypes.MediaTypeVideo,
	})
	if err != nil {
		t.Fatalf("Store (upsert) failed: %v", err)
	}

	got, err := store.GetBySealID(ctx, "seal-1")
	if err != nil {
		t.Fatalf("GetBySealID failed: %v", err)
	}
	if string(got.SealBytes) != "v2" {
		t.Errorf("expected seal_bytes overwritten to v2, got %s", got.SealBytes)
	}
	if got.ContentHashHex != "original" {
		t.Errorf("expected content_hash_hex to remain original, got %s", got.ContentHashHex)
	}
}

func TestGetBySealIDNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetBySealID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindSimilarOrdersByDistance(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	query := []byte{0x00, 0x00}
	cases := []struct {
		sealID string
		phash  []byte
	}{
		{"close", []byte{0x00, 0x01}},
		{"far", []byte{0xFF, 0xFF}},
		{"exact", []byte{0x00, 0x00}},
		{"wrong-size", []byte{0x00, 0x00, 0x00}},
	}
	for _, c := range cases {
		_, err := store.Store(ctx, Input{
			SealID:         c.sealID,
			PerceptualHash: c.phash,
			ContentHashHex: c.sealID,
			SealBytes:      []byte("x"),
			MediaType:      sealtypes.MediaTypeImage,
		})
		if err != nil {
			t.Fatalf("Store failed: %v", err)
		}
	}

	results, err := store.FindSimilar(ctx, query, 4, 10)
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 matches (excluding far and wrong-size), got %d", len(results))
	}
	if results[0].Record.SealID != "exact" {
		t.Errorf("expected exact match first, got %s", results[0].Record.SealID)
	}
	if results[0].Distance != 0 {
		t.Errorf("expected distance 0 for exact match, got %d", results[0].Distance)
	}
}

func TestFindSimilarRejectsBadQueryLength(t *testing.T) {
	store := newTestStore(t)
	_, err := store.FindSimilar(context.Background(), make([]byte, 9), 4, 10)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDeleteAndCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Store(ctx, Input{SealID: "seal-1", ContentHashHex: "h", SealBytes: []byte("x"), MediaType: sealtypes.MediaTypeAudio})
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	if err := store.Delete(ctx, "seal-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "seal-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}
