// Package entropy implements the quantum-entropy sources bound into a seal:
// a deterministic mock for tests, and cloud HTTP providers sharing a common
// retrying, TLS-pinned driver.
package entropy

import (
	"context"

	"golang.org/x/crypto/sha3"

	"veritas/internal/sealtypes"
)

// Source is a quantum-entropy provider. GetEntropy may suspend for network
// I/O; SourceID identifies provenance for the seal that embeds it.
type Source interface {
	GetEntropy(ctx context.Context) ([32]byte, error)
	SourceID() sealtypes.QRNGSource
}

// mockSeedSuffix is appended to the little-endian seed before hashing, per
// the deterministic mock construction.
const mockSeedSuffix = "veritas-mock-entropy"

// MockSource is a deterministic, never-suspending source intended only for
// tests. Policy-gated callers must reject it unless explicitly opted in
// (see Config.AllowMockEntropy).
type MockSource struct {
	Seed uint64
}

// NewMockSource builds a MockSource with the given seed.
func NewMockSource(seed uint64) *MockSource {
	return &MockSource{Seed: seed}
}

// GetEntropy never fails and never suspends.
func (m *MockSource) GetEntropy(_ context.Context) ([32]byte, error) {
	seedBytes := make([]byte, 8)
	for i := 0; i < 8; i++ {
		seedBytes[i] = byte(m.Seed >> (8 * i))
	}

	h := sha3.New256()
	h.Write(seedBytes)
	h.Write([]byte(mockSeedSuffix))

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// SourceID always reports Mock.
func (m *MockSource) SourceID() sealtypes.QRNGSource {
	return sealtypes.QRNGSource{Kind: sealtypes.SourceMock}
}

// IsDegenerate runs the weak stuck-source check described by the spec: all
// zero, all identical, or the first two bytes repeating exactly throughout.
// It is intentionally weaker than a full statistical test suite so it never
// false-positives on genuine randomness.
func IsDegenerate(b [32]byte) bool {
	allZero := true
	allIdentical := true
	firstTwoRepeat := true

	for i, v := range b {
		if v != 0 {
			allZero = false
		}
		if v != b[0] {
			allIdentical = false
		}
		if i >= 2 && b[i] != b[i%2] {
			firstTwoRepeat = false
		}
	}

	return allZero || allIdentical || firstTwoRepeat
}
