package c2paseal

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	"veritas/internal/sealtypes"
)

// AnchorHash reproduces the external anchor-writing CLI's seal-hash recipe:
// SHA3-256 of content_hash.crypto_hash concatenated with at most the first
// 32 bytes of the signature, truncated to its first 16 bytes and hex
// encoded. Both the 32-byte signature cap and the 16-byte digest truncation
// are undocumented upstream; they are preserved verbatim for compatibility
// with seals already anchored by that tool, not because either truncation
// is understood to be necessary.
func AnchorHash(seal *sealtypes.Seal) string {
	n := len(seal.Signature)
	if n > 32 {
		n = 32
	}

	h := sha3.New256()
	h.Write(seal.ContentHash.CryptoHash[:])
	h.Write(seal.Signature[:n])

	return hex.EncodeToString(h.Sum(nil)[:16])
}
