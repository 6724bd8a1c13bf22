// Package sealverify checks a seal's signature and, optionally, that a
// payload still matches the content hash the seal was built against.
// Verification never fails on benign malformation: it returns a graded
// result. No function here returns an error; a failure to encode the
// signable payload is reported as MalformedSignature.
package sealverify

import (
	"bytes"

	"golang.org/x/crypto/sha3"

	"veritas/internal/sealcodec"
	"veritas/internal/sealkey"
	"veritas/internal/sealtypes"
)

// SignatureResult is the terminal outcome of verifying a seal's signature.
// No transition retries or recovers; the caller decides what to do with a
// reject.
type SignatureResult int

const (
	Valid SignatureResult = iota
	InvalidPublicKey
	MalformedSignature
	InvalidSignature
	PayloadMismatch
)

func (r SignatureResult) String() string {
	switch r {
	case Valid:
		return "valid"
	case InvalidPublicKey:
		return "invalid_public_key"
	case MalformedSignature:
		return "malformed_signature"
	case InvalidSignature:
		return "invalid_signature"
	case PayloadMismatch:
		return "payload_mismatch"
	default:
		return "unknown"
	}
}

// Accepted reports whether r is the sole accepting terminal state.
func (r SignatureResult) Accepted() bool { return r == Valid }

// ContentResult is the terminal outcome of verifying a payload against a
// seal. Authentic and ContentModified are produced only after a successful
// signature check; SignatureFailed reports that the signature check failed.
type ContentResult int

const (
	Authentic ContentResult = iota
	ContentModified
	SignatureFailed
)

func (r ContentResult) String() string {
	switch r {
	case Authentic:
		return "authentic"
	case ContentModified:
		return "content_modified"
	case SignatureFailed:
		return "signature_failed"
	default:
		return "unknown"
	}
}

// Accepted reports whether r is the sole accepting terminal state.
func (r ContentResult) Accepted() bool { return r == Authentic }

// SignatureReport carries the graded signature-check outcome. It records
// no detail beyond Result, including for a PayloadMismatch.
type SignatureReport struct {
	Result SignatureResult
}

// VerifySignature rebuilds the signable payload from seal, parses the
// embedded public key and signature, opens the signature, and compares the
// opened message against the rebuilt bytes.
func VerifySignature(seal *sealtypes.Seal) SignatureReport {
	rebuilt, err := sealcodec.EncodeSignablePayload(seal)
	if err != nil {
		// An encode failure here means the seal itself is structurally
		// inconsistent, not that it was forged; report it as a malformed
		// signature so callers still receive a graded result.
		return SignatureReport{Result: MalformedSignature}
	}

	pub, err := sealkey.ParsePublicKey(seal.PublicKey)
	if err != nil {
		return SignatureReport{Result: InvalidPublicKey}
	}

	if len(seal.Signature) < sealkey.SignatureSize {
		return SignatureReport{Result: MalformedSignature}
	}

	opened, err := sealkey.Verify(pub, seal.Signature)
	if err != nil {
		return SignatureReport{Result: InvalidSignature}
	}

	if !bytes.Equal(opened, rebuilt) {
		return SignatureReport{Result: PayloadMismatch}
	}

	return SignatureReport{Result: Valid}
}

// ContentReport carries the full content-check outcome.
type ContentReport struct {
	Result          ContentResult
	ExpectedHash    [32]byte
	ActualHash      [32]byte
	SignatureResult SignatureResult
}

// VerifyContent performs signature verification first; on success it
// recomputes SHA3-256 of payload and compares against the seal's recorded
// crypto hash. Anchor presence plays no part in either check.
func VerifyContent(seal *sealtypes.Seal, payload []byte) ContentReport {
	sigReport := VerifySignature(seal)
	if sigReport.Result != Valid {
		return ContentReport{Result: SignatureFailed, SignatureResult: sigReport.Result}
	}

	actual := sha3.Sum256(payload)
	if actual != seal.ContentHash.CryptoHash {
		return ContentReport{
			Result:          ContentModified,
			ExpectedHash:    seal.ContentHash.CryptoHash,
			ActualHash:      actual,
			SignatureResult: Valid,
		}
	}

	return ContentReport{Result: Authentic, SignatureResult: Valid}
}

// IsValid is a boolean facade over VerifySignature for simple callers.
func IsValid(seal *sealtypes.Seal) bool {
	return VerifySignature(seal).Result == Valid
}

// IsAuthentic is a boolean facade over VerifyContent for simple callers.
func IsAuthentic(seal *sealtypes.Seal, payload []byte) bool {
	return VerifyContent(seal, payload).Result == Authentic
}
