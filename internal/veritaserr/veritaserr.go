// Package veritaserr defines the error taxonomy shared by every seal
// component. Verification outcomes are graded values, not errors (see
// internal/sealverify); these types cover infrastructure and validation
// failures only.
package veritaserr

import "fmt"

// QrngError reports an entropy-layer failure: retries exhausted,
// degeneracy check failed, or certificate pin mismatch.
type QrngError struct {
	Message string
	Cause   error
}

func (e *QrngError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("qrng: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("qrng: %s", e.Message)
}

func (e *QrngError) Unwrap() error { return e.Cause }

// SignatureError reports a signer/verifier infrastructure failure — not a
// graded verification reject.
type SignatureError struct {
	Message string
	Cause   error
}

func (e *SignatureError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("signature: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("signature: %s", e.Message)
}

func (e *SignatureError) Unwrap() error { return e.Cause }

// VerificationFailed is a summary wrapper used at API boundaries to report
// that a verification pipeline could not complete (not a tamper finding).
type VerificationFailed struct {
	Message string
	Cause   error
}

func (e *VerificationFailed) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("verification failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("verification failed: %s", e.Message)
}

func (e *VerificationFailed) Unwrap() error { return e.Cause }

// SerializationError reports an encoder/decoder failure.
type SerializationError struct {
	Message string
	Cause   error
}

func (e *SerializationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("serialization: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("serialization: %s", e.Message)
}

func (e *SerializationError) Unwrap() error { return e.Cause }

// InvalidSeal reports a violated structural field constraint.
type InvalidSeal struct {
	Reason string
}

func (e *InvalidSeal) Error() string {
	return fmt.Sprintf("invalid seal: %s", e.Reason)
}

// EntropyTimestampMismatch reports a drift-bound breach between capture and
// entropy timestamps.
type EntropyTimestampMismatch struct {
	EntropyTimestampMs uint64
	CaptureTimestampMs uint64
	DriftMs            int64
}

func (e *EntropyTimestampMismatch) Error() string {
	return fmt.Sprintf("entropy timestamp mismatch: entropy=%d capture=%d drift=%dms",
		e.EntropyTimestampMs, e.CaptureTimestampMs, e.DriftMs)
}

// SealTooLarge reports a decode input exceeding the size guard.
type SealTooLarge struct {
	Size int
	Max  int
}

func (e *SealTooLarge) Error() string {
	return fmt.Sprintf("seal too large: %d bytes, max %d", e.Size, e.Max)
}

// UnsupportedSealVersion reports a forward-incompatible seal.
type UnsupportedSealVersion struct {
	Seen    uint8
	Current uint8
}

func (e *UnsupportedSealVersion) Error() string {
	return fmt.Sprintf("unsupported seal version: seen %d, current %d", e.Seen, e.Current)
}

// InvalidTimestamp reports a wall-clock reading before the Unix epoch.
type InvalidTimestamp struct {
	Reason string
}

func (e *InvalidTimestamp) Error() string {
	return fmt.Sprintf("invalid timestamp: %s", e.Reason)
}

// PerceptualHashError reports an image decode failure. It is soft: the seal
// build still succeeds, only the perceptual hash field is omitted.
type PerceptualHashError struct {
	Message string
	Cause   error
}

func (e *PerceptualHashError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("perceptual hash: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("perceptual hash: %s", e.Message)
}

func (e *PerceptualHashError) Unwrap() error { return e.Cause }
