// Package sealbuild assembles a signed seal from a payload, an entropy
// source, and a key pair, following the fixed nine-step build sequence.
package sealbuild

import (
	"context"
	"time"

	"golang.org/x/crypto/sha3"

	"veritas/internal/entropy"
	"veritas/internal/phash"
	"veritas/internal/sealcodec"
	"veritas/internal/sealkey"
	"veritas/internal/sealtypes"
	"veritas/internal/veritaserr"
)

// Builder accumulates optional seal fields before Build runs the fixed
// sequence. A Builder is single-use: construct one per seal.
type Builder struct {
	source            entropy.Source
	secret            *sealkey.SecretKey
	public            sealkey.PublicKey
	captureLocation   string
	deviceAttestation *sealtypes.DeviceAttestation
	phashAlgorithm    phash.Algorithm
	phashSize         int
}

// New constructs a Builder bound to the given entropy source and key pair.
// The secret key is exclusively owned by this Builder's Build call; the
// caller must not reuse it concurrently.
func New(source entropy.Source, secret *sealkey.SecretKey, public sealkey.PublicKey) *Builder {
	return &Builder{
		source:         source,
		secret:         secret,
		public:         public,
		phashAlgorithm: phash.AlgorithmDCT,
		phashSize:      phash.DefaultSize,
	}
}

// WithLocation sets the optional capture_location geohash. Values longer
// than sealtypes.MaxCaptureLocationLen are truncated.
func (b *Builder) WithLocation(geohash string) *Builder {
	if len(geohash) > sealtypes.MaxCaptureLocationLen {
		geohash = geohash[:sealtypes.MaxCaptureLocationLen]
	}
	b.captureLocation = geohash
	return b
}

// WithDeviceAttestation attaches an opaque device attestation record.
func (b *Builder) WithDeviceAttestation(a sealtypes.DeviceAttestation) *Builder {
	b.deviceAttestation = &a
	return b
}

// WithPerceptualHashAlgorithm overrides the default DCT algorithm and hash
// size for image payloads.
func (b *Builder) WithPerceptualHashAlgorithm(algo phash.Algorithm, size int) *Builder {
	b.phashAlgorithm = algo
	b.phashSize = size
	return b
}

// Build runs the nine-step sequence from reading the capture timestamp
// through signing, returning a Seal with version 1 and no blockchain
// anchor. The secret key is not destroyed by Build; callers own that.
func (b *Builder) Build(ctx context.Context, payload []byte, mediaType sealtypes.MediaType) (*sealtypes.Seal, error) {
	captureTimestampMs, err := nowUnixMs()
	if err != nil {
		return nil, err
	}

	entropyBytes, err := b.source.GetEntropy(ctx)
	if err != nil {
		return nil, &veritaserr.QrngError{Message: "fetch entropy", Cause: err}
	}

	entropyTimestampMs, err := nowUnixMs()
	if err != nil {
		return nil, err
	}

	drift := int64(entropyTimestampMs) - int64(captureTimestampMs)
	if drift < 0 {
		drift = -drift
	}
	if drift > sealtypes.MaxEntropyTimestampDriftMs {
		return nil, &veritaserr.EntropyTimestampMismatch{
			EntropyTimestampMs: entropyTimestampMs,
			CaptureTimestampMs: captureTimestampMs,
			DriftMs:            drift,
		}
	}

	if entropy.IsDegenerate(entropyBytes) {
		return nil, &veritaserr.QrngError{Message: "entropy failed degeneracy check"}
	}

	cryptoHash := sha3.Sum256(payload)

	contentHash := sealtypes.ContentHash{CryptoHash: cryptoHash}
	if mediaType == sealtypes.MediaTypeImage {
		if h, err := phash.Compute(payload, b.phashAlgorithm, b.phashSize); err == nil {
			contentHash.PerceptualHash = h.Bytes
		}
		// A perceptual-hash failure is soft: the field stays absent and
		// the build continues.
	}

	seal := &sealtypes.Seal{
		Version:            sealtypes.CurrentVersion,
		CaptureTimestampMs: captureTimestampMs,
		CaptureLocation:    b.captureLocation,
		DeviceAttestation:  b.deviceAttestation,
		QRNGEntropy:        entropyBytes,
		QRNGSource:         b.source.SourceID(),
		EntropyTimestampMs: entropyTimestampMs,
		ContentHash:        contentHash,
		MediaType:          mediaType,
		PublicKey:          []byte(b.public),
	}

	signableBytes, err := sealcodec.EncodeSignablePayload(seal)
	if err != nil {
		return nil, err
	}

	signedMessage, err := b.secret.Sign(signableBytes)
	if err != nil {
		return nil, &veritaserr.SignatureError{Message: "sign seal", Cause: err}
	}
	seal.Signature = signedMessage

	return seal, nil
}

// nowUnixMs reads the wall clock and rejects times before the Unix epoch.
func nowUnixMs() (uint64, error) {
	now := time.Now()
	if now.Before(time.Unix(0, 0)) {
		return 0, &veritaserr.InvalidTimestamp{Reason: "wall clock reads before the Unix epoch"}
	}
	return uint64(now.UnixMilli()), nil
}
