// Package sealtypes defines the data model shared by every seal component:
// the Seal itself, its nested records, and the small enums that tag them.
package sealtypes

// MediaType identifies the kind of payload a seal covers.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
	MediaTypeAudio MediaType = "audio"
)

// QRNGSourceKind tags the provenance of the entropy embedded in a seal.
type QRNGSourceKind string

const (
	SourceMock             QRNGSourceKind = "mock"
	SourceAnuCloud         QRNGSourceKind = "anu_cloud"
	SourceLfdCloud         QRNGSourceKind = "lfd_cloud"
	SourceIdQuantiqueCloud QRNGSourceKind = "idquantique_cloud"
	SourceDeviceHardware   QRNGSourceKind = "device_hardware"
)

// QRNGSource is the tagged-variant provenance record for a seal's entropy.
// DeviceID is populated only when Kind is SourceDeviceHardware.
type QRNGSource struct {
	Kind     QRNGSourceKind `cbor:"1,keyasint" json:"kind"`
	DeviceID string         `cbor:"2,keyasint,omitempty" json:"device_id,omitempty"`
}

// IsQuantumSafe reports whether the source is a genuine QRNG provider.
// A Mock source is never quantum-safe, per spec.
func (s QRNGSource) IsQuantumSafe() bool {
	return s.Kind != SourceMock
}

// DeviceAttestation is opaque to the core: stored verbatim, covered by the
// signature, never interpreted.
type DeviceAttestation struct {
	DeviceID              string `cbor:"1,keyasint" json:"device_id"`
	TEEType               string `cbor:"2,keyasint" json:"tee_type"`
	AttestationTokenBytes []byte `cbor:"3,keyasint" json:"attestation_token_bytes"`
}

// ContentHash bundles the cryptographic hash of a payload with an optional
// perceptual hash.
type ContentHash struct {
	CryptoHash     [32]byte `cbor:"1,keyasint" json:"crypto_hash"`
	PerceptualHash []byte   `cbor:"2,keyasint,omitempty" json:"perceptual_hash,omitempty"`
}

// BlockchainAnchor records a later, optional anchoring transaction. It sits
// outside the signable payload so anchoring never invalidates a signature.
type BlockchainAnchor struct {
	Chain       string `cbor:"1,keyasint" json:"chain"`
	TxID        string `cbor:"2,keyasint" json:"tx_id"`
	BlockHeight uint64 `cbor:"3,keyasint" json:"block_height"`
}

// Seal is the atomic, signed unit of authenticity. Field order matches the
// data-model table exactly and must not change: it is the canonical
// encoding order for the signable payload.
type Seal struct {
	Version             uint8              `cbor:"1,keyasint" json:"version"`
	CaptureTimestampMs  uint64             `cbor:"2,keyasint" json:"capture_timestamp_ms"`
	CaptureLocation     string             `cbor:"3,keyasint,omitempty" json:"capture_location,omitempty"`
	DeviceAttestation   *DeviceAttestation `cbor:"4,keyasint,omitempty" json:"device_attestation,omitempty"`
	QRNGEntropy         [32]byte           `cbor:"5,keyasint" json:"qrng_entropy"`
	QRNGSource          QRNGSource         `cbor:"6,keyasint" json:"qrng_source"`
	EntropyTimestampMs  uint64             `cbor:"7,keyasint" json:"entropy_timestamp_ms"`
	ContentHash         ContentHash        `cbor:"8,keyasint" json:"content_hash"`
	MediaType           MediaType          `cbor:"9,keyasint" json:"media_type"`
	Signature           []byte             `cbor:"10,keyasint" json:"signature"`
	PublicKey           []byte             `cbor:"11,keyasint" json:"public_key"`
	BlockchainAnchor    *BlockchainAnchor  `cbor:"12,keyasint,omitempty" json:"blockchain_anchor,omitempty"`
}

// CurrentVersion is the only seal format version this core produces or
// accepts.
const CurrentVersion uint8 = 1

// MaxCaptureLocationLen bounds the short-text geohash carried in
// CaptureLocation.
const MaxCaptureLocationLen = 32

// MaxEntropyTimestampDriftMs bounds how far EntropyTimestampMs may drift
// from CaptureTimestampMs in either direction.
const MaxEntropyTimestampDriftMs = 5000

// MaxSealBytes bounds the size of an encoded seal accepted on decode.
const MaxSealBytes = 16384
