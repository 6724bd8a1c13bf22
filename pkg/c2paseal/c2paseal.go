// Package c2paseal bridges a veritas seal and a C2PA assertion: a lossless
// two-way conversion plus a minimal manifest-definition embed/extract
// pair. The outer manifest container format and its ES256 signing are a
// collaborator's concern; this package only produces and reads the
// quantum-seal assertion itself.
package c2paseal

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"veritas/internal/sealtypes"
)

// AssertionLabel is the fixed C2PA assertion label this bridge produces
// and recognises.
const AssertionLabel = "veritas.quantum_seal"

// SchemaVersion is the current assertion schema version.
const SchemaVersion = 1

// AnchorData is the split form of a seal's blockchain anchor: the combined
// `"chain-network"` field is split on the first hyphen, with the remainder
// taken as the network.
type AnchorData struct {
	Chain         string `json:"chain"`
	Network       string `json:"network"`
	TransactionID string `json:"transaction_id"`
	BlockHeight   uint64 `json:"block_height"`
}

// Assertion is the typed veritas.quantum_seal assertion payload. It carries
// every signable field of the seal, not just the fields the upstream Rust
// QuantumSealAssertion happened to keep. That struct drops media_type,
// capture_location, and device_attestation, which makes its own round trip
// lossy with respect to the signable payload (field 9 of the signable
// payload has no omitempty). Carrying them here is what makes ToAssertion/
// FromAssertion an actual lossless round trip, per spec §4.8.
type Assertion struct {
	SchemaVersion      int                    `json:"schema_version"`
	QRNGEntropy        string                 `json:"qrng_entropy"`
	QRNGSource         string                 `json:"qrng_source"`
	CaptureTimestampMs uint64                 `json:"capture_timestamp_ms"`
	CaptureLocation    string                 `json:"capture_location,omitempty"`
	EntropyTimestampMs uint64                 `json:"entropy_timestamp_ms"`
	MediaType          string                 `json:"media_type"`
	MLDSASignature     string                 `json:"ml_dsa_signature"`
	MLDSAPublicKey     string                 `json:"ml_dsa_public_key"`
	ContentHash        string                 `json:"content_hash"`
	PerceptualHash     string                 `json:"perceptual_hash,omitempty"`
	DeviceAttestation  *DeviceAttestationData `json:"device_attestation,omitempty"`
	Anchor             *AnchorData            `json:"anchor,omitempty"`
}

// DeviceAttestationData is the assertion-side mirror of
// sealtypes.DeviceAttestation. The attestation token is opaque here too; it
// is carried, not interpreted.
type DeviceAttestationData struct {
	DeviceID         string `json:"device_id"`
	TEEType          string `json:"tee_type"`
	AttestationToken string `json:"attestation_token"`
}

// ErrMissingAssertion reports that a container carries no assertion with
// AssertionLabel — a legitimate non-veritas manifest, not a malformed one.
var ErrMissingAssertion = fmt.Errorf("c2paseal: no %s assertion present", AssertionLabel)

// ToAssertion converts a seal into its C2PA assertion form.
func ToAssertion(seal *sealtypes.Seal) Assertion {
	a := Assertion{
		SchemaVersion:      SchemaVersion,
		QRNGEntropy:        hex.EncodeToString(seal.QRNGEntropy[:]),
		QRNGSource:         string(seal.QRNGSource.Kind),
		CaptureTimestampMs: seal.CaptureTimestampMs,
		CaptureLocation:    seal.CaptureLocation,
		EntropyTimestampMs: seal.EntropyTimestampMs,
		MediaType:          string(seal.MediaType),
		MLDSASignature:     base64.StdEncoding.EncodeToString(seal.Signature),
		MLDSAPublicKey:     base64.StdEncoding.EncodeToString(seal.PublicKey),
		ContentHash:        hex.EncodeToString(seal.ContentHash.CryptoHash[:]),
	}

	if len(seal.ContentHash.PerceptualHash) > 0 {
		a.PerceptualHash = hex.EncodeToString(seal.ContentHash.PerceptualHash)
	}

	if seal.DeviceAttestation != nil {
		a.DeviceAttestation = &DeviceAttestationData{
			DeviceID:         seal.DeviceAttestation.DeviceID,
			TEEType:          seal.DeviceAttestation.TEEType,
			AttestationToken: base64.StdEncoding.EncodeToString(seal.DeviceAttestation.AttestationTokenBytes),
		}
	}

	if seal.BlockchainAnchor != nil {
		chain, network, _ := strings.Cut(seal.BlockchainAnchor.Chain, "-")
		a.Anchor = &AnchorData{
			Chain:         chain,
			Network:       network,
			TransactionID: seal.BlockchainAnchor.TxID,
			BlockHeight:   seal.BlockchainAnchor.BlockHeight,
		}
	}

	return a
}

// FromAssertion reconstructs a seal from its C2PA assertion form. The
// conversion is lossless with ToAssertion.
func FromAssertion(a Assertion) (*sealtypes.Seal, error) {
	entropy, err := hex.DecodeString(a.QRNGEntropy)
	if err != nil || len(entropy) != 32 {
		return nil, fmt.Errorf("c2paseal: invalid qrng_entropy: %w", err)
	}

	cryptoHash, err := hex.DecodeString(a.ContentHash)
	if err != nil || len(cryptoHash) != 32 {
		return nil, fmt.Errorf("c2paseal: invalid content_hash: %w", err)
	}

	signature, err := base64.StdEncoding.DecodeString(a.MLDSASignature)
	if err != nil {
		return nil, fmt.Errorf("c2paseal: invalid ml_dsa_signature: %w", err)
	}

	publicKey, err := base64.StdEncoding.DecodeString(a.MLDSAPublicKey)
	if err != nil {
		return nil, fmt.Errorf("c2paseal: invalid ml_dsa_public_key: %w", err)
	}

	seal := &sealtypes.Seal{
		Version:            sealtypes.CurrentVersion,
		CaptureTimestampMs: a.CaptureTimestampMs,
		CaptureLocation:    a.CaptureLocation,
		QRNGSource:         sealtypes.QRNGSource{Kind: sealtypes.QRNGSourceKind(a.QRNGSource)},
		EntropyTimestampMs: a.EntropyTimestampMs,
		MediaType:          sealtypes.MediaType(a.MediaType),
		Signature:          signature,
		PublicKey:          publicKey,
	}
	copy(seal.QRNGEntropy[:], entropy)
	copy(seal.ContentHash.CryptoHash[:], cryptoHash)

	if a.PerceptualHash != "" {
		phash, err := hex.DecodeString(a.PerceptualHash)
		if err != nil {
			return nil, fmt.Errorf("c2paseal: invalid perceptual_hash: %w", err)
		}
		seal.ContentHash.PerceptualHash = phash
	}

	if a.DeviceAttestation != nil {
		token, err := base64.StdEncoding.DecodeString(a.DeviceAttestation.AttestationToken)
		if err != nil {
			return nil, fmt.Errorf("c2paseal: invalid device_attestation token: %w", err)
		}
		seal.DeviceAttestation = &sealtypes.DeviceAttestation{
			DeviceID:              a.DeviceAttestation.DeviceID,
			TEEType:               a.DeviceAttestation.TEEType,
			AttestationTokenBytes: token,
		}
	}

	if a.Anchor != nil {
		chain := a.Anchor.Chain
		if a.Anchor.Network != "" {
			chain = a.Anchor.Chain + "-" + a.Anchor.Network
		}
		seal.BlockchainAnchor = &sealtypes.BlockchainAnchor{
			Chain:       chain,
			TxID:        a.Anchor.TransactionID,
			BlockHeight: a.Anchor.BlockHeight,
		}
	}

	return seal, nil
}
