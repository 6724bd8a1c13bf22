// Package sealcodec implements the two seal serialisations: canonical CBOR
// (storage, wire transport, and signing input) and a JSON mirror for CLI
// consumption. Only the CBOR form is ever used as signing input.
package sealcodec

import (
	"github.com/fxamacker/cbor/v2"

	"veritas/internal/sealtypes"
	"veritas/internal/veritaserr"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic("sealcodec: failed to build canonical encode mode: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
		TagsMd:      cbor.TagsForbidden,
	}.DecMode()
	if err != nil {
		panic("sealcodec: failed to build decode mode: " + err.Error())
	}
}

// signablePayload mirrors sealtypes.Seal but omits signature, public_key,
// and blockchain_anchor, per the signable-payload definition. Field order
// and identifiers must track sealtypes.Seal exactly for fields 1-9.
type signablePayload struct {
	Version            uint8                      `cbor:"1,keyasint"`
	CaptureTimestampMs uint64                     `cbor:"2,keyasint"`
	CaptureLocation    string                     `cbor:"3,keyasint,omitempty"`
	DeviceAttestation  *sealtypes.DeviceAttestation `cbor:"4,keyasint,omitempty"`
	QRNGEntropy        [32]byte                   `cbor:"5,keyasint"`
	QRNGSource         sealtypes.QRNGSource       `cbor:"6,keyasint"`
	EntropyTimestampMs uint64                     `cbor:"7,keyasint"`
	ContentHash        sealtypes.ContentHash      `cbor:"8,keyasint"`
	MediaType          sealtypes.MediaType        `cbor:"9,keyasint"`
}

func toSignablePayload(s *sealtypes.Seal) signablePayload {
	return signablePayload{
		Version:            s.Version,
		CaptureTimestampMs: s.CaptureTimestampMs,
		CaptureLocation:    s.CaptureLocation,
		DeviceAttestation:  s.DeviceAttestation,
		QRNGEntropy:        s.QRNGEntropy,
		QRNGSource:         s.QRNGSource,
		EntropyTimestampMs: s.EntropyTimestampMs,
		ContentHash:        s.ContentHash,
		MediaType:          s.MediaType,
	}
}

// EncodeSignablePayload produces the deterministic CBOR bytes that are
// signed and, on verification, re-derived for comparison.
func EncodeSignablePayload(s *sealtypes.Seal) ([]byte, error) {
	b, err := encMode.Marshal(toSignablePayload(s))
	if err != nil {
		return nil, &veritaserr.SerializationError{Message: "encode signable payload", Cause: err}
	}
	return b, nil
}

// EncodeBinary produces the canonical CBOR encoding of the full seal,
// including signature, public_key, and blockchain_anchor.
func EncodeBinary(s *sealtypes.Seal) ([]byte, error) {
	b, err := encMode.Marshal(s)
	if err != nil {
		return nil, &veritaserr.SerializationError{Message: "encode seal", Cause: err}
	}
	return b, nil
}

// DecodeBinary parses a CBOR-encoded seal, enforcing the size guard,
// version check, and key/signature length invariants before returning.
func DecodeBinary(data []byte) (*sealtypes.Seal, error) {
	if len(data) > sealtypes.MaxSealBytes {
		return nil, &veritaserr.SealTooLarge{Size: len(data), Max: sealtypes.MaxSealBytes}
	}

	var s sealtypes.Seal
	if err := decMode.Unmarshal(data, &s); err != nil {
		return nil, &veritaserr.SerializationError{Message: "decode seal", Cause: err}
	}

	if s.Version > sealtypes.CurrentVersion {
		return nil, &veritaserr.UnsupportedSealVersion{Seen: s.Version, Current: sealtypes.CurrentVersion}
	}

	if err := validateKeyAndSignatureLengths(&s); err != nil {
		return nil, err
	}

	return &s, nil
}

func validateKeyAndSignatureLengths(s *sealtypes.Seal) error {
	const minSignatureSize = 3309
	const publicKeySize = 1952

	if len(s.PublicKey) != publicKeySize {
		return &veritaserr.InvalidSeal{Reason: "public_key must be 1952 bytes"}
	}
	if len(s.Signature) < minSignatureSize {
		return &veritaserr.InvalidSeal{Reason: "signature shorter than minimum signed-message length"}
	}
	return nil
}
