package sealcodec

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"

	"veritas/internal/sealtypes"
	"veritas/internal/veritaserr"
)

// jsonContentHash mirrors sealtypes.ContentHash with hex-encoded byte
// strings.
type jsonContentHash struct {
	CryptoHash     string `json:"crypto_hash"`
	PerceptualHash string `json:"perceptual_hash,omitempty"`
}

// jsonBlockchainAnchor mirrors sealtypes.BlockchainAnchor verbatim (no
// binary fields).
type jsonBlockchainAnchor struct {
	Chain       string `json:"chain"`
	TxID        string `json:"tx_id"`
	BlockHeight uint64 `json:"block_height"`
}

// jsonSeal mirrors sealtypes.Seal field names; fixed-size byte strings
// (hash, entropy) are hex, variable-size byte strings (signature, public
// key) are base64. Never used as signing input.
type jsonSeal struct {
	Version            uint8                      `json:"version"`
	CaptureTimestampMs uint64                      `json:"capture_timestamp_ms"`
	CaptureLocation    string                      `json:"capture_location,omitempty"`
	DeviceAttestation  *sealtypes.DeviceAttestation `json:"device_attestation,omitempty"`
	QRNGEntropy        string                      `json:"qrng_entropy"`
	QRNGSource         sealtypes.QRNGSource        `json:"qrng_source"`
	EntropyTimestampMs uint64                      `json:"entropy_timestamp_ms"`
	ContentHash        jsonContentHash             `json:"content_hash"`
	MediaType          sealtypes.MediaType         `json:"media_type"`
	Signature          string                      `json:"signature"`
	PublicKey          string                      `json:"public_key"`
	BlockchainAnchor   *jsonBlockchainAnchor       `json:"blockchain_anchor,omitempty"`
}

// EncodeJSON renders s in the human-readable mirror format.
func EncodeJSON(s *sealtypes.Seal) ([]byte, error) {
	js := jsonSeal{
		Version:            s.Version,
		CaptureTimestampMs: s.CaptureTimestampMs,
		CaptureLocation:    s.CaptureLocation,
		DeviceAttestation:  s.DeviceAttestation,
		QRNGEntropy:        hex.EncodeToString(s.QRNGEntropy[:]),
		QRNGSource:         s.QRNGSource,
		EntropyTimestampMs: s.EntropyTimestampMs,
		ContentHash: jsonContentHash{
			CryptoHash: hex.EncodeToString(s.ContentHash.CryptoHash[:]),
		},
		MediaType: s.MediaType,
		Signature: base64.StdEncoding.EncodeToString(s.Signature),
		PublicKey: base64.StdEncoding.EncodeToString(s.PublicKey),
	}

	if len(s.ContentHash.PerceptualHash) > 0 {
		js.ContentHash.PerceptualHash = hex.EncodeToString(s.ContentHash.PerceptualHash)
	}

	if s.BlockchainAnchor != nil {
		js.BlockchainAnchor = &jsonBlockchainAnchor{
			Chain:       s.BlockchainAnchor.Chain,
			TxID:        s.BlockchainAnchor.TxID,
			BlockHeight: s.BlockchainAnchor.BlockHeight,
		}
	}

	b, err := json.MarshalIndent(js, "", "  ")
	if err != nil {
		return nil, &veritaserr.SerializationError{Message: "encode seal JSON", Cause: err}
	}
	return b, nil
}

// DecodeJSON parses the human-readable mirror format back into a Seal.
func DecodeJSON(data []byte) (*sealtypes.Seal, error) {
	var js jsonSeal
	if err := json.Unmarshal(data, &js); err != nil {
		return nil, &veritaserr.SerializationError{Message: "decode seal JSON", Cause: err}
	}

	entropy, err := hex.DecodeString(js.QRNGEntropy)
	if err != nil || len(entropy) != 32 {
		return nil, &veritaserr.InvalidSeal{Reason: "qrng_entropy must be 32 hex-encoded bytes"}
	}

	cryptoHash, err := hex.DecodeString(js.ContentHash.CryptoHash)
	if err != nil || len(cryptoHash) != 32 {
		return nil, &veritaserr.InvalidSeal{Reason: "content_hash.crypto_hash must be 32 hex-encoded bytes"}
	}

	signature, err := base64.StdEncoding.DecodeString(js.Signature)
	if err != nil {
		return nil, &veritaserr.InvalidSeal{Reason: "signature must be base64"}
	}

	publicKey, err := base64.StdEncoding.DecodeString(js.PublicKey)
	if err != nil {
		return nil, &veritaserr.InvalidSeal{Reason: "public_key must be base64"}
	}

	s := &sealtypes.Seal{
		Version:            js.Version,
		CaptureTimestampMs: js.CaptureTimestampMs,
		CaptureLocation:    js.CaptureLocation,
		DeviceAttestation:  js.DeviceAttestation,
		QRNGSource:         js.QRNGSource,
		EntropyTimestampMs: js.EntropyTimestampMs,
		MediaType:          js.MediaType,
		Signature:          signature,
		PublicKey:          publicKey,
	}
	copy(s.QRNGEntropy[:], entropy)
	copy(s.ContentHash.CryptoHash[:], cryptoHash)

	if js.ContentHash.PerceptualHash != "" {
		phash, err := hex.DecodeString(js.ContentHash.PerceptualHash)
		if err != nil {
			return nil, &veritaserr.InvalidSeal{Reason: "content_hash.perceptual_hash must be hex"}
		}
		s.ContentHash.PerceptualHash = phash
	}

	if js.BlockchainAnchor != nil {
		s.BlockchainAnchor = &sealtypes.BlockchainAnchor{
			Chain:       js.BlockchainAnchor.Chain,
			TxID:        js.BlockchainAnchor.TxID,
			BlockHeight: js.BlockchainAnchor.BlockHeight,
		}
	}

	if err := validateKeyAndSignatureLengths(s); err != nil {
		return nil, err
	}

	return s, nil
}
