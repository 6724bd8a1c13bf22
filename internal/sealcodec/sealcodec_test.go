package sealcodec

import (
	"testing"

	"veritas/internal/sealtypes"
	"veritas/internal/veritaserr"
)

func sampleSeal() *sealtypes.Seal {
	s := &sealtypes.Seal{
		Version:            sealtypes.CurrentVersion,
		CaptureTimestampMs: 1700000000000,
		CaptureLocation:    "u4pruydqqvj",
		QRNGSource:         sealtypes.QRNGSource{Kind: sealtypes.SourceLfdCloud},
		EntropyTimestampMs: 1700000000500,
		MediaType:          sealtypes.MediaTypeImage,
		Signature:          make([]byte, 3309),
		PublicKey:          make([]byte, 1952),
	}
	for i := range s.QRNGEntropy {
		s.QRNGEntropy[i] = byte(i)
	}
	for i := range s.ContentHash.CryptoHash {
		s.ContentHash.CryptoHash[i] = byte(255 - i)
	}
	s.ContentHash.PerceptualHash = []byte{1, 2, 3, 4, 5, 6, 7, 8}
	return s
}

func TestEncodeBinaryDecodeBinaryRoundTrip(t *testing.T) {
	s := sampleSeal()

	data, err := EncodeBinary(s)
	if err != nil {
		t.Fatalf("EncodeBinary failed: %v", err)
	}

	decoded, err := DecodeBinary(data)
	if err != nil {
		t.Fatalf("DecodeBinary failed: %v", err)
	}

	if decoded.CaptureTimestampMs != s.CaptureTimestampMs {
		t.Error("capture timestamp mismatch after round trip")
	}
	if decoded.QRNGEntropy != s.QRNGEntropy {
		t.Error("entropy mismatch after round trip")
	}
	if decoded.ContentHash.CryptoHash != s.ContentHash.CryptoHash {
		t.Error("crypto hash mismatch after round trip")
	}
}

func TestEncodeSignablePayloadExcludesSignatureFields(t *testing.T) {
	s := sampleSeal()

	a, err := EncodeSignablePayload(s)
	if err != nil {
		t.Fatalf("EncodeSignablePayload failed: %v", err)
	}

	s.BlockchainAnchor = &sealtypes.BlockchainAnchor{Chain: "eth", TxID: "0xabc", BlockHeight: 42}
	b, err := EncodeSignablePayload(s)
	if err != nil {
		t.Fatalf("EncodeSignablePayload failed: %v", err)
	}

	if string(a) != string(b) {
		t.Error("signable payload changed when only blockchain_anchor was set")
	}
}

func TestEncodeSignablePayloadDeterministic(t *testing.T) {
	s := sampleSeal()

	a, err := EncodeSignablePayload(s)
	if err != nil {
		t.Fatalf("EncodeSignablePayload failed: %v", err)
	}
	b, err := EncodeSignablePayload(s)
	if err != nil {
		t.Fatalf("EncodeSignablePayload failed: %v", err)
	}

	if string(a) != string(b) {
		t.Error("encoding the same seal twice produced different bytes")
	}
}

func TestDecodeBinaryRejectsOversized(t *testing.T) {
	oversized := make([]byte, sealtypes.MaxSealBytes+1)
	if _, err := DecodeBinary(oversized); err == nil {
		t.Error("expected error for oversized input")
	} else if _, ok := err.(*veritaserr.SealTooLarge); !ok {
		t.Errorf("expected SealTooLarge, got %T", err)
	}
}

func TestDecodeBinaryRejectsUnsupportedVersion(t *testing.T) {
	s := sampleSeal()
	s.Version = 2

	data, err := EncodeBinary(s)
	if err != nil {
		t.Fatalf("EncodeBinary failed: %v", err)
	}

	if _, err := DecodeBinary(data); err == nil {
		t.Error("expected error for unsupported version")
	} else if _, ok := err.(*veritaserr.UnsupportedSealVersion); !ok {
		t.Errorf("expected UnsupportedSealVersion, got %T", err)
	}
}

func TestDecodeBinaryRejectsBadKeyLength(t *testing.T) {
	s := sampleSeal()
	s.PublicKey = make([]byte, 10)

	data, err := EncodeBinary(s)
	if err != nil {
		t.Fatalf("EncodeBinary failed: %v", err)
	}

	if _, err := DecodeBinary(data); err == nil {
		t.Error("expected error for bad public key length")
	} else if _, ok := err.(*veritaserr.InvalidSeal); !ok {
		t.Errorf("expected InvalidSeal, got %T", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	s := sampleSeal()

	data, err := EncodeJSON(s)
	if err != nil {
		t.Fatalf("EncodeJSON failed: %v", err)
	}

	decoded, err := DecodeJSON(data)
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}

	if decoded.QRNGEntropy != s.QRNGEntropy {
		t.Error("entropy mismatch after JSON round trip")
	}
	if string(decoded.ContentHash.PerceptualHash) != string(s.ContentHash.PerceptualHash) {
		t.Error("perceptual hash mismatch after JSON round trip")
	}
	if decoded.CaptureLocation != s.CaptureLocation {
		t.Error("capture location mismatch after JSON round trip")
	}
}
