package c2paseal

import (
	"testing"

	"veritas/internal/sealcodec"
	"veritas/internal/sealkey"
	"veritas/internal/sealtypes"
	"veritas/internal/sealverify"
)

func sampleSeal() *sealtypes.Seal {
	s := &sealtypes.Seal{
		Version:            sealtypes.CurrentVersion,
		CaptureTimestampMs: 1700000000000,
		QRNGSource:         sealtypes.QRNGSource{Kind: sealtypes.SourceLfdCloud},
		EntropyTimestampMs: 1700000000500,
		MediaType:          sealtypes.MediaTypeImage,
		Signature:          make([]byte, 3309),
		PublicKey:          make([]byte, 1952),
		BlockchainAnchor: &sealtypes.BlockchainAnchor{
			Chain:       "ethereum-mainnet",
			TxID:        "0xdeadbeef",
			BlockHeight: 12345,
		},
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

func TestToAssertionSplitsAnchorOnFirstHyphen(t *testing.T) {
	a := ToAssertion(sampleSeal())

	if a.Anchor == nil {
		t.Fatal("expected anchor data")
	}
	if a.Anchor.Chain != "ethereum" || a.Anchor.Network != "mainnet" {
		t.Errorf("expected chain=ethereum network=mainnet, got chain=%s network=%s", a.Anchor.Chain, a.Anchor.Network)
	}
}

func TestToFromAssertionRoundTrip(t *testing.T) {
	original := sampleSeal()

	a := ToAssertion(original)
	reconstructed, err := FromAssertion(a)
	if err != nil {
		t.Fatalf("FromAssertion failed: %v", err)
	}

	if reconstructed.QRNGEntropy != original.QRNGEntropy {
		t.Error("entropy mismatch after round trip")
	}
	if reconstructed.ContentHash.CryptoHash != original.ContentHash.CryptoHash {
		t.Error("crypto hash mismatch after round trip")
	}
	if string(reconstructed.ContentHash.PerceptualHash) != string(original.ContentHash.PerceptualHash) {
		t.Error("perceptual hash mismatch after round trip")
	}
	if reconstructed.BlockchainAnchor.Chain != original.BlockchainAnchor.Chain {
		t.Error("anchor chain mismatch after round trip")
	}
}

func TestEmbedExtractRoundTrip(t *testing.T) {
	original := sampleSeal()

	m, err := Embed(original)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(m.Actions) != 2 {
		t.Errorf("expected 2 fixed actions, got %d", len(m.Actions))
	}

	extracted, err := Extract(m)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if extracted.QRNGEntropy != original.QRNGEntropy {
		t.Error("entropy mismatch after embed/extract")
	}
}

func TestExtractMissingAssertionReturnsSentinel(t *testing.T) {
	_, err := Extract(Manifest{})
	if err != ErrMissingAssertion {
		t.Errorf("expected ErrMissingAssertion, got %v", err)
	}
}

func TestAnchorHashCapsSignatureAt32Bytes(t *testing.T) {
	short := sampleSeal()
	short.Signature = make([]byte, 32)
	for i := range short.Signature {
		short.Signature[i] = byte(i)
	}

	long := sampleSeal()
	long.Signature = make([]byte, 3309)
	copy(long.Signature, short.Signature)
	for i := 32; i < len(long.Signature); i++ {
		long.Signature[i] = 0xff
	}

	if AnchorHash(short) != AnchorHash(long) {
		t.Error("expected signature bytes beyond 32 to have no effect on the anchor hash")
	}
}

func TestAnchorHashDeterministic(t *testing.T) {
	seal := sampleSeal()
	if AnchorHash(seal) != AnchorHash(seal) {
		t.Error("expected AnchorHash to be deterministic")
	}
}

func TestAnchorHashIs32HexChars(t *testing.T) {
	// 16 raw bytes, hex encoded, per the anchor CLI's 128-bit truncation.
	if got := len(AnchorHash(sampleSeal())); got != 32 {
		t.Errorf("expected a 32-character hex string, got %d characters", got)
	}
}

// TestSignedSealSurvivesAssertionRoundTrip is the real test of spec §4.8's
// "lossless two-way conversion" claim: a genuinely signed seal must still
// verify as Valid after being embedded into, and extracted back out of, a
// C2PA assertion. Field-level equality checks (above) cannot catch a
// signable-payload regression; only re-running VerifySignature can.
func TestSignedSealSurvivesAssertionRoundTrip(t *testing.T) {
	pub, sec, err := sealkey.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair failed: %v", err)
	}
	defer sec.Destroy()

	seal := &sealtypes.Seal{
		Version:            sealtypes.CurrentVersion,
		CaptureTimestampMs: 1700000000000,
		CaptureLocation:    "9q8yyk8y",
		DeviceAttestation: &sealtypes.DeviceAttestation{
			DeviceID:              "device-42",
			TEEType:               "sgx",
			AttestationTokenBytes: []byte{0xde, 0xad, 0xbe, 0xef},
		},
		QRNGSource:         sealtypes.QRNGSource{Kind: sealtypes.SourceLfdCloud},
		EntropyTimestampMs: 1700000000500,
		MediaType:          sealtypes.MediaTypeImage,
		PublicKey:          pub,
	}
	for i := range seal.QRNGEntropy {
		seal.QRNGEntropy[i] = byte(i)
	}
	for i := range seal.ContentHash.CryptoHash {
		seal.ContentHash.CryptoHash[i] = byte(255 - i)
	}

	payload, err := sealcodec.EncodeSignablePayload(seal)
	if err != nil {
		t.Fatalf("EncodeSignablePayload failed: %v", err)
	}
	signed, err := sec.Sign(payload)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	seal.Signature = signed

	if sealverify.VerifySignature(seal).Result != sealverify.Valid {
		t.Fatal("sanity check failed: freshly signed seal did not verify")
	}

	m, err := Embed(seal)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	reconstructed, err := Extract(m)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	result := sealverify.VerifySignature(reconstructed)
	if result.Result != sealverify.Valid {
		t.Fatalf("expected Valid after assertion round trip, got %s", result.Result)
	}
	if reconstructed.MediaType != seal.MediaType {
		t.Errorf("media type lost in round trip: got %q, want %q", reconstructed.MediaType, seal.MediaType)
	}
	if reconstructed.CaptureLocation != seal.CaptureLocation {
		t.Errorf("capture location lost in round trip: got %q, want %q", reconstructed.CaptureLocation, seal.CaptureLocation)
	}
	if reconstructed.DeviceAttestation == nil || reconstructed.DeviceAttestation.DeviceID != seal.DeviceAttestation.DeviceID {
		t.Error("device attestation lost in round trip")
	}
}
