package sealbuild

import (
	"context"
	"testing"

	"veritas/internal/entropy"
	"veritas/internal/sealkey"
	"veritas/internal/sealtypes"
)

func newTestBuilder(t *testing.T) (*Builder, sealkey.PublicKey, func()) {
	t.Helper()

	pub, sec, err := sealkey.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair failed: %v", err)
	}

	src := entropy.NewMockSource(1)
	b := New(src, sec, pub)
	return b, pub, func() { sec.Destroy() }
}

func TestBuildProducesValidSeal(t *testing.T) {
	b, pub, cleanup := newTestBuilder(t)
	defer cleanup()

	payload := []byte("hello veritas")
	seal, err := b.Build(context.Background(), payload, sealtypes.MediaTypeVideo)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if seal.Version != sealtypes.CurrentVersion {
		t.Errorf("expected version %d, got %d", sealtypes.CurrentVersion, seal.Version)
	}
	if seal.BlockchainAnchor != nil {
		t.Error("expected no blockchain anchor on a freshly built seal")
	}
	if string(seal.PublicKey) != string(pub) {
		t.Error("public key mismatch")
	}
	if seal.QRNGSource.Kind != entropy.NewMockSource(1).SourceID().Kind {
		t.Error("expected mock source kind on seal")
	}
	if len(seal.Signature) < sealkey.SignatureSize {
		t.Errorf("signature shorter than minimum size: %d", len(seal.Signature))
	}
}

func TestBuildWithLocationTruncates(t *testing.T) {
	b, _, cleanup := newTestBuilder(t)
	defer cleanup()

	long := make([]byte, sealtypes.MaxCaptureLocationLen+10)
	for i := range long {
		long[i] = 'a'
	}
	b.WithLocation(string(long))

	seal, err := b.Build(context.Background(), []byte("x"), sealtypes.MediaTypeAudio)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(seal.CaptureLocation) != sealtypes.MaxCaptureLocationLen {
		t.Errorf("expected truncated location of %d chars, got %d", sealtypes.MaxCaptureLocationLen, len(seal.CaptureLocation))
	}
}

func TestBuildWithDeviceAttestation(t *testing.T) {
	b, _, cleanup := newTestBuilder(t)
	defer cleanup()

	b.WithDeviceAttestation(sealtypes.DeviceAttestation{
		DeviceID:              "device-1",
		TEEType:               "sgx",
		AttestationTokenBytes: []byte{1, 2, 3},
	})

	seal, err := b.Build(context.Background(), []byte("x"), sealtypes.MediaTypeAudio)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if seal.DeviceAttestation == nil || seal.DeviceAttestation.DeviceID != "device-1" {
		t.Error("expected device attestation to be carried through")
	}
}

func TestBuildUndecodableImageOmitsPerceptualHash(t *testing.T) {
	b, _, cleanup := newTestBuilder(t)
	defer cleanup()

	// Not a decodable image: the perceptual hash is omitted, not a
	// build failure.
	seal, err := b.Build(context.Background(), []byte("not an image"), sealtypes.MediaTypeImage)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if seal.ContentHash.PerceptualHash != nil {
		t.Error("expected no perceptual hash for undecodable image bytes")
	}
}
