package sealverify

import (
	"bytes"
	"context"
	"testing"

	"veritas/internal/entropy"
	"veritas/internal/sealbuild"
	"veritas/internal/sealkey"
	"veritas/internal/sealtypes"
)

func buildTestSeal(t *testing.T, payload []byte) (*sealtypes.Seal, sealkey.PublicKey) {
	t.Helper()

	pub, sec, err := sealkey.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair failed: %v", err)
	}
	defer sec.Destroy()

	src := entropy.NewMockSource(7)
	b := sealbuild.New(src, sec, pub)

	seal, err := b.Build(context.Background(), payload, sealtypes.MediaTypeVideo)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return seal, pub
}

func TestVerifySignatureValid(t *testing.T) {
	seal, _ := buildTestSeal(t, []byte("payload"))

	report := VerifySignature(seal)
	if report.Result != Valid {
		t.Errorf("expected Valid, got %v", report.Result)
	}
	if !IsValid(seal) {
		t.Error("IsValid facade disagreed with VerifySignature")
	}
}

func TestVerifySignatureInvalidPublicKey(t *testing.T) {
	seal, _ := buildTestSeal(t, []byte("payload"))
	seal.PublicKey = make([]byte, 10)

	report := VerifySignature(seal)
	if report.Result != InvalidPublicKey {
		t.Errorf("expected InvalidPublicKey, got %v", report.Result)
	}
}

func TestVerifySignatureMalformedSignature(t *testing.T) {
	seal, _ := buildTestSeal(t, []byte("payload"))
	seal.Signature = make([]byte, 10)

	report := VerifySignature(seal)
	if report.Result != MalformedSignature {
		t.Errorf("expected MalformedSignature, got %v", report.Result)
	}
}

func TestVerifySignatureInvalidSignature(t *testing.T) {
	seal, _ := buildTestSeal(t, []byte("payload"))
	seal.Signature[0] ^= 0xFF

	report := VerifySignature(seal)
	if report.Result != InvalidSignature && report.Result != PayloadMismatch {
		t.Errorf("expected InvalidSignature or PayloadMismatch for a tampered signature, got %v", report.Result)
	}
}

func TestVerifySignaturePayloadMismatch(t *testing.T) {
	seal, _ := buildTestSeal(t, []byte("payload"))
	seal.CaptureLocation = "tampered"

	report := VerifySignature(seal)
	if report.Result != PayloadMismatch && report.Result != InvalidSignature {
		t.Errorf("expected PayloadMismatch (or InvalidSignature) after tampering a signed field, got %v", report.Result)
	}
}

func TestVerifyContentAuthentic(t *testing.T) {
	payload := []byte("payload")
	seal, _ := buildTestSeal(t, payload)

	report := VerifyContent(seal, payload)
	if report.Result != Authentic {
		t.Errorf("expected Authentic, got %v", report.Result)
	}
	if !IsAuthentic(seal, payload) {
		t.Error("IsAuthentic facade disagreed with VerifyContent")
	}
}

func TestVerifyContentModified(t *testing.T) {
	seal, _ := buildTestSeal(t, []byte("payload"))

	report := VerifyContent(seal, []byte("different payload"))
	if report.Result != ContentModified {
		t.Errorf("expected ContentModified, got %v", report.Result)
	}
	if bytes.Equal(report.ActualHash[:], report.ExpectedHash[:]) {
		t.Error("expected actual and expected hashes to differ")
	}
}

func TestVerifyContentSignatureFailedSkipsHashCheck(t *testing.T) {
	seal, _ := buildTestSeal(t, []byte("payload"))
	seal.Signature = make([]byte, 10)

	report := VerifyContent(seal, []byte("payload"))
	if report.Result != SignatureFailed {
		t.Errorf("expected SignatureFailed, got %v", report.Result)
	}
}

func TestReportGeneratorFormats(t *testing.T) {
	seal, _ := buildTestSeal(t, []byte("payload"))
	sigReport := VerifySignature(seal)
	contentReport := VerifyContent(seal, []byte("payload"))

	r := NewReport("seal-123", seal, sigReport, &contentReport)

	for _, format := range []ReportFormat{FormatJSON, FormatText, FormatMarkdown, FormatHTML} {
		var buf bytes.Buffer
		gen := NewReportGenerator(format)
		if err := gen.Generate(r, &buf); err != nil {
			t.Errorf("Generate(%s) failed: %v", format, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Generate(%s) produced empty output", format)
		}
	}
}
