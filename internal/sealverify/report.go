package sealverify

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"time"

	"veritas/internal/sealtypes"
)

// ReportFormat specifies the output format for verification reports.
type ReportFormat string

const (
	FormatJSON     ReportFormat = "json"
	FormatText     ReportFormat = "text"
	FormatMarkdown ReportFormat = "markdown"
	FormatHTML     ReportFormat = "html"
)

// Report summarises a signature and, optionally, content check for
// presentation to a CLI or dashboard caller.
type Report struct {
	SealID          string
	SignatureResult SignatureResult
	ContentResult   *ContentResult
	MediaType       sealtypes.MediaType
	CaptureTime     time.Time
	QuantumSafe     bool
	AnchorPresent   bool
	GeneratedAt     time.Time
}

// NewReport builds a Report from a seal and its verification outcomes.
func NewReport(sealID string, seal *sealtypes.Seal, sig SignatureReport, content *ContentReport) Report {
	r := Report{
		SealID:          sealID,
		SignatureResult: sig.Result,
		MediaType:       seal.MediaType,
		CaptureTime:     time.UnixMilli(int64(seal.CaptureTimestampMs)).UTC(),
		QuantumSafe:     seal.QRNGSource.IsQuantumSafe(),
		AnchorPresent:   seal.BlockchainAnchor != nil,
		GeneratedAt:     time.Now().UTC(),
	}
	if content != nil {
		r.ContentResult = &content.Result
	}
	return r
}

// ReportGenerator renders a Report in a configured format.
type ReportGenerator struct {
	format ReportFormat
}

// NewReportGenerator creates a report generator for the given format.
func NewReportGenerator(format ReportFormat) *ReportGenerator {
	return &ReportGenerator{format: format}
}

// Generate writes the report to w in the configured format.
func (g *ReportGenerator) Generate(r Report, w io.Writer) error {
	switch g.format {
	case FormatJSON:
		return g.generateJSON(r, w)
	case FormatText:
		return g.generateText(r, w)
	case FormatMarkdown:
		return g.generateMarkdown(r, w)
	case FormatHTML:
		return g.generateHTML(r, w)
	default:
		return fmt.Errorf("sealverify: unknown report format %q", g.format)
	}
}

type jsonReport struct {
	SealID          string `json:"seal_id"`
	SignatureResult string `json:"signature_result"`
	ContentResult   string `json:"content_result,omitempty"`
	MediaType       string `json:"media_type"`
	CaptureTime     string `json:"capture_time"`
	QuantumSafe     bool   `json:"quantum_safe"`
	AnchorPresent   bool   `json:"anchor_present"`
	GeneratedAt     string `json:"generated_at"`
}

func (g *ReportGenerator) generateJSON(r Report, w io.Writer) error {
	jr := jsonReport{
		SealID:          r.SealID,
		SignatureResult: r.SignatureResult.String(),
		MediaType:       string(r.MediaType),
		CaptureTime:     r.CaptureTime.Format(time.RFC3339),
		QuantumSafe:     r.QuantumSafe,
		AnchorPresent:   r.AnchorPresent,
		GeneratedAt:     r.GeneratedAt.Format(time.RFC3339),
	}
	if r.ContentResult != nil {
		jr.ContentResult = r.ContentResult.String()
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jr)
}

func (g *ReportGenerator) generateText(r Report, w io.Writer) error {
	fmt.Fprintln(w, "=== VERITAS SEAL VERIFICATION REPORT ===")
	fmt.Fprintf(w, "Seal ID:          %s\n", r.SealID)
	fmt.Fprintf(w, "Signature:        %s\n", r.SignatureResult)
	if r.ContentResult != nil {
		fmt.Fprintf(w, "Content:          %s\n", *r.ContentResult)
	}
	fmt.Fprintf(w, "Media type:       %s\n", r.MediaType)
	fmt.Fprintf(w, "Capture time:     %s\n", r.CaptureTime.Format(time.RFC3339))
	fmt.Fprintf(w, "Quantum-safe:     %v\n", r.QuantumSafe)
	fmt.Fprintf(w, "Anchor present:   %v\n", r.AnchorPresent)
	fmt.Fprintf(w, "Generated at:     %s\n", r.GeneratedAt.Format(time.RFC3339))
	return nil
}

func (g *ReportGenerator) generateMarkdown(r Report, w io.Writer) error {
	fmt.Fprintf(w, "## Seal verification: `%s`\n\n", r.SealID)
	fmt.Fprintf(w, "| Field | Value |\n|---|---|\n")
	fmt.Fprintf(w, "| Signature | %s |\n", r.SignatureResult)
	if r.ContentResult != nil {
		fmt.Fprintf(w, "| Content | %s |\n", *r.ContentResult)
	}
	fmt.Fprintf(w, "| Media type | %s |\n", r.MediaType)
	fmt.Fprintf(w, "| Capture time | %s |\n", r.CaptureTime.Format(time.RFC3339))
	fmt.Fprintf(w, "| Quantum-safe | %v |\n", r.QuantumSafe)
	fmt.Fprintf(w, "| Anchor present | %v |\n", r.AnchorPresent)
	return nil
}

func (g *ReportGenerator) generateHTML(r Report, w io.Writer) error {
	fmt.Fprintf(w, "<section class=\"veritas-seal-report\">\n")
	fmt.Fprintf(w, "  <h2>Seal %s</h2>\n", html.EscapeString(r.SealID))
	fmt.Fprintf(w, "  <p>Signature: <strong>%s</strong></p>\n", r.SignatureResult)
	if r.ContentResult != nil {
		fmt.Fprintf(w, "  <p>Content: <strong>%s</strong></p>\n", *r.ContentResult)
	}
	fmt.Fprintf(w, "  <p>Media type: %s</p>\n", r.MediaType)
	fmt.Fprintf(w, "  <p>Capture time: %s</p>\n", r.CaptureTime.Format(time.RFC3339))
	fmt.Fprintf(w, "  <p>Quantum-safe: %v</p>\n", r.QuantumSafe)
	fmt.Fprintf(w, "  <p>Anchor present: %v</p>\n", r.AnchorPresent)
	fmt.Fprintf(w, "</section>\n")
	return nil
}
