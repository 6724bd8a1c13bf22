// Command veritas-verify is a standalone tool for verifying veritas seals.
//
// Usage:
//
//	veritas-verify [flags] <seal-file>
//
// Examples:
//
//	# Signature-only check
//	veritas-verify photo.jpg.seal
//
//	# Full content check against the original payload
//	veritas-verify -payload photo.jpg photo.jpg.seal
//
//	# Machine-readable output
//	veritas-verify -format json -payload photo.jpg photo.jpg.seal
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"veritas/internal/logging"
	"veritas/internal/sealcodec"
	"veritas/internal/sealtypes"
	"veritas/internal/sealverify"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	defer logging.RecoverPanic()
	logging.DefaultCrashHandler().SetVersion(version)

	formatStr := flag.String("format", "text", "output format: text, json, markdown, html")
	output := flag.String("output", "", "output file (default: stdout)")
	payloadPath := flag.String("payload", "", "payload file to check content authenticity against")
	versionFlag := flag.Bool("version", false, "print version and exit")
	quiet := flag.Bool("quiet", false, "suppress the report; the verdict is given only by the exit status")
	exitCode := flag.Bool("exit-code", true, "exit with non-zero status on a rejected verdict")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "veritas-verify - verify veritas seals\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <seal-file>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("veritas-verify %s (commit %s)\n", version, commit)
		os.Exit(0)
	}

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: seal file required\n\n")
		flag.Usage()
		os.Exit(2)
	}

	sealPath := flag.Arg(0)

	format, err := parseFormat(*formatStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	seal, err := loadSeal(sealPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading seal: %v\n", err)
		os.Exit(1)
	}

	sigReport := sealverify.VerifySignature(seal)

	var contentReport *sealverify.ContentReport
	if *payloadPath != "" {
		payload, err := os.ReadFile(*payloadPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading payload: %v\n", err)
			os.Exit(1)
		}
		cr := sealverify.VerifyContent(seal, payload)
		contentReport = &cr
	}

	report := sealverify.NewReport(sealPath, seal, sigReport, contentReport)

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	if !*quiet {
		generator := sealverify.NewReportGenerator(format)
		if err := generator.Generate(report, w); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
			os.Exit(1)
		}
	}

	accepted := sigReport.Result.Accepted()
	if contentReport != nil {
		accepted = contentReport.Result.Accepted()
	}
	if *exitCode && !accepted {
		os.Exit(1)
	}
}

// loadSeal reads a seal file, trying the canonical CBOR form first and
// falling back to the JSON mirror.
func loadSeal(path string) (*sealtypes.Seal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	if seal, err := sealcodec.DecodeBinary(data); err == nil {
		return seal, nil
	}

	seal, err := sealcodec.DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decode seal (tried CBOR and JSON): %w", err)
	}
	return seal, nil
}

func parseFormat(s string) (sealverify.ReportFormat, error) {
	switch s {
	case "text":
		return sealverify.FormatText, nil
	case "json":
		return sealverify.FormatJSON, nil
	case "markdown", "md":
		return sealverify.FormatMarkdown, nil
	case "html":
		return sealverify.FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown format: %s (use text, json, markdown, or html)", s)
	}
}
