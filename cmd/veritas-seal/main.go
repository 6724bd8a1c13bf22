// Command veritas-seal builds and signs a veritas seal for a payload file
// and, optionally, stores it. It also doubles as the keypair-generation tool.
//
// Usage:
//
//	veritas-seal -keygen -keypair keys/signing.key
//	veritas-seal -payload photo.jpg -media-type image -keypair keys/signing.key -out photo.seal
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"veritas/internal/config"
	"veritas/internal/entropy"
	"veritas/internal/logging"
	"veritas/internal/manifeststore"
	"veritas/internal/phash"
	"veritas/internal/sealbuild"
	"veritas/internal/sealcodec"
	"veritas/internal/sealkey"
	"veritas/internal/sealtypes"
)

var (
	configPath = flag.String("config", "", "path to config file")
	keygen     = flag.Bool("keygen", false, "generate a new ML-DSA-65 keypair and exit")
	keypair    = flag.String("keypair", "", "path to the keypair file (read for sealing, written for -keygen)")

	payloadPath = flag.String("payload", "", "path to the payload file to seal")
	mediaType   = flag.String("media-type", "image", "payload media type: image, video, audio")
	location    = flag.String("location", "", "optional geohash capture location")
	phashAlgo   = flag.String("phash-algo", "dct", "perceptual hash algorithm: mean, gradient, dct, blockhash")
	phashSize   = flag.Int("phash-size", phash.DefaultSize, "perceptual hash side length")
	out         = flag.String("out", "", "output seal path (default: <payload>.seal)")
	format      = flag.String("format", "cbor", "seal output format: cbor, json")

	entropySource = flag.String("entropy", "auto", "entropy source: auto, mock")
	storeSeal     = flag.Bool("store", false, "also persist the seal to the manifest store")
)

func main() {
	defer logging.RecoverPanic()

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "veritas-seal: load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "veritas-seal: init logging: %v\n", err)
		os.Exit(1)
	}

	keypairFile := *keypair
	if keypairFile == "" {
		keypairFile = cfg.SigningKeyPath
	}

	if *keygen {
		if err := runKeygen(keypairFile); err != nil {
			fmt.Fprintf(os.Stderr, "veritas-seal: keygen: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *payloadPath == "" {
		fmt.Fprintln(os.Stderr, "veritas-seal: -payload is required (or use -keygen)")
		os.Exit(2)
	}

	mt := sealtypes.MediaType(*mediaType)
	switch mt {
	case sealtypes.MediaTypeImage, sealtypes.MediaTypeVideo, sealtypes.MediaTypeAudio:
	default:
		fmt.Fprintf(os.Stderr, "veritas-seal: unknown media type %q\n", *mediaType)
		os.Exit(2)
	}

	algo, err := parsePhashAlgorithm(*phashAlgo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "veritas-seal: %v\n", err)
		os.Exit(2)
	}

	public, secret, err := sealkey.LoadKeypairFile(keypairFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "veritas-seal: load keypair: %v\n", err)
		os.Exit(1)
	}
	defer secret.Destroy()

	payload, err := os.ReadFile(*payloadPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "veritas-seal: read payload: %v\n", err)
		os.Exit(1)
	}

	source, err := selectSource(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "veritas-seal: %v\n", err)
		os.Exit(1)
	}

	builder := sealbuild.New(source, secret, public).
		WithPerceptualHashAlgorithm(algo, *phashSize)
	if *location != "" {
		builder = builder.WithLocation(*location)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.QRNG.TimeoutSeconds)*time.Second*2)
	defer cancel()

	seal, err := builder.Build(ctx, payload, mt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "veritas-seal: build seal: %v\n", err)
		os.Exit(1)
	}

	encoded, outPath, err := encodeSeal(seal, *format, *payloadPath, *out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "veritas-seal: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "veritas-seal: write seal: %v\n", err)
		os.Exit(1)
	}

	logger.Info("seal built", "payload", *payloadPath, "out", outPath, "media_type", string(mt))
	logging.AuditSealBuilt(context.Background(), outPath, map[string]interface{}{
		"media_type": string(mt),
		"source":     string(seal.QRNGSource.Kind),
	})

	if *storeSeal {
		if err := persistSeal(seal, encoded, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "veritas-seal: store seal: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("seal written to %s (%d bytes)\n", outPath, len(encoded))
}

func runKeygen(path string) error {
	public, secret, err := sealkey.GenerateKeypair()
	if err != nil {
		return err
	}
	defer secret.Destroy()

	if err := sealkey.SaveKeypairFile(path, public, secret); err != nil {
		return err
	}

	logging.Default().Info("keypair generated", "path", path)
	logging.AuditSessionStart(context.Background(), "keygen", map[string]interface{}{"keypair_path": path})
	fmt.Printf("keypair written to %s\n", path)
	return nil
}

func selectSource(cfg *config.Config) (entropy.Source, error) {
	timeout := time.Duration(cfg.QRNG.TimeoutSeconds) * time.Second

	switch *entropySource {
	case "mock":
		if !cfg.AllowMockEntropy {
			return nil, fmt.Errorf("mock entropy requested but not permitted by configuration")
		}
		return entropy.NewMockSource(uint64(time.Now().UnixNano())), nil
	case "auto":
		return entropy.NewAutoSource(entropy.AutoSelectConfig{
			CommercialURL:    cfg.QRNG.CommercialAPIURL,
			CommercialAPIKey: cfg.QRNG.CommercialAPIKey,
			LfdURL:           cfg.QRNG.LfdURL,
			MaxRetries:       cfg.QRNG.MaxRetries,
			Timeout:          timeout,
			AllowMock:        cfg.AllowMockEntropy,
		})
	default:
		return nil, fmt.Errorf("unknown entropy source %q", *entropySource)
	}
}

func parsePhashAlgorithm(s string) (phash.Algorithm, error) {
	switch s {
	case "mean":
		return phash.AlgorithmMean, nil
	case "gradient":
		return phash.AlgorithmGradient, nil
	case "dct":
		return phash.AlgorithmDCT, nil
	case "blockhash":
		return phash.AlgorithmBlockhash, nil
	default:
		return "", fmt.Errorf("unknown perceptual hash algorithm %q", s)
	}
}

func encodeSeal(seal *sealtypes.Seal, format, payloadPath, outPath string) ([]byte, string, error) {
	var encoded []byte
	var err error
	ext := ".seal"

	switch format {
	case "cbor":
		encoded, err = sealcodec.EncodeBinary(seal)
	case "json":
		encoded, err = sealcodec.EncodeJSON(seal)
		ext = ".seal.json"
	default:
		return nil, "", fmt.Errorf("unknown seal format %q", format)
	}
	if err != nil {
		return nil, "", fmt.Errorf("encode seal: %w", err)
	}

	if outPath == "" {
		outPath = payloadPath + ext
	}
	return encoded, outPath, nil
}

func persistSeal(seal *sealtypes.Seal, encoded []byte, cfg *config.Config) error {
	store, err := manifeststore.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("open manifest store: %w", err)
	}
	defer store.Close()

	sealID := fmt.Sprintf("%x", seal.ContentHash.CryptoHash[:8])
	_, err = store.Store(context.Background(), manifeststore.Input{
		SealID:         sealID,
		PerceptualHash: seal.ContentHash.PerceptualHash,
		ContentHashHex: fmt.Sprintf("%x", seal.ContentHash.CryptoHash),
		SealBytes:      encoded,
		MediaType:      seal.MediaType,
	})
	return err
}
