// Package config handles configuration loading and validation for veritas.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds daemon-level configuration for the sealer/verifier tools.
// It is not consumed by the core packages directly (they take explicit
// arguments) but is how cmd/ wires the core together.
type Config struct {
	// QRNG holds entropy-provider endpoints and credentials.
	QRNG QRNGConfig `toml:"qrng"`

	// Store configures the manifest store backend.
	Store StoreConfig `toml:"store"`

	// PerceptualHash holds perceptual-hash algorithm, size and threshold
	// settings. They are validated on load; the cmd/ tools take these
	// values from their own flags and do not read this section.
	PerceptualHash PerceptualHashConfig `toml:"perceptual_hash"`

	// SigningKeyPath is the path to the ML-DSA-65 keypair file (spec §6 format).
	SigningKeyPath string `toml:"signing_key_path"`

	// LogPath is the path to the log file; EnsureDirectories creates its
	// parent directory. The cmd/ tools log to stderr and do not read it.
	LogPath string `toml:"log_path"`

	// AllowMockEntropy gates use of the deterministic mock QRNG source.
	// Default policy is to refuse (spec §9, "Mock source policy").
	AllowMockEntropy bool `toml:"allow_mock_entropy"`
}

// QRNGConfig holds the three cloud QRNG provider endpoints named in spec §6.
type QRNGConfig struct {
	AnuURL           string `toml:"anu_url"`
	LfdURL           string `toml:"lfd_url"`
	CommercialAPIURL string `toml:"commercial_api_url"`
	CommercialAPIKey string `toml:"-"` // never serialised; sourced from QRNG_API_KEY only
	MaxRetries       int    `toml:"max_retries"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
}

// StoreConfig selects and configures the manifest store backend.
type StoreConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `toml:"driver"`
	// DSN is the sqlite file path or postgres connection string.
	DSN string `toml:"dsn"`
}

// PerceptualHashConfig configures the default C2 algorithm/size/threshold.
type PerceptualHashConfig struct {
	Algorithm string `toml:"algorithm"` // mean | gradient | dct | blockhash
	Size      int    `toml:"size"`      // hash side length, default 8 (64 bits)
	Threshold int    `toml:"threshold"` // default 10
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	veritasDir := filepath.Join(homeDir, ".veritas")

	return &Config{
		QRNG: QRNGConfig{
			AnuURL:           "https://qrng.anu.edu.au/API/jsonI.php?length=1&type=hex16&size=32",
			LfdURL:           "https://lfdr.de/qrng_api/qrng",
			CommercialAPIURL: "",
			MaxRetries:       5,
			TimeoutSeconds:   10,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    filepath.Join(veritasDir, "manifests.db"),
		},
		PerceptualHash: PerceptualHashConfig{
			Algorithm: "dct",
			Size:      8,
			Threshold: 10,
		},
		SigningKeyPath:   filepath.Join(veritasDir, "signing.key"),
		LogPath:          filepath.Join(veritasDir, "veritas.log"),
		AllowMockEntropy: false,
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".veritas", "config.toml")
}

// Load reads configuration from the specified path, applies environment
// overrides, and validates the result. If the file doesn't exist, defaults
// are used.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides applies the environment variables named in spec §6:
// ANU_QRNG_URL, LFD_QRNG_URL, QRNG_API_URL, QRNG_API_KEY. All are optional.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("ANU_QRNG_URL"); v != "" {
		c.QRNG.AnuURL = v
	}
	if v := os.Getenv("LFD_QRNG_URL"); v != "" {
		c.QRNG.LfdURL = v
	}
	if v := os.Getenv("QRNG_API_URL"); v != "" {
		c.QRNG.CommercialAPIURL = v
	}
	// QRNG_API_KEY is a secret and is never logged or serialised back out.
	if v := os.Getenv("QRNG_API_KEY"); v != "" {
		c.QRNG.CommercialAPIKey = v
	}
}

// EnsureDirectories creates all necessary directories for the daemon.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.LogPath),
		filepath.Dir(c.SigningKeyPath),
	}
	if c.Store.Driver == "sqlite" {
		dirs = append(dirs, filepath.Dir(c.Store.DSN))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}

	return nil
}

// VeritasDir returns the base veritas configuration directory.
func VeritasDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".veritas")
}
