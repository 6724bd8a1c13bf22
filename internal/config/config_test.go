package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "nonexistent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Errorf("expected default sqlite driver, got %q", cfg.Store.Driver)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("ANU_QRNG_URL", "https://example.invalid/anu")
	t.Setenv("QRNG_API_KEY", "secret-value")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.QRNG.AnuURL != "https://example.invalid/anu" {
		t.Errorf("env override not applied: %q", cfg.QRNG.AnuURL)
	}
	if cfg.QRNG.CommercialAPIKey != "secret-value" {
		t.Errorf("api key override not applied")
	}
}

func TestValidateConfigRejectsBadDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Driver = "mongodb"
	if err := ValidateConfig(cfg); err == nil {
		t.Fatal("expected validation error for unsupported driver")
	}
}

func TestValidateConfigRejectsBadAlgorithm(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PerceptualHash.Algorithm = "fourier"
	if err := ValidateConfig(cfg); err == nil {
		t.Fatal("expected validation error for unknown algorithm")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := DefaultConfig()
	cfg.QRNG.MaxRetries = 7
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat config file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.QRNG.MaxRetries != 7 {
		t.Errorf("expected max_retries 7, got %d", loaded.QRNG.MaxRetries)
	}
}

func TestConfigPathUnderHomeDir(t *testing.T) {
	p := ConfigPath()
	if filepath.Base(p) != "config.toml" {
		t.Errorf("expected config.toml basename, got %q", p)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".veritas"); filepath.Dir(p) != want {
		t.Errorf("expected config path under %q, got %q", want, p)
	}
}
