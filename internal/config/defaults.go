// Package config handles configuration loading and validation for veritas.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/veritas/
//   - Linux:   ~/.config/veritas/ (or $XDG_CONFIG_HOME/veritas)
//   - Windows: %APPDATA%\veritas\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "veritas")
	case "linux":
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, "veritas")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "veritas")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "veritas")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "AppData", "Roaming", "veritas")
	default:
		return VeritasDir()
	}
}

// PlatformLogDir returns the platform-specific log directory.
func PlatformLogDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Logs", "veritas")
	case "linux":
		if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
			return filepath.Join(xdgState, "veritas", "logs")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "state", "veritas", "logs")
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "veritas", "logs")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "AppData", "Local", "veritas", "logs")
	default:
		return filepath.Join(VeritasDir(), "logs")
	}
}

// DefaultPaths bundles every path the CLI tools need to agree on.
type DefaultPaths struct {
	ConfigDir      string
	LogDir         string
	ConfigFile     string
	SigningKeyFile string
	StoreFile      string
}

// GetDefaultPaths returns all default paths for the current platform.
func GetDefaultPaths() *DefaultPaths {
	configDir := PlatformConfigDir()
	return &DefaultPaths{
		ConfigDir:      configDir,
		LogDir:         PlatformLogDir(),
		ConfigFile:     filepath.Join(configDir, "config.toml"),
		SigningKeyFile: filepath.Join(configDir, "signing.key"),
		StoreFile:      filepath.Join(configDir, "manifests.db"),
	}
}

// SupportedConfigFormats returns the list of supported config file formats.
func SupportedConfigFormats() []string {
	return []string{"toml"}
}

// FindConfigFile searches for a config file in standard locations: the
// current directory, then the platform config directory.
func FindConfigFile() string {
	paths := GetDefaultPaths()
	searchDirs := []string{".", paths.ConfigDir}

	for _, dir := range searchDirs {
		for _, ext := range SupportedConfigFormats() {
			path := filepath.Join(dir, "config."+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	return ""
}

// SaveConfig writes the configuration to path in TOML, creating parent
// directories and using restrictive permissions (it may contain paths to
// secret material even though secrets themselves are never serialised).
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
