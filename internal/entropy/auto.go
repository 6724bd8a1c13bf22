package entropy

import (
	"time"

	"veritas/internal/veritaserr"
)

// AutoSelectConfig supplies the provider endpoints and policy considered by
// NewAutoSource.
type AutoSelectConfig struct {
	CommercialURL    string
	CommercialAPIKey string

	LfdURL           string
	LfdPinnedCertPEM []byte

	MaxRetries int
	Timeout    time.Duration

	// AllowMock permits falling back to MockSource when no cloud provider
	// is configured. Callers must opt in explicitly; there is no silent
	// downgrade.
	AllowMock bool
}

// NewAutoSource picks the first available of: the credentialled commercial
// provider, the free academic LfD provider, then mock only if the caller
// explicitly opted in. The chosen provider is returned as-is; if it later
// fails at GetEntropy time, the caller's build fails rather than silently
// falling back.
func NewAutoSource(cfg AutoSelectConfig) (Source, error) {
	if cfg.CommercialURL != "" && cfg.CommercialAPIKey != "" {
		return NewCommercialSource(cfg.CommercialURL, cfg.CommercialAPIKey, cfg.MaxRetries, cfg.Timeout)
	}

	if cfg.LfdURL != "" {
		return NewLfdSource(cfg.LfdURL, cfg.LfdPinnedCertPEM, cfg.MaxRetries, cfg.Timeout)
	}

	if cfg.AllowMock {
		return NewMockSource(uint64(time.Now().UnixNano())), nil
	}

	return nil, &veritaserr.QrngError{Message: "no entropy provider configured and mock not permitted"}
}
