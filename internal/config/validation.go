// Package config handles configuration loading and validation for veritas.
package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig performs validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if qrngErrs := validateQRNG(&c.QRNG); len(qrngErrs) > 0 {
		errs = append(errs, qrngErrs...)
	}
	if storeErrs := validateStore(&c.Store); len(storeErrs) > 0 {
		errs = append(errs, storeErrs...)
	}
	if phashErrs := validatePerceptualHash(&c.PerceptualHash); len(phashErrs) > 0 {
		errs = append(errs, phashErrs...)
	}
	if c.SigningKeyPath == "" {
		errs = append(errs, ValidationError{Field: "signing_key_path", Message: "must not be empty"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateQRNG(q *QRNGConfig) ValidationErrors {
	var errs ValidationErrors
	if q.MaxRetries < 1 {
		errs = append(errs, ValidationError{Field: "qrng.max_retries", Message: "must be at least 1"})
	}
	if q.TimeoutSeconds < 1 {
		errs = append(errs, ValidationError{Field: "qrng.timeout_seconds", Message: "must be at least 1 second"})
	}
	return errs
}

func validateStore(s *StoreConfig) ValidationErrors {
	var errs ValidationErrors
	switch s.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, ValidationError{Field: "store.driver", Message: fmt.Sprintf("unsupported driver %q (want sqlite or postgres)", s.Driver)})
	}
	if s.DSN == "" {
		errs = append(errs, ValidationError{Field: "store.dsn", Message: "must not be empty"})
	}
	return errs
}

func validatePerceptualHash(p *PerceptualHashConfig) ValidationErrors {
	var errs ValidationErrors
	switch p.Algorithm {
	case "mean", "gradient", "dct", "blockhash":
	default:
		errs = append(errs, ValidationError{Field: "perceptual_hash.algorithm", Message: fmt.Sprintf("unknown algorithm %q", p.Algorithm)})
	}
	if p.Size < 2 {
		errs = append(errs, ValidationError{Field: "perceptual_hash.size", Message: "must be at least 2"})
	}
	if p.Threshold < 0 {
		errs = append(errs, ValidationError{Field: "perceptual_hash.threshold", Message: "must not be negative"})
	}
	return errs
}
