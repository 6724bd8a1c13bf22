package entropy

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"veritas/internal/logging"
	"veritas/internal/sealtypes"
	"veritas/internal/veritaserr"
)

// parseFunc decodes a provider's raw response body into 32 bytes of
// entropy, or returns an error if the body is malformed or reports failure.
type parseFunc func(body []byte) ([32]byte, error)

// CloudConfig configures a cloud HTTP entropy provider's shared driver.
type CloudConfig struct {
	// URL is the provider endpoint.
	URL string

	// PinnedCertPEM, if non-empty, replaces the system root store with a
	// single pinned certificate.
	PinnedCertPEM []byte

	// Parse decodes a 200-status response body into 32 bytes of entropy.
	Parse parseFunc

	// MaxRetries bounds retry attempts; Timeout bounds each HTTP attempt.
	MaxRetries int
	Timeout    time.Duration

	// AuthHeader, if set, is sent as the Authorization header on every
	// request (credentialled commercial providers).
	AuthHeader string
}

// parseAnuResponse decodes the ANU Quantum Numbers response:
// {"success": bool, "data": [hex32_string]}. success=false or an empty
// data array is a permanent failure.
func parseAnuResponse(body []byte) ([32]byte, error) {
	var zero [32]byte

	var resp struct {
		Success bool     `json:"success"`
		Data    []string `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return zero, fmt.Errorf("decode ANU response: %w", err)
	}
	if !resp.Success || len(resp.Data) == 0 {
		return zero, fmt.Errorf("ANU response reported failure or empty data")
	}

	return decodeHex32(resp.Data[0])
}

// parseLfdResponse decodes the LfD response: {"qrn": hex32_string}. An
// empty qrn field is a permanent failure.
func parseLfdResponse(body []byte) ([32]byte, error) {
	var zero [32]byte

	var resp struct {
		Qrn string `json:"qrn"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return zero, fmt.Errorf("decode LfD response: %w", err)
	}
	if resp.Qrn == "" {
		return zero, fmt.Errorf("LfD response missing qrn field")
	}

	return decodeHex32(resp.Qrn)
}

// parseCommercialResponse decodes the credentialled commercial provider's
// response: {"hex": hex32_string}.
func parseCommercialResponse(body []byte) ([32]byte, error) {
	var zero [32]byte

	var resp struct {
		Hex string `json:"hex"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return zero, fmt.Errorf("decode commercial provider response: %w", err)
	}
	if resp.Hex == "" {
		return zero, fmt.Errorf("commercial provider response missing hex field")
	}

	return decodeHex32(resp.Hex)
}

func decodeHex32(s string) ([32]byte, error) {
	var out [32]byte

	decoded, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("decode hex string: %w", err)
	}
	if len(decoded) != 32 {
		return out, fmt.Errorf("unexpected entropy length %d, want 32", len(decoded))
	}

	copy(out[:], decoded)
	return out, nil
}

// cloudDriver is the shared HTTP transport + retry logic for every cloud
// QRNG provider. It is read-only after construction and safe to share
// across concurrent builder calls.
type cloudDriver struct {
	cfg    CloudConfig
	client *http.Client
}

func newCloudDriver(cfg CloudConfig) (*cloudDriver, error) {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS13},
	}

	if len(cfg.PinnedCertPEM) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(cfg.PinnedCertPEM) {
			return nil, &veritaserr.QrngError{Message: "failed to parse pinned certificate"}
		}
		transport.TLSClientConfig.RootCAs = pool
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &cloudDriver{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}, nil
}

// isTransient reports whether err should trigger a retry rather than an
// immediate abort. Only request-build/connection/timeout/send-level failures and the
// listed HTTP statuses are transient; a malformed or semantically invalid
// body (bad JSON, wrong-length hex, a provider-reported failure) never is,
// since retrying cannot fix a response the provider has already sent.
func isTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		switch se.code {
		case http.StatusTooManyRequests, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}

	var pe *permanentError
	if errors.As(err, &pe) {
		return false
	}

	// A bare error at this point came from building or sending the
	// request: connection refused, timeout, TLS failure. Transient.
	return true
}

// permanentError marks a failure that retrying cannot resolve: the
// provider's response could not be read, was malformed, or reported
// failure on its own terms.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// fetch performs one provider request and decodes the body with cfg.Parse.
// Latency is logged for every attempt, successful or not, and status
// whenever a response was received, so provider health can be
// reconstructed from logs alone.
func (d *cloudDriver) fetch(ctx context.Context) ([32]byte, error) {
	var zero [32]byte
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.cfg.URL, nil)
	if err != nil {
		logging.Debug("qrng fetch failed before request", "url", d.cfg.URL, "latency", time.Since(start), "error", err)
		return zero, fmt.Errorf("build request: %w", err)
	}
	if d.cfg.AuthHeader != "" {
		req.Header.Set("Authorization", d.cfg.AuthHeader)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		logging.Debug("qrng fetch failed", "url", d.cfg.URL, "latency", time.Since(start), "error", err)
		return zero, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logging.Debug("qrng fetch non-200", "url", d.cfg.URL, "latency", time.Since(start), "status", resp.StatusCode)
		return zero, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logging.Debug("qrng fetch body read failed", "url", d.cfg.URL, "latency", time.Since(start), "status", resp.StatusCode, "error", err)
		return zero, &permanentError{fmt.Errorf("read body: %w", err)}
	}

	entropy, err := d.cfg.Parse(body)
	logging.Debug("qrng fetch", "url", d.cfg.URL, "latency", time.Since(start), "status", resp.StatusCode)
	if err != nil {
		return zero, &permanentError{fmt.Errorf("parse response: %w", err)}
	}
	return entropy, nil
}

// statusError carries a non-200 HTTP status so isTransient can classify it.
type statusError struct{ code int }

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

// getEntropyWithRetry runs fetch under the shared exponential-backoff retry
// policy: initial 100ms, cap 1s, up to MaxRetries attempts, and rejects
// degenerate results.
func (d *cloudDriver) getEntropyWithRetry(ctx context.Context) ([32]byte, error) {
	maxRetries := d.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	entropy, err := retry.DoWithData(
		func() ([32]byte, error) {
			return d.fetch(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(uint(maxRetries)),
		retry.Delay(100*time.Millisecond),
		retry.MaxDelay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isTransient),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return entropy, &veritaserr.QrngError{Message: "entropy fetch failed", Cause: err}
	}

	if IsDegenerate(entropy) {
		return entropy, &veritaserr.QrngError{Message: "entropy failed degeneracy check"}
	}

	return entropy, nil
}

// AnuSource is the ANU Quantum Numbers free academic QRNG provider. It uses
// the system root store (no certificate pin). The provider is deprecated
// because its TLS certificate has expired. Retained for decode
// compatibility with existing deployments; NewAutoSource no longer selects
// it (see design notes on provider deprecation).
type AnuSource struct {
	driver *cloudDriver
}

// NewAnuSource builds an ANU provider against url with the given retry
// bounds.
func NewAnuSource(url string, maxRetries int, timeout time.Duration) (*AnuSource, error) {
	d, err := newCloudDriver(CloudConfig{
		URL:        url,
		Parse:      parseAnuResponse,
		MaxRetries: maxRetries,
		Timeout:    timeout,
	})
	if err != nil {
		return nil, err
	}
	return &AnuSource{driver: d}, nil
}

func (a *AnuSource) GetEntropy(ctx context.Context) ([32]byte, error) {
	return a.driver.getEntropyWithRetry(ctx)
}

func (a *AnuSource) SourceID() sealtypes.QRNGSource {
	return sealtypes.QRNGSource{Kind: sealtypes.SourceAnuCloud}
}

// LfdSource is the LfD (Humboldt) free academic QRNG provider, pinned to
// ISRG Root X1.
type LfdSource struct {
	driver *cloudDriver
}

// NewLfdSource builds an LfD provider against url, pinned to pinnedCertPEM.
func NewLfdSource(url string, pinnedCertPEM []byte, maxRetries int, timeout time.Duration) (*LfdSource, error) {
	d, err := newCloudDriver(CloudConfig{
		URL:           url,
		PinnedCertPEM: pinnedCertPEM,
		Parse:         parseLfdResponse,
		MaxRetries:    maxRetries,
		Timeout:       timeout,
	})
	if err != nil {
		return nil, err
	}
	return &LfdSource{driver: d}, nil
}

func (l *LfdSource) GetEntropy(ctx context.Context) ([32]byte, error) {
	return l.driver.getEntropyWithRetry(ctx)
}

func (l *LfdSource) SourceID() sealtypes.QRNGSource {
	return sealtypes.QRNGSource{Kind: sealtypes.SourceLfdCloud}
}

// CommercialSource is a credentialled commercial QRNG provider (e.g.
// IDQuantique Cloud), authenticated via an API key header.
type CommercialSource struct {
	driver *cloudDriver
}

// NewCommercialSource builds a commercial provider against url, authorized
// with apiKey.
func NewCommercialSource(url, apiKey string, maxRetries int, timeout time.Duration) (*CommercialSource, error) {
	d, err := newCloudDriver(CloudConfig{
		URL:        url,
		Parse:      parseCommercialResponse,
		MaxRetries: maxRetries,
		Timeout:    timeout,
		AuthHeader: "Bearer " + apiKey,
	})
	if err != nil {
		return nil, err
	}
	return &CommercialSource{driver: d}, nil
}

func (c *CommercialSource) GetEntropy(ctx context.Context) ([32]byte, error) {
	return c.driver.getEntropyWithRetry(ctx)
}

func (c *CommercialSource) SourceID() sealtypes.QRNGSource {
	return sealtypes.QRNGSource{Kind: sealtypes.SourceIdQuantiqueCloud}
}
