// Package sealkey handles ML-DSA-65 (FIPS 204) key generation, signing,
// and verification for seals, including secret-key zeroisation.
package sealkey

import (
	"errors"
	"fmt"
	"os"

	"github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
)

// Fixed sizes per spec §4.4 / §6.
const (
	PublicKeySize        = mldsa65.PublicKeySize
	SecretKeySize        = mldsa65.PrivateKeySize
	SignatureSize        = mldsa65.SignatureSize
	MinSignedMessageSize = SignatureSize
	KeypairFileSize      = PublicKeySize + SecretKeySize
	keypairFileMode      = 0o600
)

// Errors
var (
	ErrInvalidKeyFormat  = errors.New("sealkey: invalid key format")
	ErrKeyDestroyed      = errors.New("sealkey: secret key has been destroyed")
	ErrSignatureTooShort = errors.New("sealkey: signed message shorter than signature size")
	ErrKeypairFileSize   = fmt.Errorf("sealkey: keypair file must be exactly %d bytes", KeypairFileSize)
)

var scheme sign.Scheme = mldsa65.Scheme()

// PublicKey is a raw ML-DSA-65 public key, 1952 bytes.
type PublicKey []byte

// SecretKey owns an ML-DSA-65 private key for the lifetime of a single
// builder call. Destroy overwrites the packed bytes with zero; the
// underlying circl key object is also dropped so no live reference to
// key material escapes the call that created it.
type SecretKey struct {
	packed    [SecretKeySize]byte
	sk        sign.PrivateKey
	destroyed bool
}

// String never prints key material, satisfying the "redaction placeholder"
// requirement for any Debug/to_string path (spec §9).
func (s *SecretKey) String() string { return "sealkey.SecretKey{REDACTED}" }

// GoString mirrors String for %#v formatting.
func (s *SecretKey) GoString() string { return s.String() }

// GenerateKeypair creates a fresh ML-DSA-65 key pair.
func GenerateKeypair() (PublicKey, *SecretKey, error) {
	pub, priv, err := scheme.GenerateKey()
	if err != nil {
		return nil, nil, fmt.Errorf("sealkey: generate key: %w", err)
	}

	pubBytes, err := pub.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("sealkey: marshal public key: %w", err)
	}
	privBytes, err := priv.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("sealkey: marshal secret key: %w", err)
	}

	sec := &SecretKey{sk: priv}
	copy(sec.packed[:], privBytes)

	return PublicKey(pubBytes), sec, nil
}

// SecretKeyFromBytes wraps raw secret key bytes (e.g. read from a keypair
// file) in an owning, zeroisable SecretKey.
func SecretKeyFromBytes(b []byte) (*SecretKey, error) {
	if len(b) != SecretKeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeyFormat, len(b), SecretKeySize)
	}

	sk, err := scheme.UnmarshalBinaryPrivateKey(b)
	if err != nil {
		return nil, fmt.Errorf("sealkey: unmarshal secret key: %w", err)
	}

	sec := &SecretKey{sk: sk}
	copy(sec.packed[:], b)
	return sec, nil
}

// Sign produces a signed message: the ML-DSA-65 signature over message,
// followed by message itself. The signable payload construction (spec
// §4.5) is entirely the caller's responsibility; Sign only signs bytes.
func (s *SecretKey) Sign(message []byte) ([]byte, error) {
	if s.destroyed {
		return nil, ErrKeyDestroyed
	}

	sig := scheme.Sign(s.sk, message, nil)

	signed := make([]byte, 0, len(sig)+len(message))
	signed = append(signed, sig...)
	signed = append(signed, message...)
	return signed, nil
}

// Destroy overwrites the secret key's packed bytes with zero and releases
// the parsed key object. This is an ownership contract, not an
// information-theoretic guarantee (spec §9): copies made before Destroy
// was called are not reachable from here.
func (s *SecretKey) Destroy() {
	for i := range s.packed {
		s.packed[i] = 0
	}
	s.sk = nil
	s.destroyed = true
}

// ParsePublicKey validates and wraps a raw public key.
func ParsePublicKey(b []byte) (PublicKey, error) {
	if len(b) != PublicKeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeyFormat, len(b), PublicKeySize)
	}
	if _, err := scheme.UnmarshalBinaryPublicKey(b); err != nil {
		return nil, fmt.Errorf("sealkey: unmarshal public key: %w", err)
	}
	return PublicKey(b), nil
}

// Verify opens a signed message (signature || message) under pub and
// returns the recovered message bytes. A failure to parse pub, to parse
// the signature, or a failed cryptographic check are all reported as
// distinct errors so callers can grade the outcome (spec §4.6).
func Verify(pub PublicKey, signedMessage []byte) (message []byte, err error) {
	pubKey, err := scheme.UnmarshalBinaryPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("sealkey: unmarshal public key: %w", err)
	}

	if len(signedMessage) < SignatureSize {
		return nil, ErrSignatureTooShort
	}

	sig := signedMessage[:SignatureSize]
	msg := signedMessage[SignatureSize:]

	if !scheme.Verify(pubKey, msg, sig, nil) {
		return nil, fmt.Errorf("sealkey: signature does not verify")
	}

	return msg, nil
}

// SaveKeypairFile writes pub||sec as a single file with mode 0600, per
// spec §6's keypair file format.
func SaveKeypairFile(path string, pub PublicKey, sec *SecretKey) error {
	if len(pub) != PublicKeySize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeyFormat, len(pub), PublicKeySize)
	}
	if sec.destroyed {
		return ErrKeyDestroyed
	}

	buf := make([]byte, 0, KeypairFileSize)
	buf = append(buf, pub...)
	buf = append(buf, sec.packed[:]...)

	return os.WriteFile(path, buf, keypairFileMode)
}

// LoadKeypairFile reads a keypair file produced by SaveKeypairFile.
func LoadKeypairFile(path string) (PublicKey, *SecretKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("sealkey: read keypair file: %w", err)
	}
	if len(data) != KeypairFileSize {
		return nil, nil, ErrKeypairFileSize
	}

	pub, err := ParsePublicKey(data[:PublicKeySize])
	if err != nil {
		return nil, nil, err
	}
	sec, err := SecretKeyFromBytes(data[PublicKeySize:])
	if err != nil {
		return nil, nil, err
	}

	return pub, sec, nil
}
