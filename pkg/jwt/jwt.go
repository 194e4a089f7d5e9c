package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"hash"
	"strings"
	"time"
)

// HeaderType is the token type carried in the JWT header per RFC 7519.
const HeaderType = "JWT"

// Algorithm identifies the HMAC signing algorithm used by a Service.
type Algorithm string

const (
	HS256 Algorithm = "HS256"
	HS512 Algorithm = "HS512"
)

// hashFunc returns the hash constructor for the algorithm.
func (a Algorithm) hashFunc() (func() hash.Hash, error) {
	switch a {
	case HS256:
		return sha256.New, nil
	case HS512:
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSigningMethod, string(a))
	}
}

// Header represents the JWT header as defined in RFC 7515.
type Header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// Claims is the payload carried inside a signed token. ExpiresAt is a Unix
// timestamp in whole seconds; it is always set on issued tokens, unbounded
// tokens use a far-future sentinel rather than omitting the claim.
type Claims struct {
	Subject   string `json:"sub,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
}

// Valid validates the temporal claims against current time.
// A zero ExpiresAt is treated as unset and is ignored.
func (c Claims) Valid() error {
	if c.ExpiresAt > 0 && time.Now().Unix() > c.ExpiresAt {
		return ErrExpiredToken
	}
	return nil
}

// Service handles token generation and validation using a symmetric HMAC key.
// The signing key is kept in memory only and should be cryptographically secure.
type Service struct {
	signingKey []byte
	algorithm  Algorithm
	newHash    func() hash.Hash
}

// New creates a JWT service with the provided signing key and algorithm.
// The key should be at least 32 bytes for adequate security.
func New(signingKey []byte, algorithm Algorithm) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	hf, err := algorithm.hashFunc()
	if err != nil {
		return nil, err
	}

	return &Service{
		signingKey: signingKey,
		algorithm:  algorithm,
		newHash:    hf,
	}, nil
}

// NewFromString creates a JWT service from a string signing key.
// Convenience wrapper around New() for string-based configuration.
func NewFromString(signingKey string, algorithm Algorithm) (*Service, error) {
	return New([]byte(signingKey), algorithm)
}

// Algorithm returns the configured signing algorithm.
func (s *Service) Algorithm() Algorithm {
	return s.algorithm
}

// Generate creates a signed token with the given claims. The header is fully
// determined by the configured algorithm, so it is byte-identical across calls
// for the same Service configuration.
func (s *Service) Generate(claims any) (string, error) {
	if claims == nil {
		return "", ErrMissingClaims
	}

	header := Header{
		Type:      HeaderType,
		Algorithm: string(s.algorithm),
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", fmt.Errorf("failed to marshal header: %w", err)
	}

	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}

	payload := base64URLEncode(headerJSON) + "." + base64URLEncode(claimsJSON)
	return payload + "." + s.sign(payload), nil
}

// Parse validates a token and unmarshals its claims into the provided structure.
// Performs cryptographic verification, algorithm validation, and temporal
// claim checks when the claims type implements `Valid() error`.
func (s *Service) Parse(tokenString string, claims any) error {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return ErrInvalidToken
	}

	// Constant-time comparison to prevent timing attacks.
	payload := parts[0] + "." + parts[1]
	expectedSignature := s.sign(payload)
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(expectedSignature)) != 1 {
		return ErrInvalidSignature
	}

	headerJSON, err := base64URLDecode(parts[0])
	if err != nil {
		return fmt.Errorf("failed to decode header: %w", err)
	}

	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return fmt.Errorf("failed to unmarshal header: %w", err)
	}

	// Reject tokens using unexpected algorithms to prevent algorithm confusion attacks.
	if header.Algorithm != string(s.algorithm) {
		return ErrUnexpectedSigningMethod
	}

	claimsJSON, err := base64URLDecode(parts[1])
	if err != nil {
		return fmt.Errorf("failed to decode claims: %w", err)
	}

	if err := json.Unmarshal(claimsJSON, claims); err != nil {
		return fmt.Errorf("failed to unmarshal claims: %w", err)
	}

	if validator, ok := claims.(interface{ Valid() error }); ok {
		if err := validator.Valid(); err != nil {
			return err
		}
	}

	return nil
}

// sign creates an HMAC signature for the given payload using the configured
// algorithm. Returns base64url-encoded signature as required by RFC 7515.
func (s *Service) sign(payload string) string {
	h := hmac.New(s.newHash, s.signingKey)
	h.Write([]byte(payload))
	return base64URLEncode(h.Sum(nil))
}

// base64URLEncode encodes data using base64url encoding without padding.
// Padding removal is required by RFC 7515 for JWT tokens.
func base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// base64URLDecode decodes base64url-encoded data without padding.
func base64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
