package apitoken

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/release-agent/pkg/jwt"
)

// sigLenDigits is the width of the decimal signature-length suffix appended to
// a compact token. A signature segment therefore must not exceed 999 bytes.
const sigLenDigits = 3

// UnboundedExpiry is the sentinel expiry used for tokens issued without an
// explicit expiration. The expiry claim is always present on the wire; an
// "unbounded" token carries this instant rather than omitting the claim.
var UnboundedExpiry = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// Codec converts signed claims to and from the compact wire format:
//
//	payload + signature + lenSuffix
//
// where payload and signature are the base64url segments of the underlying
// JWT (header and dot separators stripped) and lenSuffix is the decimal
// length of the signature segment, left-padded to exactly 3 digits, at the
// very end of the string.
//
// Dropping the header keeps issued tokens short; the header is a pure
// function of the signing configuration, so it is computed once at
// construction and reused for every Decode. A Codec is immutable and safe
// for unlimited concurrent use.
type Codec struct {
	svc    *jwt.Service
	header string
}

// NewCodec creates a compact codec on top of the given signing service.
// The canonical header segment is derived once by signing a probe claim;
// it depends only on the service configuration, never on claim values.
func NewCodec(svc *jwt.Service) (*Codec, error) {
	if svc == nil {
		return nil, errors.New("apitoken: nil jwt service")
	}

	probe, err := svc.Generate(jwt.Claims{Subject: "probe"})
	if err != nil {
		return nil, fmt.Errorf("apitoken: derive canonical header: %w", err)
	}
	header, _, ok := strings.Cut(probe, ".")
	if !ok {
		return nil, errors.New("apitoken: unexpected token structure")
	}

	return &Codec{svc: svc, header: header}, nil
}

// Encode signs the claims and serializes them into the compact format.
func (c *Codec) Encode(claims jwt.Claims) (string, error) {
	token, err := c.svc.Generate(claims)
	if err != nil {
		return "", fmt.Errorf("apitoken: sign claims: %w", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", errors.New("apitoken: unexpected token structure")
	}
	payload, signature := parts[1], parts[2]
	if len(signature) > 999 {
		return "", fmt.Errorf("apitoken: signature segment too long: %d", len(signature))
	}

	return fmt.Sprintf("%s%s%0*d", payload, signature, sigLenDigits, len(signature)), nil
}

// Decode reconstructs the full signed token from its compact form and
// verifies it. It returns ErrMalformedToken for any structural problem
// (short input, non-numeric length suffix, out-of-range signature length,
// signature mismatch) and ErrExpiredToken when the claims are valid but past
// their expiry.
func (c *Codec) Decode(token string) (jwt.Claims, error) {
	if len(token) <= sigLenDigits {
		return jwt.Claims{}, fmt.Errorf("%w: token too short", ErrMalformedToken)
	}

	body, lenSuffix := token[:len(token)-sigLenDigits], token[len(token)-sigLenDigits:]
	if !isNumeric(lenSuffix) {
		return jwt.Claims{}, fmt.Errorf("%w: invalid length suffix %q", ErrMalformedToken, lenSuffix)
	}
	sigLen, _ := strconv.Atoi(lenSuffix)
	if sigLen > len(body) {
		return jwt.Claims{}, fmt.Errorf("%w: signature length %d exceeds token size", ErrMalformedToken, sigLen)
	}

	payload, signature := body[:len(body)-sigLen], body[len(body)-sigLen:]

	var claims jwt.Claims
	if err := c.svc.Parse(c.header+"."+payload+"."+signature, &claims); err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return jwt.Claims{}, ErrExpiredToken
		}
		return jwt.Claims{}, fmt.Errorf("%w: %s", ErrMalformedToken, err.Error())
	}

	return claims, nil
}

// isNumeric reports whether s is non-empty and consists of ASCII digits only.
// strconv.Atoi is too permissive here: it accepts a leading sign.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
