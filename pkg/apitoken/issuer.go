package apitoken

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dmitrymomot/release-agent/pkg/jwt"
)

// identifierBytes sizes the random token identifier. 8 bytes of CSPRNG
// output (16 hex characters) is a deliberate strengthening over the legacy
// 3-digit+6-hex shape; the identifier travels inside the signed payload, so
// previously issued tokens keep verifying regardless of the shape used for
// new ones.
const identifierBytes = 8

// GeneratedToken is the result of issuing a token. Value is the compact
// bearer string shown to the caller exactly once; HashedValue is the SHA-512
// digest of the identifier and the only part that may be persisted.
type GeneratedToken struct {
	Value       string
	HashedValue string
}

// Issuer mints fresh API tokens. Issuance consumes randomness only and
// performs no I/O.
type Issuer struct {
	codec *Codec
}

// NewIssuer creates an issuer on top of the given codec.
func NewIssuer(codec *Codec) *Issuer {
	return &Issuer{codec: codec}
}

// Issue generates a fresh opaque identifier, signs it into a compact bearer
// token, and returns the bearer value together with the identifier's hash.
// A nil expiresAt issues an unbounded token carrying the far-future sentinel.
func (i *Issuer) Issue(expiresAt *time.Time) (GeneratedToken, error) {
	exp := UnboundedExpiry
	if expiresAt != nil {
		exp = *expiresAt
	}

	identifier, err := newIdentifier()
	if err != nil {
		return GeneratedToken{}, err
	}

	value, err := i.codec.Encode(jwt.Claims{
		Subject:   identifier,
		ExpiresAt: exp.Unix(),
	})
	if err != nil {
		return GeneratedToken{}, err
	}

	return GeneratedToken{
		Value:       value,
		HashedValue: Hash(identifier),
	}, nil
}

// newIdentifier returns a fresh random identifier. It is practically unique
// across issued tokens but carries no uniqueness guarantee; the store's
// unique constraint on the hash is the backstop.
func newIdentifier() (string, error) {
	buf := make([]byte, identifierBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("apitoken: read random identifier: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
