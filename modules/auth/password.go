package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Password hashing for interactive admin login. This is a separate primitive
// from the API-token core: passwords are low-entropy human secrets and get a
// deliberately slow KDF, while token identifiers are high-entropy and get a
// single fast digest.
const (
	passwordAlgorithm  = "pbkdf2_sha256"
	passwordIterations = 600_000
	passwordSaltBytes  = 16
	passwordKeyLen     = 32
)

var ErrInvalidPasswordHash = errors.New("auth: invalid password hash")

// HashPassword derives a PBKDF2-SHA256 hash of the raw password and encodes
// it as "pbkdf2_sha256$<iterations>$<salt>$<b64digest>". The iteration count
// is stored in the encoding, so it can be raised without invalidating
// existing hashes.
func HashPassword(raw string) (string, error) {
	salt := make([]byte, passwordSaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("auth: read password salt: %w", err)
	}

	saltEnc := base64.RawStdEncoding.EncodeToString(salt)
	digest := pbkdf2.Key([]byte(raw), []byte(saltEnc), passwordIterations, passwordKeyLen, sha256.New)

	return fmt.Sprintf("%s$%d$%s$%s",
		passwordAlgorithm,
		passwordIterations,
		saltEnc,
		base64.StdEncoding.EncodeToString(digest),
	), nil
}

// VerifyPassword reports whether raw matches the encoded hash.
// Comparison is constant-time over the derived key.
func VerifyPassword(raw, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 || parts[0] != passwordAlgorithm {
		return false, ErrInvalidPasswordHash
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return false, ErrInvalidPasswordHash
	}

	expected, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return false, ErrInvalidPasswordHash
	}

	digest := pbkdf2.Key([]byte(raw), []byte(parts[2]), iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(digest, expected) == 1, nil
}
