package apitoken

import (
	"crypto/sha512"
	"encoding/hex"
)

// Hash returns the SHA-512 digest of the identifier as a 128-character
// lowercase hex string. The digest is the only representation of the
// credential that is ever persisted: it is computed at issuance to produce
// the storage key and again at verification to produce the lookup key.
func Hash(identifier string) string {
	sum := sha512.Sum512([]byte(identifier))
	return hex.EncodeToString(sum[:])
}
