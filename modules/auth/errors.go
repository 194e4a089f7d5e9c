package auth

import "errors"

// The verifier produces exactly these five failures; anything else coming out
// of Verify is an infrastructure error from the token store and must be
// treated as fatal for the request, not as an authentication decision.
var (
	// ErrMissingCredential covers both an empty bearer value and decoded
	// claims that lack a subject.
	ErrMissingCredential = errors.New("auth: not authenticated")

	// ErrMalformedToken covers every structural decode failure, including
	// signature mismatch.
	ErrMalformedToken = errors.New("auth: malformed token")

	// ErrExpiredToken means the token is correctly signed but past its expiry.
	ErrExpiredToken = errors.New("auth: token is expired")

	// ErrUnknownToken means the identifier hash has no record in the store.
	ErrUnknownToken = errors.New("auth: unknown token")

	// ErrRevokedToken means the stored record or its owning user is inactive.
	ErrRevokedToken = errors.New("auth: token is revoked")
)
