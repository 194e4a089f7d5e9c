package apitoken

import "errors"

var (
	// ErrMalformedToken covers every structural decode failure: short input,
	// non-numeric length suffix, signature length exceeding the token size,
	// and signature or payload mismatch.
	ErrMalformedToken = errors.New("apitoken: malformed token")

	// ErrExpiredToken is returned when the token is structurally valid and
	// correctly signed but its expiry instant has passed.
	ErrExpiredToken = errors.New("apitoken: token is expired")
)
