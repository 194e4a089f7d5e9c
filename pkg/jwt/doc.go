// Package jwt provides generation, parsing, and validation of JSON Web Tokens
// signed with a symmetric HMAC key.
//
// The implementation supports the HS256 and HS512 algorithms, selected at
// Service construction time. A Service accepts any JSON-serialisable claims
// structure; Claims is provided as the shape used by the API-token layer
// (subject + absolute expiry).
//
// # Usage
//
//	svc, err := jwt.NewFromString("super-secret", jwt.HS256)
//	if err != nil {
//	    // handle error
//	}
//
//	token, err := svc.Generate(jwt.Claims{
//	    Subject:   "123",
//	    ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
//	})
//
//	var parsed jwt.Claims
//	if err := svc.Parse(token, &parsed); err != nil {
//	    // handle invalid / expired token
//	}
//
// # Error Handling
//
// Errors such as ErrExpiredToken or ErrInvalidSignature are returned as
// sentinel variables and can be compared using errors.Is.
//
// # Performance Considerations
//
// The package uses only the Go standard library. Signing keys are kept in
// memory only. No reflection is used during normal operation.
package jwt
