// Package apitoken implements the compact API-token scheme used for
// machine-to-machine authentication.
//
// A token is a standard HMAC-signed JWT with the header segment and dot
// separators stripped, and the decimal length of the signature segment
// (left-padded to exactly 3 digits) appended at the end:
//
//	payload + signature + lenSuffix
//
// Example of an issued token:
//
//	daszAuxGG7vnhek8EPXT3Blbsign123456789g049
//
// where "049" says the preceding 49 characters are the signature segment and
// everything before them is the payload. The header is a pure function of the
// signing configuration, so Codec reconstructs it locally on decode.
//
// The token's subject is an opaque random identifier. Only the SHA-512 hex
// digest of that identifier (see Hash) is ever stored; the bearer value is
// shown to the operator once at issuance and is not retrievable afterwards.
//
// # Architecture
//
//   - Codec – compact encode/decode on top of pkg/jwt.
//   - Issuer – mints fresh identifiers and bearer values.
//   - Hash – deterministic one-way digest for storage and lookup keys.
//
// All three are pure given a fixed configuration and safe for unlimited
// concurrent use.
//
// # Error Handling
//
// Decode returns ErrMalformedToken or ErrExpiredToken, comparable with
// errors.Is. Revocation is a separate, store-side concern handled by the
// verification layer.
package apitoken
