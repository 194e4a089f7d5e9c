package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/release-agent/pkg/apitoken"
)

// bearerMarker is removed from the Authorization header value wherever it
// occurs. The removal is deliberately not prefix-anchored: a token supplied
// without the marker at all is accepted unchanged.
const bearerMarker = "Bearer"

// TokenRecord is the revocation-store view of a stored token consulted during
// verification. Verification never mutates it.
type TokenRecord struct {
	ID          int64
	IsActive    bool
	OwnerActive bool
}

// TokenStore is the external revocation store. FindByHash returns (nil, nil)
// when no record matches the hash; a non-nil error is an infrastructure
// failure, never an authentication decision.
type TokenStore interface {
	FindByHash(ctx context.Context, hash string) (*TokenRecord, error)
}

// Verifier runs the end-to-end request-time verification pipeline: extract
// the credential, decode the compact token, validate its claims, hash the
// identifier, and consult the revocation store. Two independent gates must
// both pass: cryptographic validity (stateless, time-based) and store-side
// revocation (stateful).
type Verifier struct {
	codec *apitoken.Codec
	store TokenStore
	log   *slog.Logger
}

// NewVerifier creates a verifier. A nil logger falls back to slog.Default().
func NewVerifier(codec *apitoken.Codec, store TokenStore, log *slog.Logger) *Verifier {
	if log == nil {
		log = slog.Default()
	}
	return &Verifier{codec: codec, store: store, log: log}
}

// Verify authenticates the raw Authorization header value and returns the
// validated credential string for downstream use. Failures are one of the
// five sentinel errors in this package, or the store's own error when the
// lookup itself fails. The store is never queried for tokens that fail the
// cryptographic gate. Context cancellation propagates to the store lookup.
func (v *Verifier) Verify(ctx context.Context, header string) (string, error) {
	credential := strings.TrimSpace(strings.ReplaceAll(header, bearerMarker, ""))
	if credential == "" {
		return "", ErrMissingCredential
	}

	claims, err := v.codec.Decode(credential)
	if err != nil {
		switch {
		case errors.Is(err, apitoken.ErrExpiredToken):
			v.log.InfoContext(ctx, "token rejected", "reason", "expired", "token", truncate(credential, 15))
			return "", ErrExpiredToken
		default:
			v.log.InfoContext(ctx, "token rejected", "reason", "malformed", "token", truncate(credential, 15))
			return "", fmt.Errorf("%w: %s", ErrMalformedToken, err.Error())
		}
	}

	if claims.Subject == "" {
		v.log.InfoContext(ctx, "token rejected", "reason", "no identity")
		return "", fmt.Errorf("%w: token has no identity", ErrMissingCredential)
	}

	record, err := v.store.FindByHash(ctx, apitoken.Hash(claims.Subject))
	if err != nil {
		// Store errors stay infrastructure errors. No retry, no silent bypass.
		return "", fmt.Errorf("auth: token store lookup: %w", err)
	}
	if record == nil {
		v.log.InfoContext(ctx, "token rejected", "reason", "unknown hash")
		return "", ErrUnknownToken
	}
	if !record.IsActive {
		v.log.InfoContext(ctx, "token rejected", "reason", "inactive token", "token_id", record.ID)
		return "", ErrRevokedToken
	}
	if !record.OwnerActive {
		v.log.InfoContext(ctx, "token rejected", "reason", "inactive owner", "token_id", record.ID)
		return "", fmt.Errorf("%w: owner is not active", ErrRevokedToken)
	}

	v.log.DebugContext(ctx, "token verified", "token_id", record.ID)
	return credential, nil
}

// truncate shortens s for log output so full bearer values never land in logs.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
