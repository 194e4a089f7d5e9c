package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/release-agent/modules/auth"
	"github.com/dmitrymomot/release-agent/pkg/apitoken"
	"github.com/dmitrymomot/release-agent/pkg/jwt"
)

// fakeStore is an in-memory revocation store keyed by identifier hash.
type fakeStore struct {
	records map[string]*auth.TokenRecord
	err     error
	calls   int
}

func (s *fakeStore) FindByHash(ctx context.Context, hash string) (*auth.TokenRecord, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.records[hash], nil
}

type verifierFixture struct {
	codec    *apitoken.Codec
	issuer   *apitoken.Issuer
	store    *fakeStore
	verifier *auth.Verifier
}

func newFixture(t *testing.T) *verifierFixture {
	t.Helper()
	svc, err := jwt.NewFromString("verifier-test-secret", jwt.HS256)
	require.NoError(t, err)
	codec, err := apitoken.NewCodec(svc)
	require.NoError(t, err)

	store := &fakeStore{records: make(map[string]*auth.TokenRecord)}
	return &verifierFixture{
		codec:    codec,
		issuer:   apitoken.NewIssuer(codec),
		store:    store,
		verifier: auth.NewVerifier(codec, store, nil),
	}
}

// issue mints a token and registers its hash in the fake store.
func (f *verifierFixture) issue(t *testing.T, expiresAt *time.Time, record *auth.TokenRecord) apitoken.GeneratedToken {
	t.Helper()
	token, err := f.issuer.Issue(expiresAt)
	require.NoError(t, err)
	if record != nil {
		f.store.records[token.HashedValue] = record
	}
	return token
}

func TestVerify(t *testing.T) {
	t.Parallel()

	t.Run("unbounded token against active record succeeds", func(t *testing.T) {
		f := newFixture(t)
		token := f.issue(t, nil, &auth.TokenRecord{ID: 1, IsActive: true, OwnerActive: true})

		claims, err := f.codec.Decode(token.Value)
		require.NoError(t, err)
		assert.Equal(t, apitoken.UnboundedExpiry.Unix(), claims.ExpiresAt)

		bearer, err := f.verifier.Verify(context.Background(), "Bearer "+token.Value)
		require.NoError(t, err)
		assert.Equal(t, token.Value, bearer)
	})

	t.Run("future expiry succeeds and returns validated credential", func(t *testing.T) {
		f := newFixture(t)
		exp := time.Now().Add(time.Hour)
		token := f.issue(t, &exp, &auth.TokenRecord{ID: 2, IsActive: true, OwnerActive: true})

		bearer, err := f.verifier.Verify(context.Background(), "Bearer "+token.Value)
		require.NoError(t, err)
		assert.Equal(t, token.Value, bearer)
	})

	t.Run("expired token fails before the store is queried", func(t *testing.T) {
		f := newFixture(t)
		exp := time.Now().Add(-time.Hour)
		token := f.issue(t, &exp, &auth.TokenRecord{ID: 3, IsActive: true, OwnerActive: true})

		_, err := f.verifier.Verify(context.Background(), "Bearer "+token.Value)
		require.ErrorIs(t, err, auth.ErrExpiredToken)
		assert.Zero(t, f.store.calls)
	})

	t.Run("valid token with no matching hash is unknown", func(t *testing.T) {
		f := newFixture(t)
		token := f.issue(t, nil, nil)

		_, err := f.verifier.Verify(context.Background(), "Bearer "+token.Value)
		require.ErrorIs(t, err, auth.ErrUnknownToken)
		assert.Equal(t, 1, f.store.calls)
	})

	t.Run("inactive record is revoked", func(t *testing.T) {
		f := newFixture(t)
		token := f.issue(t, nil, &auth.TokenRecord{ID: 4, IsActive: false, OwnerActive: true})

		_, err := f.verifier.Verify(context.Background(), "Bearer "+token.Value)
		require.ErrorIs(t, err, auth.ErrRevokedToken)
	})

	t.Run("inactive owner is revoked", func(t *testing.T) {
		f := newFixture(t)
		token := f.issue(t, nil, &auth.TokenRecord{ID: 5, IsActive: true, OwnerActive: false})

		_, err := f.verifier.Verify(context.Background(), "Bearer "+token.Value)
		require.ErrorIs(t, err, auth.ErrRevokedToken)
	})

	t.Run("empty header is missing credential", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.verifier.Verify(context.Background(), "")
		require.ErrorIs(t, err, auth.ErrMissingCredential)
		assert.Zero(t, f.store.calls)
	})

	t.Run("bare marker is missing credential", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.verifier.Verify(context.Background(), "Bearer   ")
		require.ErrorIs(t, err, auth.ErrMissingCredential)
	})

	t.Run("token without marker is accepted", func(t *testing.T) {
		f := newFixture(t)
		token := f.issue(t, nil, &auth.TokenRecord{ID: 6, IsActive: true, OwnerActive: true})

		bearer, err := f.verifier.Verify(context.Background(), token.Value)
		require.NoError(t, err)
		assert.Equal(t, token.Value, bearer)
	})

	t.Run("garbage token is malformed", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.verifier.Verify(context.Background(), "Bearer not-a-real-token-000")
		require.ErrorIs(t, err, auth.ErrMalformedToken)
		assert.Zero(t, f.store.calls)
	})

	t.Run("token with empty subject is missing credential", func(t *testing.T) {
		f := newFixture(t)
		value, err := f.codec.Encode(jwt.Claims{ExpiresAt: time.Now().Add(time.Hour).Unix()})
		require.NoError(t, err)

		_, err = f.verifier.Verify(context.Background(), "Bearer "+value)
		require.ErrorIs(t, err, auth.ErrMissingCredential)
		assert.Zero(t, f.store.calls)
	})

	t.Run("store error propagates as infrastructure failure", func(t *testing.T) {
		f := newFixture(t)
		token := f.issue(t, nil, &auth.TokenRecord{ID: 7, IsActive: true, OwnerActive: true})
		storeErr := errors.New("pg: connection refused")
		f.store.err = storeErr

		_, err := f.verifier.Verify(context.Background(), "Bearer "+token.Value)
		require.ErrorIs(t, err, storeErr)

		// Never coerced into the auth taxonomy.
		assert.NotErrorIs(t, err, auth.ErrUnknownToken)
		assert.NotErrorIs(t, err, auth.ErrRevokedToken)

		// Exactly one lookup: no automatic retry on store errors.
		assert.Equal(t, 1, f.store.calls)
	})

	t.Run("cancelled context reaches the store lookup", func(t *testing.T) {
		f := newFixture(t)
		token := f.issue(t, nil, &auth.TokenRecord{ID: 8, IsActive: true, OwnerActive: true})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.verifier.Verify(ctx, "Bearer "+token.Value)
		require.ErrorIs(t, err, context.Canceled)
	})
}
