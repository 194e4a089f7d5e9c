package jwt_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/release-agent/pkg/jwt"
)

func TestNew(t *testing.T) {
	t.Parallel()
	t.Run("with valid signing key", func(t *testing.T) {
		service, err := jwt.New([]byte("secret"), jwt.HS256)
		require.NoError(t, err)
		require.NotNil(t, service)
	})

	t.Run("with empty signing key", func(t *testing.T) {
		service, err := jwt.New([]byte{}, jwt.HS256)
		require.Error(t, err)
		require.Equal(t, jwt.ErrMissingSigningKey, err)
		require.Nil(t, service)
	})

	t.Run("with unsupported algorithm", func(t *testing.T) {
		service, err := jwt.New([]byte("secret"), jwt.Algorithm("RS256"))
		require.Error(t, err)
		require.ErrorIs(t, err, jwt.ErrInvalidSigningMethod)
		require.Nil(t, service)
	})
}

func TestGenerate(t *testing.T) {
	t.Parallel()
	service, err := jwt.New([]byte("secret"), jwt.HS256)
	require.NoError(t, err)

	t.Run("produces three segments", func(t *testing.T) {
		token, err := service.Generate(jwt.Claims{
			Subject:   "user123",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		})
		require.NoError(t, err)
		require.NotEmpty(t, token)
		assert.Len(t, strings.Split(token, "."), 3)
	})

	t.Run("header is identical across calls", func(t *testing.T) {
		a, err := service.Generate(jwt.Claims{Subject: "a"})
		require.NoError(t, err)
		b, err := service.Generate(jwt.Claims{Subject: "bbbbbb"})
		require.NoError(t, err)

		assert.Equal(t, strings.SplitN(a, ".", 2)[0], strings.SplitN(b, ".", 2)[0])
	})

	t.Run("with nil claims", func(t *testing.T) {
		token, err := service.Generate(nil)
		require.Error(t, err)
		require.Equal(t, jwt.ErrMissingClaims, err)
		require.Empty(t, token)
	})
}

func TestParse(t *testing.T) {
	t.Parallel()
	service, err := jwt.New([]byte("secret"), jwt.HS256)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		exp := time.Now().Add(time.Hour).Unix()
		token, err := service.Generate(jwt.Claims{Subject: "user123", ExpiresAt: exp})
		require.NoError(t, err)

		var parsed jwt.Claims
		require.NoError(t, service.Parse(token, &parsed))
		assert.Equal(t, "user123", parsed.Subject)
		assert.Equal(t, exp, parsed.ExpiresAt)
	})

	t.Run("with malformed token", func(t *testing.T) {
		var parsed jwt.Claims
		err := service.Parse("not-a-token", &parsed)
		require.Equal(t, jwt.ErrInvalidToken, err)
	})

	t.Run("with tampered signature", func(t *testing.T) {
		token, err := service.Generate(jwt.Claims{Subject: "user123"})
		require.NoError(t, err)

		var parsed jwt.Claims
		err = service.Parse(token+"x", &parsed)
		require.Equal(t, jwt.ErrInvalidSignature, err)
	})

	t.Run("with wrong signing key", func(t *testing.T) {
		other, err := jwt.New([]byte("other-secret"), jwt.HS256)
		require.NoError(t, err)

		token, err := service.Generate(jwt.Claims{Subject: "user123"})
		require.NoError(t, err)

		var parsed jwt.Claims
		err = other.Parse(token, &parsed)
		require.Equal(t, jwt.ErrInvalidSignature, err)
	})

	t.Run("with expired token", func(t *testing.T) {
		token, err := service.Generate(jwt.Claims{
			Subject:   "user123",
			ExpiresAt: time.Now().Add(-time.Hour).Unix(),
		})
		require.NoError(t, err)

		var parsed jwt.Claims
		err = service.Parse(token, &parsed)
		require.Equal(t, jwt.ErrExpiredToken, err)
	})

	t.Run("algorithm mismatch across services", func(t *testing.T) {
		hs512, err := jwt.New([]byte("secret"), jwt.HS512)
		require.NoError(t, err)

		token, err := hs512.Generate(jwt.Claims{Subject: "user123"})
		require.NoError(t, err)

		// Signature differs between algorithms, so the HS256 service rejects it
		// before ever reading the header.
		var parsed jwt.Claims
		err = service.Parse(token, &parsed)
		require.Equal(t, jwt.ErrInvalidSignature, err)
	})
}

func TestHS512(t *testing.T) {
	t.Parallel()
	service, err := jwt.New([]byte("secret"), jwt.HS512)
	require.NoError(t, err)
	assert.Equal(t, jwt.HS512, service.Algorithm())

	token, err := service.Generate(jwt.Claims{
		Subject:   "user123",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	var parsed jwt.Claims
	require.NoError(t, service.Parse(token, &parsed))
	assert.Equal(t, "user123", parsed.Subject)
}
