package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/release-agent/modules/auth"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	newHandler := func(f *verifierFixture) (http.Handler, *string) {
		var seenBearer string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bearer, ok := auth.Bearer(r.Context()); ok {
				seenBearer = bearer
			}
			w.WriteHeader(http.StatusNoContent)
		})
		return auth.Middleware(f.verifier)(next), &seenBearer
	}

	t.Run("verified request reaches handler with bearer in context", func(t *testing.T) {
		f := newFixture(t)
		token := f.issue(t, nil, &auth.TokenRecord{ID: 1, IsActive: true, OwnerActive: true})
		handler, seenBearer := newHandler(f)

		r := httptest.NewRequest(http.MethodGet, "/releases", nil)
		r.Header.Set("Authorization", "Bearer "+token.Value)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, token.Value, *seenBearer)
	})

	t.Run("preflight bypasses verification and the store", func(t *testing.T) {
		f := newFixture(t)
		handler, _ := newHandler(f)

		// No credential at all.
		r := httptest.NewRequest(http.MethodOptions, "/releases", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Zero(t, f.store.calls)
	})

	t.Run("all auth failures produce the same uniform 401 body", func(t *testing.T) {
		f := newFixture(t)
		revoked := f.issue(t, nil, &auth.TokenRecord{ID: 2, IsActive: false, OwnerActive: true})
		unknown := f.issue(t, nil, nil)
		handler, _ := newHandler(f)

		var bodies []string
		for _, header := range []string{"", "Bearer garbage!!", "Bearer " + revoked.Value, "Bearer " + unknown.Value} {
			r := httptest.NewRequest(http.MethodGet, "/releases", nil)
			if header != "" {
				r.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			require.Equal(t, http.StatusUnauthorized, w.Code)
			bodies = append(bodies, w.Body.String())
		}

		// The response must not aid enumeration of which check failed.
		for _, body := range bodies[1:] {
			assert.Equal(t, bodies[0], body)
		}
	})

	t.Run("store failure surfaces as 500 not 401", func(t *testing.T) {
		f := newFixture(t)
		token := f.issue(t, nil, &auth.TokenRecord{ID: 3, IsActive: true, OwnerActive: true})
		f.store.err = assert.AnError
		handler, _ := newHandler(f)

		r := httptest.NewRequest(http.MethodGet, "/releases", nil)
		r.Header.Set("Authorization", "Bearer "+token.Value)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		require.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("custom skip policy", func(t *testing.T) {
		f := newFixture(t)
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		handler := auth.MiddlewareWithConfig(auth.MiddlewareConfig{
			Verifier: f.verifier,
			Skip:     func(r *http.Request) bool { return r.URL.Path == "/health" },
		})(next)

		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		require.Equal(t, http.StatusNoContent, w.Code)

		r = httptest.NewRequest(http.MethodOptions, "/releases", nil)
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
