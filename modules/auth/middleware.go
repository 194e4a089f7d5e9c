package auth

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/release-agent/core"
)

// SkipFunc determines whether to skip verification for a request.
type SkipFunc func(r *http.Request) bool

// SkipPreflight skips CORS preflight requests. Preflights carry no
// credentials by design, so authenticating them would only break browsers;
// keeping this policy in the middleware keeps the verifier itself free of
// method-based branching.
func SkipPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions
}

// MiddlewareConfig configures the token-authentication middleware.
type MiddlewareConfig struct {
	Verifier *Verifier
	Skip     SkipFunc // Optional request filter to bypass verification (defaults to SkipPreflight)
}

// Middleware creates token-authentication middleware with the default
// preflight skip policy.
func Middleware(verifier *Verifier) func(next http.Handler) http.Handler {
	return MiddlewareWithConfig(MiddlewareConfig{Verifier: verifier, Skip: SkipPreflight})
}

// MiddlewareWithConfig creates token-authentication middleware. Verified
// requests continue with the validated bearer value in the request context.
// The five authentication failures all produce the same uniform 401 body so
// the response does not reveal which internal check failed; infrastructure
// failures from the token store surface as 500.
func MiddlewareWithConfig(config MiddlewareConfig) func(next http.Handler) http.Handler {
	if config.Skip == nil {
		config.Skip = SkipPreflight
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			bearer, err := config.Verifier.Verify(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				if isAuthFailure(err) {
					core.Render(w, r, core.JSONError(core.ErrUnauthorized))
					return
				}
				core.Render(w, r, core.JSONError(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(SetBearer(r.Context(), bearer)))
		})
	}
}

// isAuthFailure reports whether err belongs to the closed verification
// taxonomy, as opposed to an infrastructure failure.
func isAuthFailure(err error) bool {
	return errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrUnknownToken) ||
		errors.Is(err, ErrRevokedToken)
}
