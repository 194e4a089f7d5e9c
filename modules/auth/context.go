package auth

import "context"

// contextKey is a private type for context keys to avoid collisions.
type contextKey struct{ name string }

func (c contextKey) String() string { return c.name }

var bearerContextKey = &contextKey{name: "auth_bearer"}

// SetBearer stores the verified bearer value in the context.
func SetBearer(ctx context.Context, bearer string) context.Context {
	return context.WithValue(ctx, bearerContextKey, bearer)
}

// Bearer returns the verified bearer value from the context.
// The second return value is false for unauthenticated requests.
func Bearer(ctx context.Context) (string, bool) {
	bearer, ok := ctx.Value(bearerContextKey).(string)
	return bearer, ok
}
