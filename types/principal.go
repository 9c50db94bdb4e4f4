package types

import "context"

type contextKey string

const principalContextKey contextKey = "principal"

// Principal is the authenticated identity of the caller. Verified is false
// when the identity came from a trusted-but-unsigned source such as the
// X-User-ID header.
type Principal struct {
	UserID   string
	Verified bool
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(Principal)
	if !ok || p.UserID == "" {
		return Principal{}, false
	}
	return p, true
}
