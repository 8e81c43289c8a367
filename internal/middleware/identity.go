package middleware

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
)

// HeaderUserEmail carries the caller's identity, set by the fronting auth proxy.
const HeaderUserEmail = "X-User-Email"

type identityKey struct{}

// WithIdentity returns a context carrying the caller's email.
func WithIdentity(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, identityKey{}, email)
}

// IdentityFromContext returns the caller's email, or "" for anonymous callers.
func IdentityFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(identityKey{}).(string); ok {
		return v
	}
	return ""
}

// Identity stores the X-User-Email header in the request context. Values
// that are not a bare email address are ignored and the caller stays anonymous.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(HeaderUserEmail))
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		addr, err := mail.ParseAddress(raw)
		if err != nil || addr.Name != "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := WithIdentity(r.Context(), strings.ToLower(addr.Address))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
