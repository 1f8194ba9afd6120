// Package middleware provides HTTP middleware for authentication,
// permission enforcement, and rate limiting.
package middleware

import (
	"net/http"
	"strings"

	"github.com/bulletinhq/bulletin/pkg/auth"
	"github.com/bulletinhq/bulletin/pkg/contextkeys"
	"github.com/bulletinhq/bulletin/pkg/httputil"
)

// AuthMiddleware verifies the bearer credential and attaches the
// resulting identity claim to the request context.
type AuthMiddleware struct {
	verifier auth.Verifier
	optional bool // If true, allow requests without credentials
}

// NewAuthMiddleware creates authentication middleware backed by the
// given verifier
func NewAuthMiddleware(verifier auth.Verifier, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		optional: optional,
	}
}

// Handler wraps an HTTP handler with credential verification
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Format: "Bearer <token>"
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteUnauthorized(w, "invalid authorization header format")
			return
		}

		claim, err := m.verifier.Verify(r.Context(), parts[1])
		if err != nil {
			httputil.WriteUnauthorized(w, "invalid or expired credential")
			return
		}

		ctx := contextkeys.WithIdentity(r.Context(), claim)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentity extracts the verified identity claim from a request.
// Returns nil when the request did not pass authentication.
func GetIdentity(r *http.Request) *auth.IdentityClaim {
	v := r.Context().Value(contextkeys.IdentityKey)
	if v == nil {
		return nil
	}
	claim, ok := v.(*auth.IdentityClaim)
	if !ok {
		return nil
	}
	return claim
}
