package auth

import (
	"context"
	"errors"

	"github.com/bulletinhq/bulletin/pkg/authz"
)

// IdentityClaim is the authenticated principal: role, identifier, and
// display name. It is constructed once per request by a Verifier and is
// immutable for the request's lifetime.
type IdentityClaim struct {
	ID          string     `json:"id"`
	Role        authz.Role `json:"role"`
	DisplayName string     `json:"display_name"`
}

// ErrAuthentication covers missing, invalid, and expired credentials.
// It is surfaced to the caller as 401 and never retried.
var ErrAuthentication = errors.New("authentication failed")

// Verifier turns a raw credential into an identity claim.
type Verifier interface {
	// Verify validates credential and returns the claim it asserts.
	// Any failure wraps ErrAuthentication.
	Verify(ctx context.Context, credential string) (*IdentityClaim, error)
}
