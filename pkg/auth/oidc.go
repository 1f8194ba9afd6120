package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/bulletinhq/bulletin/pkg/authz"
)

// OIDCConfig configures the OIDC verifier
type OIDCConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// Claim names mapped into the IdentityClaim. Defaults: "sub" is
	// always the identifier, RoleClaim defaults to "role", NameClaim to
	// "name".
	RoleClaim string
	NameClaim string
}

// OIDCVerifier is a Verifier that validates OIDC ID tokens against a
// discovered provider.
type OIDCVerifier struct {
	provider     *oidc.Provider
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
	roleClaim    string
	nameClaim    string
}

// NewOIDCVerifier discovers the provider and prepares token verification
func NewOIDCVerifier(ctx context.Context, cfg OIDCConfig) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	roleClaim := cfg.RoleClaim
	if roleClaim == "" {
		roleClaim = "role"
	}
	nameClaim := cfg.NameClaim
	if nameClaim == "" {
		nameClaim = "name"
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile"}
	}

	return &OIDCVerifier{
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
		},
		roleClaim: roleClaim,
		nameClaim: nameClaim,
	}, nil
}

// AuthCodeURL returns the provider's authorization URL for a login flow
func (v *OIDCVerifier) AuthCodeURL(state string) string {
	return v.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for the raw ID token
func (v *OIDCVerifier) Exchange(ctx context.Context, code string) (string, error) {
	token, err := v.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: code exchange failed: %v", ErrAuthentication, err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return "", fmt.Errorf("%w: missing id_token in token response", ErrAuthentication)
	}
	return rawIDToken, nil
}

// Verify implements Verifier for raw ID tokens.
//
// The role claim is carried through as-is, even when it is not a
// recognized role: bad role assignment is the gate's configuration-fault
// signal, not an authentication failure.
func (v *OIDCVerifier) Verify(ctx context.Context, credential string) (*IdentityClaim, error) {
	idToken, err := v.verifier.Verify(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: failed to parse claims: %v", ErrAuthentication, err)
	}

	claim := &IdentityClaim{
		ID:          idToken.Subject,
		Role:        authz.Role(stringClaim(claims, v.roleClaim)),
		DisplayName: stringClaim(claims, v.nameClaim),
	}
	if claim.ID == "" {
		return nil, fmt.Errorf("%w: ID token has no subject", ErrAuthentication)
	}
	return claim, nil
}

func stringClaim(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
