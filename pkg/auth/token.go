package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
)

const (
	// TokenPrefix identifies bulletin API tokens
	TokenPrefix = "bltn_"
	// TokenLength is the number of random bytes per token (256 bits)
	TokenLength = 32
)

// TokenGenerator generates and validates opaque API tokens
type TokenGenerator struct{}

// NewTokenGenerator creates a new token generator
func NewTokenGenerator() *TokenGenerator {
	return &TokenGenerator{}
}

// GenerateToken creates a new API token.
// Format: bltn_<base64url(32 random bytes)>
func (tg *TokenGenerator) GenerateToken() (token string, tokenHash string, err error) {
	randomBytes := make([]byte, TokenLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	fullToken := TokenPrefix + base64.RawURLEncoding.EncodeToString(randomBytes)
	return fullToken, tg.HashToken(fullToken), nil
}

// HashToken computes the SHA256 hash of a token for storage and lookup.
// Only hashes are kept; the clear token exists solely in the caller's hands.
func (tg *TokenGenerator) HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// ValidateTokenFormat checks if a token has the correct shape
func (tg *TokenGenerator) ValidateTokenFormat(token string) error {
	if !strings.HasPrefix(token, TokenPrefix) {
		return fmt.Errorf("token must start with %q", TokenPrefix)
	}
	encodedPart := strings.TrimPrefix(token, TokenPrefix)
	if len(encodedPart) == 0 {
		return fmt.Errorf("token is too short")
	}
	if _, err := base64.RawURLEncoding.DecodeString(encodedPart); err != nil {
		return fmt.Errorf("invalid token encoding: %w", err)
	}
	return nil
}

// TokenVerifier is a Verifier backed by an in-process table of issued
// token hashes. It acts as the identity provider for API tokens.
type TokenVerifier struct {
	generator *TokenGenerator
	mu        sync.RWMutex
	byHash    map[string]IdentityClaim
}

// NewTokenVerifier creates an empty token verifier
func NewTokenVerifier() *TokenVerifier {
	return &TokenVerifier{
		generator: NewTokenGenerator(),
		byHash:    make(map[string]IdentityClaim),
	}
}

// Issue mints a token asserting the given claim and returns the clear
// token exactly once. Only the hash is retained.
func (tv *TokenVerifier) Issue(claim IdentityClaim) (string, error) {
	token, hash, err := tv.generator.GenerateToken()
	if err != nil {
		return "", err
	}
	tv.mu.Lock()
	tv.byHash[hash] = claim
	tv.mu.Unlock()
	return token, nil
}

// Register binds an externally supplied token to a claim. Used to
// bootstrap a deployment with a known admin credential.
func (tv *TokenVerifier) Register(token string, claim IdentityClaim) error {
	if err := tv.generator.ValidateTokenFormat(token); err != nil {
		return fmt.Errorf("cannot register token: %w", err)
	}
	tv.mu.Lock()
	tv.byHash[tv.generator.HashToken(token)] = claim
	tv.mu.Unlock()
	return nil
}

// Revoke removes a token from the table
func (tv *TokenVerifier) Revoke(token string) {
	tv.mu.Lock()
	delete(tv.byHash, tv.generator.HashToken(token))
	tv.mu.Unlock()
}

// Verify implements Verifier
func (tv *TokenVerifier) Verify(ctx context.Context, credential string) (*IdentityClaim, error) {
	if err := tv.generator.ValidateTokenFormat(credential); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	tv.mu.RLock()
	claim, ok := tv.byHash[tv.generator.HashToken(credential)]
	tv.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown or revoked token", ErrAuthentication)
	}

	// Copy so the caller cannot mutate the stored claim.
	c := claim
	return &c, nil
}
