// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// IdentityKey contains *auth.IdentityClaim
	// Set by: middleware.AuthMiddleware after credential verification
	// Required by: permission middleware, all protected endpoints
	IdentityKey Key = "identity_claim"

	// RequestIDKey contains the request correlation ID (UUID string)
	// Set by: httputil.RequestIDMiddleware
	// Used by: logger, audit events, denial responses
	RequestIDKey Key = "request_id"

	// LoggerKey contains *observability.Logger
	// Set by: observability middleware
	// Used by: handlers that need request-scoped structured logging
	LoggerKey Key = "logger"

	// AuditSinkKey contains audit.Sink
	// Set by: server wiring
	// Used by: handlers and middleware that record audit events
	AuditSinkKey Key = "audit_sink"

	// DecisionKey contains the authz.Decision made for the route
	// Set by: middleware.PermissionMiddleware
	// Used by: handlers that must resolve ownership after loading the resource
	DecisionKey Key = "authz_decision"
)

// WithIdentity adds the verified identity claim to the context.
func WithIdentity(ctx context.Context, claim interface{}) context.Context {
	return context.WithValue(ctx, IdentityKey, claim)
}

// WithRequestID adds the request correlation ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// WithAuditSink adds an audit sink to the context.
func WithAuditSink(ctx context.Context, sink interface{}) context.Context {
	return context.WithValue(ctx, AuditSinkKey, sink)
}

// GetRequestID retrieves the request correlation ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
