package middleware

import (
	"context"
	"net/http"

	"github.com/bulletinhq/bulletin/pkg/audit"
	"github.com/bulletinhq/bulletin/pkg/authz"
	"github.com/bulletinhq/bulletin/pkg/contextkeys"
	"github.com/bulletinhq/bulletin/pkg/httputil"
	"github.com/bulletinhq/bulletin/pkg/observability"
)

// PermissionMiddleware enforces matrix decisions on routes. Denials are
// rejected here, before any handler or store is reached, so a caller
// without the permission cannot learn whether the target resource
// exists. Routes whose grant may be ownership scoped pass through with
// the decision attached; the handler resolves ownership after loading
// the resource.
type PermissionMiddleware struct {
	gate    authz.Decider
	sink    audit.Sink
	metrics *observability.Metrics
}

// NewPermissionMiddleware creates permission enforcement middleware.
// sink and metrics may be nil.
func NewPermissionMiddleware(gate authz.Decider, sink audit.Sink, metrics *observability.Metrics) *PermissionMiddleware {
	if sink == nil {
		sink = audit.NopSink{}
	}
	return &PermissionMiddleware{gate: gate, sink: sink, metrics: metrics}
}

// Require returns middleware enforcing (resource, action) with no
// ownership escape hatch. Used for routes where the grant is either
// unconditional or absent.
func (m *PermissionMiddleware) Require(resource authz.Resource, action authz.Action) func(http.Handler) http.Handler {
	return m.require(resource, action, false)
}

// RequireOwnershipCapable returns middleware enforcing (resource,
// action) on a route that can resolve ownership. A self-scoped grant
// passes here and the handler completes the check against the loaded
// resource's owner.
func (m *PermissionMiddleware) RequireOwnershipCapable(resource authz.Resource, action authz.Action) func(http.Handler) http.Handler {
	return m.require(resource, action, true)
}

func (m *PermissionMiddleware) require(resource authz.Resource, action authz.Action, ownershipCapable bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claim := GetIdentity(r)
			if claim == nil {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}

			ctx := r.Context()
			perm := authz.Permission{Resource: resource, Action: action}

			if !claim.Role.Valid() {
				// A verified identity carrying a role outside the
				// recognized set is a configuration fault, not an
				// ordinary denial. The caller sees a plain 403.
				audit.Emit(ctx, m.sink, audit.ConfigFault(*claim, perm, contextkeys.GetRequestID(ctx)))
				if m.metrics != nil {
					m.metrics.ConfigFaultsTotal.Inc()
					m.metrics.ObserveDecision(string(resource), string(action), "configuration_fault")
				}
				observability.FromContext(ctx).
					WithField("role", string(claim.Role)).
					WithField("permission", perm.String()).
					Error("identity carries unrecognized role")
				httputil.WriteForbidden(w, "access denied: missing permission "+perm.String())
				return
			}

			decision := m.gate.Decide(claim.Role, resource, action, ownershipCapable)
			if !decision.Allowed {
				audit.Emit(ctx, m.sink, audit.Denial(*claim, perm, contextkeys.GetRequestID(ctx)))
				if m.metrics != nil {
					m.metrics.ObserveDecision(string(resource), string(action), "denied")
					m.metrics.AuthzDenialsTotal.WithLabelValues(perm.String()).Inc()
				}
				httputil.WriteForbidden(w, "access denied: missing permission "+perm.String())
				return
			}

			if m.metrics != nil {
				m.metrics.ObserveDecision(string(resource), string(action), "allowed")
			}
			next.ServeHTTP(w, r.WithContext(withDecision(ctx, decision)))
		})
	}
}

func withDecision(ctx context.Context, d authz.Decision) context.Context {
	return context.WithValue(ctx, contextkeys.DecisionKey, d)
}

// GetDecision extracts the route decision from a request. The zero
// Decision denies, so a handler reached without the middleware stays
// closed.
func GetDecision(r *http.Request) authz.Decision {
	d, _ := r.Context().Value(contextkeys.DecisionKey).(authz.Decision)
	return d
}
