package users

import (
	"context"
	"sync"

	"github.com/bulletinhq/bulletin/pkg/audit"
	"github.com/bulletinhq/bulletin/pkg/auth"
	"github.com/bulletinhq/bulletin/pkg/authz"
	"github.com/bulletinhq/bulletin/pkg/contextkeys"
	"github.com/bulletinhq/bulletin/pkg/observability"
)

// Coordinator serializes role mutations per target user. Concurrent
// ChangeRole calls on the same user never interleave: each mutation
// reads the previous role and writes the new one under that user's
// lock, so the final role is always one of the requested values and
// the audit trail records a consistent previous/new pair per change.
type Coordinator struct {
	store   *Store
	gate    authz.Decider
	sink    audit.Sink
	metrics *observability.Metrics

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCoordinator wires the coordinator to its store, decision gate and
// audit sink. metrics may be nil.
func NewCoordinator(store *Store, gate authz.Decider, sink audit.Sink, metrics *observability.Metrics) *Coordinator {
	if sink == nil {
		sink = audit.NopSink{}
	}
	return &Coordinator{
		store:   store,
		gate:    gate,
		sink:    sink,
		metrics: metrics,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (c *Coordinator) userLock(id string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[id]
	if !ok {
		l = &sync.Mutex{}
		c.locks[id] = l
	}
	return l
}

// ChangeRole assigns newRole to the target user on behalf of actor and
// returns the role the user held before the change.
//
// The new role is validated before anything else; an unknown role fails
// with ErrInvalidRole and leaves no trace in state or the audit log.
// The actor must hold admin:manage_roles; the check is re-asserted here
// even when transport middleware already enforced it, so the mutation
// fails closed if called outside the HTTP path. Exactly one audit event
// is recorded per successful mutation.
func (c *Coordinator) ChangeRole(ctx context.Context, actor auth.IdentityClaim, userID string, newRole authz.Role) (authz.Role, error) {
	if !newRole.Valid() {
		return "", authz.ErrInvalidRole
	}

	decision := c.gate.Decide(actor.Role, authz.ResourceAdmin, authz.ActionManageRoles, false)
	if !decision.Allowed {
		return "", authz.Denied(authz.ResourceAdmin, authz.ActionManageRoles)
	}

	lock := c.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	previous, err := c.store.setRole(userID, newRole)
	if err != nil {
		return "", err
	}

	event := audit.RoleChange(actor, userID, previous, newRole, contextkeys.GetRequestID(ctx))
	audit.Emit(ctx, c.sink, event)
	if c.metrics != nil {
		c.metrics.RoleChangesTotal.WithLabelValues(string(newRole)).Inc()
	}
	return previous, nil
}
