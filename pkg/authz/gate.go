package authz

// Decision is the gate's verdict. It is an immutable value consumed once
// by the caller. A Decision with OwnershipCheckRequired set is never a
// final outcome: it must flow through ResolveOwnership before any
// state-changing action executes.
type Decision struct {
	Allowed                bool `json:"allowed"`
	OwnershipCheckRequired bool `json:"ownership_check_required"`
}

// Decider is the decision interface consumed by middleware and handlers.
// Gate and CachedGate both implement it.
type Decider interface {
	Decide(role Role, resource Resource, action Action, ownershipCapable bool) Decision
}

// Gate evaluates permissions against an injected matrix.
type Gate struct {
	matrix *Matrix
}

// NewGate creates a gate over a matrix constructed at process start.
func NewGate(matrix *Matrix) *Gate {
	return &Gate{matrix: matrix}
}

// Decide returns the authorization verdict for (role, resource, action).
//
// An unrecognized role denies everything; callers report that as a
// configuration fault, distinct from an ordinary denial. An unconditional
// grant wins over a self-scoped one, so ADMIN never pays an ownership
// check. A self-scoped grant is only consulted when ownershipCapable is
// set, because the caller must be able to produce the resource's owner.
//
// Decide is deterministic and has no observable side effect: no I/O, no
// logging, no resource lookups.
func (g *Gate) Decide(role Role, resource Resource, action Action, ownershipCapable bool) Decision {
	if !role.Valid() {
		return Decision{}
	}
	if g.matrix.Allows(role, resource, action) {
		return Decision{Allowed: true}
	}
	if ownershipCapable && g.matrix.AllowsSelfScoped(role, resource, action) {
		return Decision{Allowed: true, OwnershipCheckRequired: true}
	}
	return Decision{}
}
