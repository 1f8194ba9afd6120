// Package authz implements the authorization decision core: a fixed
// permission matrix, a pure allow/deny gate, and an ownership resolver
// for self-scoped grants.
//
// # Overview
//
// The matrix maps roles to the actions they may perform on each resource.
// Ownership-conditional grants ("only my own posts") are stored under a
// distinct self-scoped resource key and are only consulted when the caller
// opts into ownership-aware evaluation.
//
// A typical evaluation:
//
//	gate := authz.NewGate(authz.DefaultMatrix())
//	d := gate.Decide(identity.Role, authz.ResourcePosts, authz.ActionUpdate, true)
//	switch {
//	case !d.Allowed:
//	    // deny, record audit event, respond 403
//	case d.OwnershipCheckRequired:
//	    // fetch the record, then authz.ResolveOwnership(d, rec.OwnerID, identity.ID)
//	default:
//	    // unconditional grant
//	}
//
// Decide and ResolveOwnership are pure: no I/O, no logging, no store
// lookups. Side effects (auditing, metrics, resource fetches) belong to
// the caller, which keeps the decision logic independently testable and
// safe under unbounded concurrency.
package authz
