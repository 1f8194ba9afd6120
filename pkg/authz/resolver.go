package authz

// ResolveOwnership finalizes a gate decision against a concrete resource.
//
// A denied decision stays denied. An unconditional grant passes through
// untouched, regardless of owner mismatch. A conditional grant resolves
// to the owner-identity equality; an empty owner never matches, so
// resources without ownership semantics fail closed here.
//
// A mismatch is a genuine authorization denial, not a "not found": the
// caller responds with 403 semantics even though the resource exists.
func ResolveOwnership(d Decision, ownerID, identityID string) bool {
	if !d.Allowed {
		return false
	}
	if !d.OwnershipCheckRequired {
		return true
	}
	return ownerID != "" && ownerID == identityID
}
