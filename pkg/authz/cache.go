package authz

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// decisionKey identifies one gate evaluation. The matrix is fixed for the
// process lifetime, so a cached decision never goes stale.
type decisionKey struct {
	role             Role
	resource         Resource
	action           Action
	ownershipCapable bool
}

// CachedGate memoizes gate decisions in an LRU cache. The working set is
// tiny (roles x resources x actions), so even a small cache converges to
// an all-hit steady state.
type CachedGate struct {
	gate  *Gate
	cache *lru.Cache[decisionKey, Decision]
}

// NewCachedGate wraps a gate with an LRU of the given size.
func NewCachedGate(gate *Gate, size int) (*CachedGate, error) {
	cache, err := lru.New[decisionKey, Decision](size)
	if err != nil {
		return nil, err
	}
	return &CachedGate{gate: gate, cache: cache}, nil
}

// Decide returns the cached verdict, computing and storing it on a miss.
func (cg *CachedGate) Decide(role Role, resource Resource, action Action, ownershipCapable bool) Decision {
	key := decisionKey{role: role, resource: resource, action: action, ownershipCapable: ownershipCapable}
	if d, ok := cg.cache.Get(key); ok {
		return d
	}
	d := cg.gate.Decide(role, resource, action, ownershipCapable)
	cg.cache.Add(key, d)
	return d
}

// Len returns the number of cached decisions.
func (cg *CachedGate) Len() int {
	return cg.cache.Len()
}
