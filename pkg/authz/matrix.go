package authz

// selfScopedPrefix marks ownership-conditional grant keys. "self_posts"
// is a distinct lookup key from "posts": it is only consulted through
// AllowsSelfScoped, never by a plain Allows lookup.
const selfScopedPrefix = "self_"

// SelfScoped returns the ownership-conditional key variant of a resource.
func SelfScoped(r Resource) Resource {
	return Resource(selfScopedPrefix + string(r))
}

type actionSet map[Action]struct{}

func newActionSet(actions []Action) actionSet {
	s := make(actionSet, len(actions))
	for _, a := range actions {
		s[a] = struct{}{}
	}
	return s
}

// Matrix is the static role -> resource -> allowed actions table.
// It is read-only after construction; nothing mutates it at request time.
type Matrix struct {
	grants map[Role]map[Resource]actionSet
}

// NewMatrix builds a matrix from a grant table. The input is copied, so
// callers cannot alias the internal state afterwards.
func NewMatrix(grants map[Role]map[Resource][]Action) *Matrix {
	m := &Matrix{grants: make(map[Role]map[Resource]actionSet, len(grants))}
	for role, byResource := range grants {
		rm := make(map[Resource]actionSet, len(byResource))
		for resource, actions := range byResource {
			rm[resource] = newActionSet(actions)
		}
		m.grants[role] = rm
	}
	return m
}

// DefaultMatrix returns the built-in permission table.
//
// posts:read is an unconditional grant for every role; there is no
// row-level read filtering. EDITOR's update/delete on posts exist only as
// self-scoped grants, pending an ownership match.
func DefaultMatrix() *Matrix {
	return NewMatrix(map[Role]map[Resource][]Action{
		RoleAdmin: {
			ResourcePosts: {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
			ResourceUsers: {ActionRead},
			ResourceAdmin: {ActionManageRoles},
		},
		RoleEditor: {
			ResourcePosts:            {ActionCreate, ActionRead},
			SelfScoped(ResourcePosts): {ActionUpdate, ActionDelete},
			ResourceUsers:            {ActionRead},
		},
		RoleViewer: {
			ResourcePosts: {ActionRead},
			ResourceUsers: {ActionRead},
		},
	})
}

// Allows reports whether role holds an unconditional grant for action on
// resource. Unknown roles, resources, and actions all report false;
// absence of a grant is the normal "not permitted" case, not an error.
func (m *Matrix) Allows(role Role, resource Resource, action Action) bool {
	byResource, ok := m.grants[role]
	if !ok {
		return false
	}
	actions, ok := byResource[resource]
	if !ok {
		return false
	}
	_, ok = actions[action]
	return ok
}

// AllowsSelfScoped reports whether role holds an ownership-conditional
// grant for action on resource.
func (m *Matrix) AllowsSelfScoped(role Role, resource Resource, action Action) bool {
	return m.Allows(role, SelfScoped(resource), action)
}
