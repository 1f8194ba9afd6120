package authz

// Role is one of the closed set of role tags. Values outside the set are
// invalid and are rejected, never coerced.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleViewer Role = "VIEWER"
)

// Roles returns the closed role set.
func Roles() []Role {
	return []Role{RoleAdmin, RoleEditor, RoleViewer}
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// ParseRole validates a raw role string against the closed set.
// Matching is case-sensitive.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// Resource identifies a protected resource kind.
type Resource string

const (
	ResourcePosts Resource = "posts"
	ResourceUsers Resource = "users"
	ResourceAdmin Resource = "admin"
)

// Action is an operation on a resource.
type Action string

const (
	ActionCreate      Action = "create"
	ActionRead        Action = "read"
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionManageRoles Action = "manage_roles"
)

// Permission is a (resource, action) pair.
type Permission struct {
	Resource Resource `json:"resource"`
	Action   Action   `json:"action"`
}

// String renders the permission as "resource:action", the form used in
// denial messages and audit events.
func (p Permission) String() string {
	return string(p.Resource) + ":" + string(p.Action)
}
