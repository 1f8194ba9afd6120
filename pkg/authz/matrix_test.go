package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultMatrix_UnconditionalGrants(t *testing.T) {
	m := DefaultMatrix()

	// Every role reads posts and the user list unconditionally.
	for _, role := range Roles() {
		assert.True(t, m.Allows(role, ResourcePosts, ActionRead), "%s should read posts", role)
		assert.True(t, m.Allows(role, ResourceUsers, ActionRead), "%s should read users", role)
	}

	assert.True(t, m.Allows(RoleAdmin, ResourcePosts, ActionUpdate))
	assert.True(t, m.Allows(RoleAdmin, ResourcePosts, ActionDelete))
	assert.True(t, m.Allows(RoleAdmin, ResourceAdmin, ActionManageRoles))

	assert.True(t, m.Allows(RoleEditor, ResourcePosts, ActionCreate))
	assert.False(t, m.Allows(RoleEditor, ResourcePosts, ActionUpdate),
		"editor update on posts is self-scoped only")
	assert.False(t, m.Allows(RoleEditor, ResourceAdmin, ActionManageRoles))

	assert.False(t, m.Allows(RoleViewer, ResourcePosts, ActionCreate))
	assert.False(t, m.Allows(RoleViewer, ResourcePosts, ActionDelete))
}

func TestDefaultMatrix_SelfScopedGrants(t *testing.T) {
	m := DefaultMatrix()

	assert.True(t, m.AllowsSelfScoped(RoleEditor, ResourcePosts, ActionUpdate))
	assert.True(t, m.AllowsSelfScoped(RoleEditor, ResourcePosts, ActionDelete))

	// Self-scoped grants exist only for posts update/delete.
	assert.False(t, m.AllowsSelfScoped(RoleEditor, ResourcePosts, ActionCreate))
	assert.False(t, m.AllowsSelfScoped(RoleViewer, ResourcePosts, ActionUpdate))
	assert.False(t, m.AllowsSelfScoped(RoleAdmin, ResourceUsers, ActionUpdate))
}

func TestMatrix_UnknownRoleAndVocabulary(t *testing.T) {
	m := DefaultMatrix()

	assert.False(t, m.Allows(Role("superuser"), ResourcePosts, ActionRead))
	assert.False(t, m.AllowsSelfScoped(Role("superuser"), ResourcePosts, ActionUpdate))

	// Unknown resource/action is a plain "not permitted", not an error.
	assert.False(t, m.Allows(RoleAdmin, Resource("comments"), ActionRead))
	assert.False(t, m.Allows(RoleAdmin, ResourcePosts, Action("publish")))
}

func TestMatrix_SelfScopedKeyIsDistinct(t *testing.T) {
	m := DefaultMatrix()

	// The self-scoped key never satisfies a plain lookup and vice versa.
	assert.False(t, m.Allows(RoleEditor, ResourcePosts, ActionUpdate))
	assert.True(t, m.Allows(RoleEditor, SelfScoped(ResourcePosts), ActionUpdate))
	assert.False(t, m.AllowsSelfScoped(RoleAdmin, ResourcePosts, ActionUpdate),
		"admin's unconditional grant is not duplicated under the self key")
}

func TestNewMatrix_CopiesInput(t *testing.T) {
	grants := map[Role]map[Resource][]Action{
		RoleViewer: {ResourcePosts: {ActionRead}},
	}
	m := NewMatrix(grants)

	// Mutating the source table after construction must not leak in.
	grants[RoleViewer][ResourcePosts] = append(grants[RoleViewer][ResourcePosts], ActionDelete)
	grants[RoleAdmin] = map[Resource][]Action{ResourceAdmin: {ActionManageRoles}}

	assert.True(t, m.Allows(RoleViewer, ResourcePosts, ActionRead))
	assert.False(t, m.Allows(RoleViewer, ResourcePosts, ActionDelete))
	assert.False(t, m.Allows(RoleAdmin, ResourceAdmin, ActionManageRoles))
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("EDITOR")
	assert.NoError(t, err)
	assert.Equal(t, RoleEditor, role)

	_, err = ParseRole("editor")
	assert.ErrorIs(t, err, ErrInvalidRole, "role parsing is case-sensitive")

	_, err = ParseRole("OWNER")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestPermissionString(t *testing.T) {
	p := Permission{Resource: ResourcePosts, Action: ActionUpdate}
	assert.Equal(t, "posts:update", p.String())
}
