package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulletinhq/bulletin/pkg/authz"
)

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore()

	created, err := store.Create("u-1", "alice", "Alice", authz.RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleEditor, created.Role)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := store.Get("u-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, authz.RoleEditor, got.Role)
}

func TestStore_CreateRejectsUnknownRole(t *testing.T) {
	store := NewStore()

	_, err := store.Create("u-1", "alice", "Alice", authz.Role("SUPERUSER"))
	assert.ErrorIs(t, err, authz.ErrInvalidRole)

	_, err = store.Get("u-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_GetMissing(t *testing.T) {
	store := NewStore()

	_, err := store.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListOrdersByUsername(t *testing.T) {
	store := NewStore()

	_, err := store.Create("u-2", "bob", "Bob", authz.RoleViewer)
	require.NoError(t, err)
	_, err = store.Create("u-1", "alice", "Alice", authz.RoleAdmin)
	require.NoError(t, err)

	users := store.List()
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
}

func TestStore_SetRoleReturnsPrevious(t *testing.T) {
	store := NewStore()

	_, err := store.Create("u-1", "alice", "Alice", authz.RoleEditor)
	require.NoError(t, err)

	previous, err := store.setRole("u-1", authz.RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleEditor, previous)

	got, err := store.Get("u-1")
	require.NoError(t, err)
	assert.Equal(t, authz.RoleViewer, got.Role)

	_, err = store.setRole("missing", authz.RoleAdmin)
	assert.ErrorIs(t, err, ErrNotFound)
}
