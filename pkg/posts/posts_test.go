package posts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CRUD(t *testing.T) {
	store := NewStore()

	created := store.Create("Hello", "first post", "u-1")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "u-1", created.OwnerID)

	got, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated, err := store.Update(created.ID, "Hello again", "edited")
	require.NoError(t, err)
	assert.Equal(t, "Hello again", updated.Title)
	assert.Equal(t, "u-1", updated.OwnerID, "update preserves ownership")
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	require.NoError(t, store.Delete(created.ID))
	_, err = store.Get(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_NotFound(t *testing.T) {
	store := NewStore()

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Update("missing", "t", "b")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete("missing"), ErrNotFound)
}

func TestStore_List(t *testing.T) {
	store := NewStore()
	store.Create("a", "", "u-1")
	store.Create("b", "", "u-2")

	list := store.List()
	assert.Len(t, list, 2)
}
