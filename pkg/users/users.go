// Package users provides the user model, its in-memory store, and the
// coordinator that serializes privileged role mutations.
package users

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/bulletinhq/bulletin/pkg/authz"
)

// ErrNotFound is returned when a user does not exist
var ErrNotFound = errors.New("user not found")

// User is an account with an assigned role
type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name"`
	Role        authz.Role `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Store is an in-memory user store safe for concurrent use. A read
// concurrent with a role write to the same user observes either the old
// or the new role atomically; the RWMutex rules out torn values.
type Store struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{users: make(map[string]User)}
}

// Create adds a user. The role must be in the closed set; unknown values
// are rejected at assignment time, never coerced.
func (s *Store) Create(id, username, displayName string, role authz.Role) (User, error) {
	if !role.Valid() {
		return User{}, authz.ErrInvalidRole
	}

	now := time.Now().UTC()
	user := User{
		ID:          id,
		Username:    username,
		DisplayName: displayName,
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.users[id] = user
	s.mu.Unlock()
	return user, nil
}

// Get returns a user by ID
func (s *Store) Get(id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

// List returns all users ordered by username
func (s *Store) List() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// setRole swaps a user's role and returns the previous one. Role
// validity and mutation ordering are the coordinator's responsibility.
func (s *Store) setRole(id string, role authz.Role) (authz.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return "", ErrNotFound
	}
	previous := user.Role
	user.Role = role
	user.UpdatedAt = time.Now().UTC()
	s.users[id] = user
	return previous, nil
}
