// Package posts provides the post model and its in-memory store.
//
// The store is an injected collaborator with explicit ownership-by-
// identifier semantics: every post carries the ID of the identity that
// created it, which the ownership resolver compares against the caller.
package posts

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a post does not exist. It is only ever
// surfaced after authorization succeeds, so a 404 never leaks existence
// to an unauthorized caller.
var ErrNotFound = errors.New("post not found")

// Post is a protected resource with an owner
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is an in-memory post store safe for concurrent use
type Store struct {
	mu    sync.RWMutex
	posts map[string]Post
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{posts: make(map[string]Post)}
}

// Create stores a new post owned by ownerID and returns it
func (s *Store) Create(title, body, ownerID string) Post {
	now := time.Now().UTC()
	post := Post{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.posts[post.ID] = post
	s.mu.Unlock()
	return post
}

// Get returns a post by ID
func (s *Store) Get(id string) (Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.posts[id]
	if !ok {
		return Post{}, ErrNotFound
	}
	return post, nil
}

// List returns all posts, newest first
func (s *Store) List() []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p)
	}
	sortByCreatedDesc(out)
	return out
}

// Update replaces a post's title and body, preserving ownership
func (s *Store) Update(id, title, body string) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return Post{}, ErrNotFound
	}
	post.Title = title
	post.Body = body
	post.UpdatedAt = time.Now().UTC()
	s.posts[id] = post
	return post, nil
}

// Delete removes a post
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func sortByCreatedDesc(posts []Post) {
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
