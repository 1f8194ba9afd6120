package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bulletinhq/bulletin/pkg/authz"
	"github.com/bulletinhq/bulletin/pkg/httputil"
	"github.com/bulletinhq/bulletin/pkg/middleware"
	"github.com/bulletinhq/bulletin/pkg/posts"
)

type createPostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type updatePostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	claim := middleware.GetIdentity(r)
	if claim == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var req createPostRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Title == "" {
		httputil.WriteBadRequest(w, "title is required")
		return
	}

	post := s.posts.Create(req.Title, req.Body, claim.ID)
	httputil.WriteCreated(w, post)
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, s.posts.List())
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	id := httputil.ParsePathString(mux.Vars(r), "id")

	post, err := s.posts.Get(id)
	if err != nil {
		httputil.WriteNotFound(w, "post not found")
		return
	}
	httputil.WriteSuccess(w, post)
}

// updatePost completes the ownership check the route middleware left
// open. The order matters: a missing post is reported as 404 only to
// callers whose permission already passed, and an existing post owned
// by someone else is 403, never 404, so the denial does not disclose
// anything the caller could not already see via posts:read.
func (s *Server) updatePost(w http.ResponseWriter, r *http.Request) {
	claim := middleware.GetIdentity(r)
	if claim == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	id := httputil.ParsePathString(mux.Vars(r), "id")

	post, err := s.posts.Get(id)
	if err != nil {
		httputil.WriteNotFound(w, "post not found")
		return
	}

	decision := middleware.GetDecision(r)
	if !authz.ResolveOwnership(decision, post.OwnerID, claim.ID) {
		httputil.WriteForbidden(w, "access denied: missing permission "+authz.Permission{Resource: authz.ResourcePosts, Action: authz.ActionUpdate}.String())
		return
	}

	var req updatePostRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Title == "" {
		httputil.WriteBadRequest(w, "title is required")
		return
	}

	updated, err := s.posts.Update(id, req.Title, req.Body)
	if err != nil {
		if errors.Is(err, posts.ErrNotFound) {
			httputil.WriteNotFound(w, "post not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, updated)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	claim := middleware.GetIdentity(r)
	if claim == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	id := httputil.ParsePathString(mux.Vars(r), "id")

	post, err := s.posts.Get(id)
	if err != nil {
		httputil.WriteNotFound(w, "post not found")
		return
	}

	decision := middleware.GetDecision(r)
	if !authz.ResolveOwnership(decision, post.OwnerID, claim.ID) {
		httputil.WriteForbidden(w, "access denied: missing permission "+authz.Permission{Resource: authz.ResourcePosts, Action: authz.ActionDelete}.String())
		return
	}

	if err := s.posts.Delete(id); err != nil {
		if errors.Is(err, posts.ErrNotFound) {
			httputil.WriteNotFound(w, "post not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
