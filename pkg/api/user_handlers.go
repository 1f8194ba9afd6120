package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bulletinhq/bulletin/pkg/authz"
	"github.com/bulletinhq/bulletin/pkg/httputil"
	"github.com/bulletinhq/bulletin/pkg/middleware"
	"github.com/bulletinhq/bulletin/pkg/users"
)

type changeRoleRequest struct {
	Role string `json:"role"`
}

type changeRoleResponse struct {
	UserID       string `json:"user_id"`
	PreviousRole string `json:"previous_role"`
	NewRole      string `json:"new_role"`
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, s.users.List())
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id := httputil.ParsePathString(mux.Vars(r), "id")

	user, err := s.users.Get(id)
	if err != nil {
		httputil.WriteNotFound(w, "user not found")
		return
	}
	httputil.WriteSuccess(w, user)
}

func (s *Server) changeUserRole(w http.ResponseWriter, r *http.Request) {
	claim := middleware.GetIdentity(r)
	if claim == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	id := httputil.ParsePathString(mux.Vars(r), "id")

	var req changeRoleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	newRole, err := authz.ParseRole(req.Role)
	if err != nil {
		httputil.WriteBadRequest(w, "unknown role: "+req.Role)
		return
	}

	previous, err := s.coordinator.ChangeRole(r.Context(), *claim, id, newRole)
	switch {
	case err == nil:
	case errors.Is(err, authz.ErrInvalidRole):
		httputil.WriteBadRequest(w, "unknown role: "+req.Role)
		return
	case authz.IsDenied(err):
		httputil.WriteForbidden(w, err.Error())
		return
	case errors.Is(err, users.ErrNotFound):
		httputil.WriteNotFound(w, "user not found")
		return
	default:
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, changeRoleResponse{
		UserID:       id,
		PreviousRole: string(previous),
		NewRole:      string(newRole),
	})
}
