// Package api wires the HTTP surface: routing, per-route permission
// enforcement, and the handlers for posts, users, and role management.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bulletinhq/bulletin/pkg/audit"
	"github.com/bulletinhq/bulletin/pkg/auth"
	"github.com/bulletinhq/bulletin/pkg/authz"
	"github.com/bulletinhq/bulletin/pkg/httputil"
	"github.com/bulletinhq/bulletin/pkg/middleware"
	"github.com/bulletinhq/bulletin/pkg/observability"
	"github.com/bulletinhq/bulletin/pkg/posts"
	"github.com/bulletinhq/bulletin/pkg/users"
)

// Server is the API server
type Server struct {
	router      *mux.Router
	posts       *posts.Store
	users       *users.Store
	coordinator *users.Coordinator
	verifier    auth.Verifier
	gate        authz.Decider
	sink        audit.Sink
	metrics     *observability.Metrics
	logger      *observability.Logger
	rateLimit   func(http.Handler) http.Handler
	tracing     bool
}

// Option configures the server
type Option func(*Server)

// WithMetrics attaches Prometheus metrics to the request path
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the server logger
func WithLogger(l *observability.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithTracing wraps the handler chain in OpenTelemetry instrumentation
func WithTracing() Option {
	return func(s *Server) { s.tracing = true }
}

// WithRateLimit applies a rate limiting middleware after authentication
// so limits key on the verified identity
func WithRateLimit(rl func(http.Handler) http.Handler) Option {
	return func(s *Server) { s.rateLimit = rl }
}

// NewServer creates the API server and registers all routes
func NewServer(postStore *posts.Store, userStore *users.Store, coordinator *users.Coordinator, verifier auth.Verifier, gate authz.Decider, sink audit.Sink, opts ...Option) *Server {
	if sink == nil {
		sink = audit.NopSink{}
	}
	s := &Server{
		router:      mux.NewRouter(),
		posts:       postStore,
		users:       userStore,
		coordinator: coordinator,
		verifier:    verifier,
		gate:        gate,
		sink:        sink,
		logger:      observability.NewLogger(observability.InfoLevel, nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	authn := middleware.NewAuthMiddleware(s.verifier, false)
	perms := middleware.NewPermissionMiddleware(s.gate, s.sink, s.metrics)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(mux.MiddlewareFunc(httputil.RequestIDMiddleware))
	api.Use(mux.MiddlewareFunc(httputil.RecoveryMiddleware))
	api.Use(s.contextMiddleware)
	if s.metrics != nil {
		api.Use(mux.MiddlewareFunc(s.metrics.HTTPMiddleware))
	}
	api.Use(mux.MiddlewareFunc(authn.Handler))
	if s.rateLimit != nil {
		api.Use(mux.MiddlewareFunc(s.rateLimit))
	}

	// Post routes
	api.Handle("/posts", perms.Require(authz.ResourcePosts, authz.ActionCreate)(http.HandlerFunc(s.createPost))).Methods("POST")
	api.Handle("/posts", perms.Require(authz.ResourcePosts, authz.ActionRead)(http.HandlerFunc(s.listPosts))).Methods("GET")
	api.Handle("/posts/{id}", perms.Require(authz.ResourcePosts, authz.ActionRead)(http.HandlerFunc(s.getPost))).Methods("GET")
	api.Handle("/posts/{id}", perms.RequireOwnershipCapable(authz.ResourcePosts, authz.ActionUpdate)(http.HandlerFunc(s.updatePost))).Methods("PUT")
	api.Handle("/posts/{id}", perms.RequireOwnershipCapable(authz.ResourcePosts, authz.ActionDelete)(http.HandlerFunc(s.deletePost))).Methods("DELETE")

	// User routes
	api.Handle("/users", perms.Require(authz.ResourceUsers, authz.ActionRead)(http.HandlerFunc(s.listUsers))).Methods("GET")
	api.Handle("/users/{id}", perms.Require(authz.ResourceUsers, authz.ActionRead)(http.HandlerFunc(s.getUser))).Methods("GET")
	api.Handle("/users/{id}/role", perms.Require(authz.ResourceAdmin, authz.ActionManageRoles)(http.HandlerFunc(s.changeUserRole))).Methods("PUT")
}

// contextMiddleware stitches the logger and audit sink into the request
// context so downstream code can emit without plumbing
func (s *Server) contextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.WithLogger(r.Context(), s.logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	if s.tracing {
		return otelhttp.NewHandler(s.router, "bulletin.api")
	}
	return s.router
}

// Router exposes the underlying router for additional route registration
func (s *Server) Router() *mux.Router {
	return s.router
}
