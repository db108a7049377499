package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/govdesk/govdesk/pkg/audit"
	"github.com/govdesk/govdesk/pkg/gov"
	"github.com/govdesk/govdesk/pkg/observability"
)

// Server is the REST API server.
type Server struct {
	router   *mux.Router
	handler  http.Handler
	services *gov.Services
	trail    *audit.DBLogger
	logger   *observability.Logger
	metrics  *observability.Metrics
	tracing  bool
}

// ServerOption configures optional server behaviour.
type ServerOption func(*Server)

// WithMetrics attaches request metrics.
func WithMetrics(metrics *observability.Metrics) ServerOption {
	return func(s *Server) { s.metrics = metrics }
}

// WithTracing wraps the handler chain in otelhttp instrumentation.
func WithTracing() ServerOption {
	return func(s *Server) { s.tracing = true }
}

// NewServer builds the router. trail may be nil when the audit trail has
// no queryable backend; the audit routes respond 503 in that case.
func NewServer(services *gov.Services, trail *audit.DBLogger, logger *observability.Logger, opts ...ServerOption) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		services: services,
		trail:    trail,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	s.buildHandler()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Routed middleware runs after mux matching, so the metrics path label
	// is the route template rather than the raw URL.
	s.router.Use(mux.MiddlewareFunc(requestIDMiddleware))
	s.router.Use(loggingMiddleware(s.logger))
	if s.metrics != nil {
		s.router.Use(metricsMiddleware(s.metrics))
	}
	s.router.Use(mux.MiddlewareFunc(actingUserMiddleware))

	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Objectives and key results
	api.HandleFunc("/objectives", s.createObjective).Methods("POST")
	api.HandleFunc("/objectives", s.listObjectives).Methods("GET")
	api.HandleFunc("/objectives/all", s.listObjectivesIncludingDeleted).Methods("GET")
	api.HandleFunc("/objectives/{id:[0-9]+}", s.getObjective).Methods("GET")
	api.HandleFunc("/objectives/{id:[0-9]+}", s.updateObjective).Methods("PATCH")
	api.HandleFunc("/objectives/{id:[0-9]+}", s.deleteObjective).Methods("DELETE")
	api.HandleFunc("/objectives/{id:[0-9]+}/restore", s.restoreObjective).Methods("POST")
	api.HandleFunc("/objectives/{id:[0-9]+}/key-results", s.addKeyResult).Methods("POST")
	api.HandleFunc("/objectives/{id:[0-9]+}/key-results", s.listKeyResults).Methods("GET")
	api.HandleFunc("/key-results/{id:[0-9]+}", s.updateKeyResult).Methods("PATCH")
	api.HandleFunc("/key-results/{id:[0-9]+}", s.deleteKeyResult).Methods("DELETE")
	api.HandleFunc("/key-results/{id:[0-9]+}/restore", s.restoreKeyResult).Methods("POST")

	// Annual contracting plan items
	api.HandleFunc("/pca-items", s.createPCAItem).Methods("POST")
	api.HandleFunc("/pca-items", s.listPCAItems).Methods("GET")
	api.HandleFunc("/pca-items/all", s.listPCAItemsIncludingDeleted).Methods("GET")
	api.HandleFunc("/pca-items/{id:[0-9]+}", s.getPCAItem).Methods("GET")
	api.HandleFunc("/pca-items/{id:[0-9]+}", s.updatePCAItem).Methods("PATCH")
	api.HandleFunc("/pca-items/{id:[0-9]+}", s.deletePCAItem).Methods("DELETE")
	api.HandleFunc("/pca-items/{id:[0-9]+}/restore", s.restorePCAItem).Methods("POST")

	// Committees, membership, minutes
	api.HandleFunc("/committees", s.createCommittee).Methods("POST")
	api.HandleFunc("/committees", s.listCommittees).Methods("GET")
	api.HandleFunc("/committees/all", s.listCommitteesIncludingDeleted).Methods("GET")
	api.HandleFunc("/committees/{id:[0-9]+}", s.getCommittee).Methods("GET")
	api.HandleFunc("/committees/{id:[0-9]+}", s.updateCommittee).Methods("PATCH")
	api.HandleFunc("/committees/{id:[0-9]+}", s.deleteCommittee).Methods("DELETE")
	api.HandleFunc("/committees/{id:[0-9]+}/restore", s.restoreCommittee).Methods("POST")
	api.HandleFunc("/committees/{id:[0-9]+}/ata", s.updateCommitteeAta).Methods("PUT")
	api.HandleFunc("/committees/{id:[0-9]+}/members", s.addCommitteeMember).Methods("POST")
	api.HandleFunc("/committees/{id:[0-9]+}/members", s.listCommitteeMembers).Methods("GET")
	api.HandleFunc("/committee-members/{id:[0-9]+}", s.removeCommitteeMember).Methods("DELETE")

	// Personnel
	api.HandleFunc("/personnel", s.createPersonnel).Methods("POST")
	api.HandleFunc("/personnel", s.listPersonnel).Methods("GET")
	api.HandleFunc("/personnel/all", s.listPersonnelIncludingDeleted).Methods("GET")
	api.HandleFunc("/personnel/{id:[0-9]+}", s.getPersonnel).Methods("GET")
	api.HandleFunc("/personnel/{id:[0-9]+}", s.updatePersonnel).Methods("PATCH")
	api.HandleFunc("/personnel/{id:[0-9]+}", s.deletePersonnel).Methods("DELETE")
	api.HandleFunc("/personnel/{id:[0-9]+}/restore", s.restorePersonnel).Methods("POST")

	// Audit trail
	api.HandleFunc("/audit", s.searchAudit).Methods("GET")
	api.HandleFunc("/audit/export", s.exportAudit).Methods("GET")
	api.HandleFunc("/audit/{id:[0-9]+}", s.getAuditEntry).Methods("GET")
}

// buildHandler wraps the router in the lifecycle middleware that must run
// before routing.
func (s *Server) buildHandler() {
	var handler http.Handler = s.router
	handler = recoveryMiddleware(s.logger)(handler)
	if s.tracing {
		handler = otelhttp.NewHandler(handler, "govdesk-api")
	}
	s.handler = handler
}

// Handler returns the fully wrapped handler chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// routeTemplate returns the mux route template for the request, if any.
func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return ""
	}
	template, err := route.GetPathTemplate()
	if err != nil {
		return ""
	}
	return template
}
