// Package httpapi is the REST facade over the Cluster Coordinator: a
// gorilla/mux router exposing cluster status, collection/snapshot
// info, and the mutating operations the Operation Executor implements.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aer-io/vigilante/pkg/cluster"
	"github.com/aer-io/vigilante/pkg/executor"
)

// ModelProvider is the read side the handlers need from the Monitor Loop.
type ModelProvider interface {
	GetLatest() *cluster.ClusterModel
}

// Server holds the dependencies REST handlers call into.
type Server struct {
	model    ModelProvider
	executor *executor.Executor
	router   *mux.Router
}

// NewServer builds the router and mounts every route from the REST table.
func NewServer(model ModelProvider, exec *executor.Executor) *Server {
	s := &Server{model: model, executor: exec, router: mux.NewRouter()}
	s.routes()
	return s
}

// Handler returns the http.Handler to pass to an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/cluster/status", s.handleClusterStatus).Methods(http.MethodGet)
	api.HandleFunc("/collections/info", s.handleCollectionsInfo).Methods(http.MethodGet)
	api.HandleFunc("/snapshots/info", s.handleSnapshotsInfo).Methods(http.MethodGet)
	api.HandleFunc("/cluster/replicate-shards", s.handleReplicateShards).Methods(http.MethodPost)
	api.HandleFunc("/collections", s.handleDeleteCollection).Methods(http.MethodDelete)
	api.HandleFunc("/snapshots", s.handleCreateSnapshot).Methods(http.MethodPost)
	api.HandleFunc("/snapshots", s.handleDeleteSnapshot).Methods(http.MethodDelete)
	api.HandleFunc("/snapshots/recover", s.handleRecoverSnapshot).Methods(http.MethodPost)
	api.HandleFunc("/snapshots/recover-from-url", s.handleRecoverFromURL).Methods(http.MethodPost)
	api.HandleFunc("/snapshots/download", s.handleDownloadSnapshot).Methods(http.MethodPost)
	api.HandleFunc("/kubernetes/delete-pod", s.handleDeletePod).Methods(http.MethodPost)
	api.HandleFunc("/kubernetes/manage-statefulset", s.handleManageStatefulSet).Methods(http.MethodPost)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// NewHTTPServer builds the *http.Server that serves the router, with a
// 10-second read-header timeout.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// ShutdownWithContext gracefully drains in-flight requests.
func ShutdownWithContext(ctx context.Context, srv *http.Server) error {
	return srv.Shutdown(ctx)
}
