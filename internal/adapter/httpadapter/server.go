package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/hnx-camera-etl/internal/domain"
	"github.com/couchcryptid/hnx-camera-etl/internal/pipeline"
)

// SnapshotProvider returns the latest published snapshot, or nil before the
// first successful refresh.
type SnapshotProvider interface {
	Snapshot() *pipeline.Snapshot
}

// Server exposes the camera query API alongside health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	snapshots  SnapshotProvider
	registry   *domain.Registry
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and the
// /api query routes. reg resolves source names in queries; nil uses the
// default provider registry.
func NewServer(addr string, ready sharedobs.ReadinessChecker, snapshots SnapshotProvider, reg *domain.Registry, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	if reg == nil {
		reg = domain.DefaultRegistry("")
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		snapshots: snapshots,
		registry:  reg,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/cameras", s.handleCameras)
	mux.HandleFunc("GET /api/groups", s.handleGroups)
	mux.HandleFunc("GET /api/bounds", s.handleBounds)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
