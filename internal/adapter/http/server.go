package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
)

// FeatureSource returns the features of the most recent run. An empty kind
// selects every feature.
type FeatureSource interface {
	Features(kind domain.FeatureKind) []domain.Feature
}

// Server exposes health, readiness, metrics and feature HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /api/v1/features routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, features FeatureSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/v1/features", handleFeatures(features))

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

type featuresResponse struct {
	Count    int              `json:"count"`
	Features []domain.Feature `json:"features"`
}

func handleFeatures(source FeatureSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := domain.FeatureKind(strings.ToUpper(r.URL.Query().Get("kind")))
		if kind != "" && kind != domain.FeatureMCC && kind != domain.FeatureMCS {
			sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{
				"error": "kind must be MCC or MCS",
			})
			return
		}
		features := source.Features(kind)
		if features == nil {
			features = []domain.Feature{}
		}
		sharedobs.WriteJSON(w, http.StatusOK, featuresResponse{Count: len(features), Features: features})
	}
}
