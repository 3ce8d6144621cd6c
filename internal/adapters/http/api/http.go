// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/momentproxy/internal/app"
	"github.com/okian/momentproxy/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// Moments runs the named policy; an empty name selects the default.
	Moments(ctx context.Context, policy string) (service.Result, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	momentsHandler *MomentsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...MomentsOption) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		momentsHandler: NewMomentsHandler(deps, opts...),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/moments", MetricsMiddleware(s.momentsHandler.HandleMoments, "moments"))
	mux.HandleFunc("/api/moments", MetricsMiddleware(s.momentsHandler.HandleMoments, "moments"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Get().Debug(context.Background(), "write response failed", logger.Error(err))
	}
}
