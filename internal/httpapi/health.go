// Package httpapi exposes the pipeline's operational HTTP surface: health
// checks and the Prometheus scrape endpoint.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jobmate/alertpipeline/internal/metrics"
)

const version = "1.0.0"

// DependencyChecker reports whether a dependency is currently reachable.
type DependencyChecker func(ctx context.Context) error

// Handler serves /health and /metrics.
type Handler struct {
	checks map[string]DependencyChecker
}

func NewHandler(checks map[string]DependencyChecker) *Handler {
	return &Handler{checks: checks}
}

// RegisterRoutes mounts the operational routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type healthResponse struct {
	Status       string                       `json:"status"`
	Service      string                       `json:"service"`
	Version      string                       `json:"version"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:       "ok",
		Service:      "jobmate-alertd",
		Version:      version,
		Dependencies: make(map[string]dependencyStatus, len(h.checks)),
	}

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Status = "degraded"
			resp.Dependencies[name] = dependencyStatus{Status: "down", Error: err.Error()}
			continue
		}
		resp.Dependencies[name] = dependencyStatus{Status: "up"}
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
