package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/truthlens/truthlens-api/api"
)

// Metrics exposes the in-process request metrics to the admin console
type Metrics struct{}

// MetricsSummaryHandler returns overall request totals
func (m Metrics) MetricsSummaryHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(api.GetMetrics().GetSummary())
}

// MetricsRoutesHandler returns per-route aggregates
func (m Metrics) MetricsRoutesHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(api.GetMetrics().GetRouteMetrics())
}

// MetricsSlowestHandler returns the slowest routes by average duration
func (m Metrics) MetricsSlowestHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(api.GetMetrics().GetSlowestRoutes(limit))
}
