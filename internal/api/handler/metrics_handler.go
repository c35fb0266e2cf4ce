package handler

import (
	"net/http"
)

// QueueStats reports the queue snapshot. *service.NotificationService satisfies it.
type QueueStats interface {
	QueueDepths() (ready, deferred int)
}

// MetricsHandler serves a human-readable JSON queue snapshot.
// Raw Prometheus metrics (counters, histograms) are available at /metrics
// via promhttp.Handler and are separate from this endpoint.
type MetricsHandler struct {
	stats QueueStats
}

func NewMetricsHandler(stats QueueStats) *MetricsHandler {
	return &MetricsHandler{stats: stats}
}

// GetMetrics handles GET /api/v1/metrics
//
// @Summary  Real-time queue depth snapshot
// @Tags     metrics
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /api/v1/metrics [get]
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	ready, deferred := h.stats.QueueDepths()
	respondJSON(w, http.StatusOK, map[string]any{
		"queue_depth": map[string]int{
			"ready":    ready,
			"deferred": deferred,
			"total":    ready + deferred,
		},
	})
}
