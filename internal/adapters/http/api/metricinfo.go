package api

import (
	"context"
	"net/http"

	"github.com/kmarek/evalarena/internal/domain/metric"
)

// MetricInfoDependencies defines the interface for metric discovery.
type MetricInfoDependencies interface {
	MetricInfos(ctx context.Context) ([]metric.Info, error)
}

// MetricInfoHandler serves the static description of every metric.
type MetricInfoHandler struct {
	deps MetricInfoDependencies
}

// NewMetricInfoHandler creates a new metric info handler.
func NewMetricInfoHandler(deps MetricInfoDependencies) *MetricInfoHandler {
	return &MetricInfoHandler{deps: deps}
}

// HandleGetMetricInfo handles GET /metric-info requests.
func (h *MetricInfoHandler) HandleGetMetricInfo(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_metric_info"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	infos, err := h.deps.MetricInfos(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, infos)
}
