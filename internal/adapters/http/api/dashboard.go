package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/wastewise/internal/domain/model"
	"github.com/okian/wastewise/pkg/logger"
)

// DashboardDependencies defines the reads behind the dashboard cards.
type DashboardDependencies interface {
	Metrics(ctx context.Context) (model.MetricsSnapshot, error)
	WasteChart(ctx context.Context, tf model.Timeframe) ([]model.ChartBucket, error)
	WasteTypes(ctx context.Context) ([]model.WasteTypeShare, error)
}

// DashboardHandler handles the metrics, chart and waste type requests.
type DashboardHandler struct {
	deps   DashboardDependencies
	logger logger.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps DashboardDependencies, l logger.Logger) *DashboardHandler {
	return &DashboardHandler{deps: deps, logger: l}
}

// HandleMetrics handles GET /api/dashboard/metrics requests.
func (h *DashboardHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_metrics"
	m, err := h.deps.Metrics(r.Context())
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	writeData(w, http.StatusOK, m)
}

// HandleWasteChart handles GET /api/dashboard/waste-chart?timeframe= requests.
// The timeframe defaults to month.
func (h *DashboardHandler) HandleWasteChart(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_waste_chart"
	raw := r.URL.Query().Get("timeframe")
	if strings.TrimSpace(raw) == "" {
		raw = string(model.Month)
	}
	tf, err := model.ParseTimeframe(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_timeframe", Wrap(op, err))
		return
	}
	buckets, err := h.deps.WasteChart(r.Context(), tf)
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	if buckets == nil {
		buckets = []model.ChartBucket{}
	}
	writeData(w, http.StatusOK, buckets)
}

// HandleWasteTypes handles GET /api/dashboard/waste-types requests.
func (h *DashboardHandler) HandleWasteTypes(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_waste_types"
	shares, err := h.deps.WasteTypes(r.Context())
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	if shares == nil {
		shares = []model.WasteTypeShare{}
	}
	writeData(w, http.StatusOK, shares)
}
