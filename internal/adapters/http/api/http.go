// Package api serves the dashboard views and the submission endpoint over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/wastewise/internal/adapters/repository"
	"github.com/okian/wastewise/internal/aggregate"
	"github.com/okian/wastewise/internal/domain/dedupe"
	"github.com/okian/wastewise/internal/domain/model"
	"github.com/okian/wastewise/internal/domain/types"
	"github.com/okian/wastewise/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	dedupe.Deduper

	Leaderboard(ctx context.Context) ([]model.LeaderboardRow, error)
	Metrics(ctx context.Context) (model.MetricsSnapshot, error)
	WasteChart(ctx context.Context, tf model.Timeframe) ([]model.ChartBucket, error)
	WasteTypes(ctx context.Context) ([]model.WasteTypeShare, error)
	RecentEntries(ctx context.Context) ([]model.WasteLogEntry, error)
	Submit(ctx context.Context, sub model.Submission) (model.WasteLogEntry, error)

	// Reset restores the seed views. Repositories that cannot reset return
	// repository.ErrResetUnsupported.
	Reset(ctx context.Context) error
}

// Server wires HTTP routes for the dashboard API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	dashboardHandler   *DashboardHandler
	historyHandler     *HistoryHandler
	submitHandler      *SubmitHandler
	adminHandler       *AdminHandler

	limiter *IPRateLimiter
	logger  logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.logger)
	s.rankHandler = NewRankHandler(deps, s.logger)
	s.dashboardHandler = NewDashboardHandler(deps, s.logger)
	s.historyHandler = NewHistoryHandler(deps, s.logger)
	s.submitHandler = NewSubmitHandler(deps, s.logger)
	s.adminHandler = NewAdminHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /api/employee/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /api/employee/leaderboard/{businessID}", MetricsMiddleware(s.rankHandler.HandleGetRank, "leaderboard_row"))
	mux.HandleFunc("GET /api/employee/history", MetricsMiddleware(s.historyHandler.HandleHistory, "history"))
	mux.HandleFunc("POST /api/employee/submit-waste", MetricsMiddleware(s.limit(s.submitHandler.HandleSubmit, "submit_waste"), "submit_waste"))

	mux.HandleFunc("GET /api/dashboard/metrics", MetricsMiddleware(s.dashboardHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("GET /api/dashboard/waste-chart", MetricsMiddleware(s.dashboardHandler.HandleWasteChart, "waste_chart"))
	mux.HandleFunc("GET /api/dashboard/waste-types", MetricsMiddleware(s.dashboardHandler.HandleWasteTypes, "waste_types"))

	mux.HandleFunc("GET /api/admin/employee-table", MetricsMiddleware(s.historyHandler.HandleEmployeeTable, "employee_table"))
	mux.HandleFunc("POST /api/admin/reset", MetricsMiddleware(s.limit(s.adminHandler.HandleReset, "reset"), "reset"))
}

func (s *Server) limit(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	if s.limiter == nil {
		return next
	}
	return RateLimitMiddleware(s.limiter, endpoint)(next).ServeHTTP
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData[T any](w http.ResponseWriter, status int, data T) {
	writeJSON(w, status, types.Success(data))
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, types.ErrorBody{Code: code, Message: msg})
}

// writeFailure maps domain and repository errors to a status and a stable code.
func writeFailure(ctx context.Context, w http.ResponseWriter, l logger.Logger, op string, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, model.ErrUnknownTimeframe):
		status, code = http.StatusBadRequest, "bad_request"
	case errors.Is(err, aggregate.ErrValidation):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, aggregate.ErrStorage):
		code = "storage_error"
	case errors.Is(err, repository.ErrResetUnsupported), errors.Is(err, ErrNotImplemented):
		status, code = http.StatusNotImplemented, "not_implemented"
	case errors.Is(err, repository.ErrRemote), errors.Is(err, repository.ErrDecode):
		status, code = http.StatusBadGateway, "backend_error"
	}
	if status >= statusInternalError {
		l.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
	}
	writeError(w, status, code, Wrap(op, err))
}
