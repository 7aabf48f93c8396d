package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/wastewise/pkg/logger"
)

// RankHandler serves the leaderboard row of a single business.
type RankHandler struct {
	deps   LeaderboardDependencies
	logger logger.Logger
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps LeaderboardDependencies, l logger.Logger) *RankHandler {
	return &RankHandler{deps: deps, logger: l}
}

// HandleGetRank handles GET /api/employee/leaderboard/{businessID} requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	id, err := strconv.ParseInt(r.PathValue("businessID"), 10, 64)
	if err != nil || id <= 0 {
		writeFailure(r.Context(), w, h.logger, op, fmt.Errorf("%w: %w", ErrBadRequest, ErrInvalidBusiness))
		return
	}
	rows, err := h.deps.Leaderboard(r.Context())
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	for i := range rows {
		if rows[i].BusinessID == id {
			writeData(w, http.StatusOK, rows[i])
			return
		}
	}
	writeFailure(r.Context(), w, h.logger, op, fmt.Errorf("business %d: %w", id, ErrNotFound))
}
