package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/wastewise/internal/domain/model"
	"github.com/okian/wastewise/pkg/logger"
)

// HistoryDependencies defines the interface for reading waste log entries.
type HistoryDependencies interface {
	RecentEntries(ctx context.Context) ([]model.WasteLogEntry, error)
}

// HistoryHandler serves waste log entries newest first.
type HistoryHandler struct {
	deps   HistoryDependencies
	logger logger.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies, l logger.Logger) *HistoryHandler {
	return &HistoryHandler{deps: deps, logger: l}
}

// HandleHistory handles GET /api/employee/history. A User-ID header limits
// the result to that user's entries.
func (h *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	userID, err := optionalID(r.Header.Get(headerUserID))
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, fmt.Errorf("%w: %w", ErrBadRequest, ErrInvalidUserID))
		return
	}
	h.serve(w, r, op, func(e *model.WasteLogEntry) bool {
		return userID == 0 || e.UserID == userID
	})
}

// HandleEmployeeTable handles GET /api/admin/employee-table. A businessID
// query parameter limits the result to one business.
func (h *HistoryHandler) HandleEmployeeTable(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_employee_table"
	businessID, err := optionalID(r.URL.Query().Get("businessID"))
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, fmt.Errorf("%w: %w", ErrBadRequest, ErrInvalidBusiness))
		return
	}
	h.serve(w, r, op, func(e *model.WasteLogEntry) bool {
		return businessID == 0 || e.BusinessID == businessID
	})
}

func (h *HistoryHandler) serve(w http.ResponseWriter, r *http.Request, op string, keep func(*model.WasteLogEntry) bool) {
	entries, err := h.deps.RecentEntries(r.Context())
	if err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	out := make([]model.WasteLogEntry, 0, len(entries))
	for i := range entries {
		if keep(&entries[i]) {
			out = append(out, entries[i])
		}
	}
	writeData(w, http.StatusOK, out)
}

// optionalID parses a positive id; empty means no filter and returns 0.
func optionalID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}
