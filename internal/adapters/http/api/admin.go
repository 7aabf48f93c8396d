package api

import (
	"context"
	"net/http"

	"github.com/okian/wastewise/pkg/logger"
)

// AdminDependencies defines the maintenance operations.
type AdminDependencies interface {
	Reset(ctx context.Context) error
}

// AdminHandler handles maintenance requests.
type AdminHandler struct {
	deps   AdminDependencies
	logger logger.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps AdminDependencies, l logger.Logger) *AdminHandler {
	return &AdminHandler{deps: deps, logger: l}
}

// HandleReset handles POST /api/admin/reset requests.
func (h *AdminHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.reset"
	if err := h.deps.Reset(r.Context()); err != nil {
		writeFailure(r.Context(), w, h.logger, op, err)
		return
	}
	h.logger.Info(r.Context(), "views reset to seed data")
	writeData(w, http.StatusOK, map[string]bool{"reset": true})
}
