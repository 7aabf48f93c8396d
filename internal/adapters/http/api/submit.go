package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/wastewise/internal/adapters/repository"
	"github.com/okian/wastewise/internal/aggregate"
	"github.com/okian/wastewise/internal/domain/dedupe"
	"github.com/okian/wastewise/internal/domain/model"
	"github.com/okian/wastewise/internal/domain/types"
	"github.com/okian/wastewise/pkg/logger"
)

const (
	headerUserID         = "User-ID"
	headerIdempotencyKey = "Idempotency-Key"
	maxSubmitBodyBytes   = 1 << 20
)

// SubmitDependencies defines the interface for accepting submissions.
type SubmitDependencies interface {
	dedupe.Deduper
	Submit(ctx context.Context, sub model.Submission) (model.WasteLogEntry, error)
}

// SubmitHandler handles waste log submissions.
type SubmitHandler struct {
	deps   SubmitDependencies
	logger logger.Logger
}

// NewSubmitHandler creates a new submit handler.
func NewSubmitHandler(deps SubmitDependencies, l logger.Logger) *SubmitHandler {
	return &SubmitHandler{deps: deps, logger: l}
}

// HandleSubmit handles POST /api/employee/submit-waste requests.
func (h *SubmitHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_waste"
	ctx := r.Context()

	var sub model.Submission
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmitBodyBytes))
	if err := dec.Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if sub.UserID == 0 {
		id, err := optionalID(r.Header.Get(headerUserID))
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, ErrInvalidUserID))
			return
		}
		sub.UserID = id
	}

	key := strings.TrimSpace(r.Header.Get(headerIdempotencyKey))
	if key != "" && h.deps.SeenAndRecord(ctx, key) {
		writeJSON(w, http.StatusOK, types.Envelope[*model.WasteLogEntry]{Status: types.StatusDuplicate})
		return
	}

	entry, err := h.deps.Submit(ctx, sub)
	switch {
	case err == nil:
		writeData(w, http.StatusCreated, entry)
	case errors.Is(err, aggregate.ErrStorage) && entry.LogID != 0:
		// The entry is live in memory; a retry with the same key must not
		// apply it twice, so the key stays recorded.
		h.logger.Error(ctx, "submission applied but not persisted",
			logger.Int64("logID", entry.LogID),
			logger.Error(err),
		)
		writeFailure(ctx, w, h.logger, op, fmt.Errorf("log %d: %w", entry.LogID, err))
	case errors.Is(err, repository.ErrDuplicate):
		writeJSON(w, http.StatusOK, types.Envelope[*model.WasteLogEntry]{Status: types.StatusDuplicate})
	default:
		if key != "" {
			h.deps.Unrecord(ctx, key)
		}
		writeFailure(ctx, w, h.logger, op, err)
	}
}
