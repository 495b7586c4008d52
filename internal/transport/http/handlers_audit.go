package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"vanshavali/internal/audit"
	dErrors "vanshavali/pkg/domain-errors"
)

// defaultAuditLimit caps the review-trail listing when no limit is given.
const defaultAuditLimit = 100

// AuditHandler serves the review trail.
type AuditHandler struct {
	publisher *audit.Publisher
	logger    *slog.Logger
}

func NewAuditHandler(publisher *audit.Publisher, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{publisher: publisher, logger: logger}
}

// List returns the most recent audit events, newest first.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, r, h.logger, dErrors.New(dErrors.CodeBadRequest, "Invalid limit"))
			return
		}
		limit = n
	}

	events, err := h.publisher.List(r.Context(), limit)
	if err != nil {
		respondError(w, r, h.logger, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{"data": events})
}
