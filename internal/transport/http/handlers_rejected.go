package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vanshavali/internal/rejected"
)

// RejectedHandler serves the rejected-registration archive.
type RejectedHandler struct {
	rejections *rejected.Service
	logger     *slog.Logger
}

func NewRejectedHandler(rejections *rejected.Service, logger *slog.Logger) *RejectedHandler {
	return &RejectedHandler{rejections: rejections, logger: logger}
}

// List returns archived rejections, vansh-scoped, without images.
func (h *RejectedHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.rejections.List(r.Context(), r.URL.Query().Get("vansh"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	data := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		data = append(data, recordJSON(rec.ID, rec.Doc))
	}
	respondSuccess(w, http.StatusOK, map[string]any{"data": data})
}

// Delete removes one archived rejection.
func (h *RejectedHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.rejections.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{"message": "Rejected registration deleted"})
}

// Clear purges the archive within the caller's scope.
func (h *RejectedHandler) Clear(w http.ResponseWriter, r *http.Request) {
	removed, err := h.rejections.Clear(r.Context(), r.URL.Query().Get("vansh"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{
		"message":      fmt.Sprintf("Successfully cleared %d rejected member(s)", removed),
		"deletedCount": removed,
	})
}
