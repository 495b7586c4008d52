package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vanshavali/internal/member"
	"vanshavali/internal/payload"
	dErrors "vanshavali/pkg/domain-errors"
)

// MemberHandler serves the approved-member directory.
type MemberHandler struct {
	members *member.Service
	logger  *slog.Logger
}

func NewMemberHandler(members *member.Service, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{members: members, logger: logger}
}

// List returns a page of members without images, plus pagination metadata.
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.members.List(r.Context(), q.Get("search"), q.Get("vansh"), page, limit)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	data := make([]map[string]any, 0, len(result.Records))
	for _, rec := range result.Records {
		data = append(data, recordJSON(rec.ID, rec.Doc))
	}
	respondSuccess(w, http.StatusOK, map[string]any{
		"data": data,
		"pagination": map[string]any{
			"total":      result.Total,
			"page":       result.Page,
			"limit":      result.Limit,
			"totalPages": result.TotalPages,
		},
	})
}

// Get returns a single member in full.
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.members.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{"data": recordJSON(rec.ID, rec.Doc)})
}

// Update applies a partial member edit.
func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	var updates payload.Document
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		respondError(w, r, h.logger, dErrors.Wrap(err, dErrors.CodeBadRequest, "Invalid JSON body"))
		return
	}

	rec, err := h.members.Update(r.Context(), chi.URLParam(r, "id"), updates)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{
		"data":    recordJSON(rec.ID, rec.Doc),
		"message": "Member updated successfully",
	})
}

// Delete removes a member.
func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.members.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{"message": "Member deleted successfully"})
}

// SearchParents serves the registration form's autocomplete.
func (h *MemberHandler) SearchParents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	matches, err := h.members.SearchParents(r.Context(), q.Get("query"), q.Get("vansh"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{"data": matches})
}
