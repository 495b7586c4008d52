package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"vanshavali/internal/approval"
	"vanshavali/internal/payload"
	"vanshavali/internal/registration"
	dErrors "vanshavali/pkg/domain-errors"
)

// maxUploadSize bounds multipart submissions; profile photos arrive base64
// inlined as well, so the cap stays roomy.
const maxUploadSize = 32 << 20

// RegistrationHandler serves submission and the review queue.
type RegistrationHandler struct {
	registrations *registration.Service
	approvals     *approval.Service
	logger        *slog.Logger
}

func NewRegistrationHandler(registrations *registration.Service, approvals *approval.Service, logger *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, approvals: approvals, logger: logger}
}

// Submit accepts the public registration form, as JSON or multipart.
func (h *RegistrationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	body, files, err := parseSubmission(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	rec, err := h.registrations.Submit(r.Context(), body, files)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondSuccess(w, http.StatusCreated, map[string]any{
		"data":       recordJSON(rec.ID, rec.Doc),
		"message":    "Family member saved successfully to database!",
		"documentId": rec.ID,
	})
}

// parseSubmission reads either a JSON body or a multipart form whose text
// fields encode nesting with dotted keys and whose files are keyed the same
// way.
func parseSubmission(r *http.Request) (payload.Document, map[string]payload.File, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "Invalid multipart form")
		}

		body := payload.ExpandFlat(r.MultipartForm.Value)

		files := make(map[string]payload.File)
		for field, headers := range r.MultipartForm.File {
			if len(headers) == 0 {
				continue
			}
			f, err := headers[0].Open()
			if err != nil {
				return nil, nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "Unreadable file upload")
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return nil, nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "Unreadable file upload")
			}
			files[field] = payload.File{
				Data:         data,
				MimeType:     headers[0].Header.Get("Content-Type"),
				OriginalName: headers[0].Filename,
			}
		}
		return body, files, nil
	}

	var body payload.Document
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "Invalid JSON body")
	}
	return body, nil, nil
}

// List returns the pending review queue, vansh-scoped, without images.
func (h *RegistrationHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.registrations.List(r.Context(), r.URL.Query().Get("vansh"))
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

// Get returns one registration in full, images included.
func (h *RegistrationHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.registrations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{"data": recordJSON(rec.ID, rec.Doc)})
}

type statusRequest struct {
	Status     string `json:"status"`
	AdminNotes string `json:"adminNotes"`
}

// UpdateStatus runs the approval engine for one registration.
func (h *RegistrationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, h.logger, dErrors.Wrap(err, dErrors.CodeBadRequest, "Invalid JSON body"))
		return
	}

	decision, err := h.approvals.Decide(r.Context(), chi.URLParam(r, "id"), req.Status, req.AdminNotes)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	body := map[string]any{"data": decision}
	switch decision.Status {
	case registration.StatusApproved:
		body["message"] = "Registration approved and moved to members collection."
	case registration.StatusRejected:
		body["message"] = "Registration rejected and archived."
	}
	respondSuccess(w, http.StatusOK, body)
}

type bulkStatusRequest struct {
	IDs        []string `json:"ids"`
	Status     string   `json:"status"`
	AdminNotes string   `json:"adminNotes"`
}

// BulkUpdateStatus applies one decision to many registrations.
func (h *RegistrationHandler) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req bulkStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, h.logger, dErrors.Wrap(err, dErrors.CodeBadRequest, "Invalid JSON body"))
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, r, h.logger, dErrors.New(dErrors.CodeBadRequest, "No registration ids provided"))
		return
	}

	results := h.approvals.BulkDecide(r.Context(), req.IDs, req.Status, req.AdminNotes)
	succeeded := 0
	failures := make([]map[string]any, 0)
	for _, res := range results {
		if res.Success {
			succeeded++
			continue
		}
		failures = append(failures, map[string]any{"id": res.RegistrationID, "error": res.Message})
	}
	respondSuccess(w, http.StatusOK, map[string]any{
		"data":           results,
		"succeededCount": succeeded,
		"failures":       failures,
	})
}
