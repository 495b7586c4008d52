// Package http is the chi-based transport for the family workflow API.
// Responses use the {success, data, message} envelope the portal UI expects;
// coded domain errors translate to status codes here and nowhere else.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"vanshavali/internal/payload"
	dErrors "vanshavali/pkg/domain-errors"
	"vanshavali/pkg/requestcontext"
)

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondSuccess(w http.ResponseWriter, status int, body map[string]any) {
	if body == nil {
		body = map[string]any{}
	}
	body["success"] = true
	writeJSON(w, status, body)
}

func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := dErrors.ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()))
	}
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": dErrors.MessageFor(err),
	})
}

// recordJSON flattens a stored record into the wire shape the UI expects:
// the document with its id under _id.
func recordJSON(id string, doc payload.Document) map[string]any {
	out := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	out["_id"] = id
	return out
}
