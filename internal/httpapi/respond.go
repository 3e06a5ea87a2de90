package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/p-n-ai/pai-content/internal/content"
	"github.com/p-n-ai/pai-content/internal/csvimport"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message, field string, details any) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    code,
		Message: msg,
		Field:   field,
		Details: details,
	}})
}

// writeErr maps the content error taxonomy onto HTTP statuses. details, when
// set, is attached to the body (e.g. a partial import summary).
func writeErr(w http.ResponseWriter, r *http.Request, err error, details any) {
	var (
		tooLarge *http.MaxBytesError
		invalid  *content.ValidationError
		header   *csvimport.HeaderError
	)
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large",
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), "", details)
	case errors.Is(err, content.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error(), "", details)
	case errors.As(err, &header):
		if details == nil {
			details = map[string]any{"missing": header.Missing}
		}
		writeError(w, http.StatusBadRequest, "missing_columns", err.Error(), "", details)
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, "invalid_request", invalid.Message, invalid.Field, details)
	case errors.Is(err, content.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), "", details)
	case errors.Is(err, content.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error(), "", details)
	case errors.Is(err, content.ErrIntegrity):
		slog.Error("integrity error", "request_id", RequestID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "integrity_error", err.Error(), "", details)
	default:
		slog.Error("request failed",
			"request_id", RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", "", details)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return content.Invalid("body", "invalid JSON: %v", err)
	}
	return nil
}
