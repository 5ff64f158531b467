package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"spendlens/internal/analytics"
	"spendlens/internal/core"
	"spendlens/internal/log"
	"spendlens/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// writeEngineError maps engine and storage errors to HTTP statuses.
// Insufficient input is a client-state problem, not a server fault.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, analytics.ErrInvalidDimension),
		errors.Is(err, analytics.ErrInvalidRange),
		errors.Is(err, analytics.ErrInvalidBins),
		errors.Is(err, errMissingOwner),
		errors.Is(err, core.ErrMissingOwner),
		errors.Is(err, core.ErrMissingTime),
		errors.Is(err, core.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, analytics.ErrInsufficientData),
		errors.Is(err, analytics.ErrInsufficientHistory):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			"path", r.URL.Path, "error", err)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return false
	}
	return true
}
