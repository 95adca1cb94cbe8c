// internal/api/response.go
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github-sync-proxy/internal/apperror"
)

// respondWithJSON sends a JSON response with the given status code.
func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Error("Failed to encode JSON response", "error", err)
		}
	}
}

// respondWithError sends the standard {"error": message} body.
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}

// respondWithAppError maps a taxonomy error to an HTTP response. Errors
// outside the taxonomy are logged with full detail and reported to the
// client as a generic message; raw internal errors never reach a payload.
func respondWithAppError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := apperror.HTTPStatus(err)

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		respondWithError(w, status, appErr.Message)
		return
	}

	logger.Error("Unhandled request error", "error", err)
	respondWithError(w, http.StatusInternalServerError, "Internal server error")
}
