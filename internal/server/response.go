package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Prxnesh/Task-Manager-App/internal/logger"
	"github.com/Prxnesh/Task-Manager-App/internal/models"
)

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.NewValidationError("body", "Invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(context.Background(), err, "encode response")
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.MessageResponse{Message: msg})
}

// writeError maps the error taxonomy onto status codes. Anything it does
// not recognise is logged and reported as 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *models.ValidationError

	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: ve.Message})
	case errors.Is(err, models.ErrValidation):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrAuth):
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid username or password"})
	case errors.Is(err, models.ErrAuthRequired):
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
	case errors.Is(err, models.ErrConflict):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "Username already exists"})
	default:
		logger.Error(r.Context(), err, "request failed", "method", r.Method, "path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
	}
}
