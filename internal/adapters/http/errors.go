package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"payment-gateway/internal/core/domain"
)

// CodeRateLimited is returned with 429 responses.
const CodeRateLimited = "RATE_LIMIT_ERROR"

type errorBody struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to write json response", "error", err)
	}
}

// writeJSONError sends the gateway error envelope.
func writeJSONError(w http.ResponseWriter, status int, code, description string, logger *slog.Logger) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Description: description}}, logger)
}

// writeError maps a service error onto a status code and error envelope.
// Internal failures are logged with their cause and reported generically.
func writeError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var derr *domain.Error
	if errors.As(err, &derr) {
		switch {
		case errors.Is(err, domain.ErrValidation):
			writeJSONError(w, http.StatusBadRequest, derr.Code, derr.Description, logger)
			return
		case errors.Is(err, domain.ErrNotFound):
			writeJSONError(w, http.StatusNotFound, derr.Code, derr.Description, logger)
			return
		case errors.Is(err, domain.ErrForbidden):
			writeJSONError(w, http.StatusForbidden, derr.Code, derr.Description, logger)
			return
		case errors.Is(err, domain.ErrUnauthenticated):
			writeJSONError(w, http.StatusUnauthorized, derr.Code, derr.Description, logger)
			return
		}
	}

	switch {
	case errors.Is(err, domain.ErrStorageUnavailable), errors.Is(err, domain.ErrBrokerUnavailable):
		logger.Warn("temporary failure in external dependency", "error", err)
	default:
		logger.Error("unexpected error while handling request", "error", err)
	}
	writeJSONError(w, http.StatusInternalServerError, domain.CodeInternal, "Internal server error", logger)
}

func badRequest(w http.ResponseWriter, description string, logger *slog.Logger) {
	writeJSONError(w, http.StatusBadRequest, domain.CodeBadRequest, description, logger)
}
