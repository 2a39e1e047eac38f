package demoapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/supa-modo/digiplotClassic/internal/domain"
)

// apiResponse is the envelope the portal client expects on every endpoint.
type apiResponse struct {
	Success     bool   `json:"success"`
	Requires2FA bool   `json:"requires2FA,omitempty"`
	Message     string `json:"message,omitempty"`
	Data        any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, apiResponse{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, apiResponse{Success: true, Message: message})
}

func writeStepUp(w http.ResponseWriter, message string) {
	// The step-up signal is a distinguished non-error outcome, not a 4xx.
	writeJSON(w, http.StatusOK, apiResponse{Success: false, Requires2FA: true, Message: message})
}

// writeError maps domain sentinels onto HTTP statuses and keeps messages
// user-safe: internal causes are logged, never serialized.
func writeError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	status := http.StatusInternalServerError
	message := "internal error"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrTokenExpired):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrAccountLocked):
		status, message = http.StatusLocked, "account temporarily locked, try again later"
	case errors.Is(err, domain.ErrRateLimited):
		status, message = http.StatusTooManyRequests, "too many requests"
	case errors.Is(err, domain.ErrConflict):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	}

	logger := httpLogger()
	fields := []any{
		"operation", operation,
		"outcome", "failure",
		"status_code", status,
		"request_id", requestIDFromContext(ctx),
		"error", err,
	}
	if status >= 500 {
		logger.ErrorContext(ctx, "http operation failed", fields...)
	} else {
		logger.WarnContext(ctx, "http operation failed", fields...)
	}

	writeJSON(w, status, apiResponse{Success: false, Message: message})
}

func httpLogger() *slog.Logger {
	return slog.Default().With(
		"service", "digiplot-demoapi",
		"module", "http",
		"layer", "adapter",
	)
}
