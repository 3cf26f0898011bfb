package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/juniorjunco/blog-pro/internal/domain"
	"go.uber.org/zap"
)

// ErrorToHTTPStatus maps domain errors to HTTP status codes.
func ErrorToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMissingToken), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the text shown to the client. Unexpected internal
// errors are not exposed; upstream failures pass their message through.
func errorMessage(err error) string {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	if errors.Is(err, domain.ErrUpstream) {
		return err.Error()
	}
	if status := ErrorToHTTPStatus(err); status != http.StatusInternalServerError {
		return err.Error()
	}
	return "Internal server error"
}

func writeError(w http.ResponseWriter, logger *zap.Logger, msg string, err error) {
	status := ErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, zap.Error(err))
	} else {
		logger.Debug(msg, zap.Int("status", status), zap.Error(err))
	}
	http.Error(w, errorMessage(err), status)
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

type messageResponse struct {
	Message string `json:"message"`
}
