package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tourist-verify-api/internal/domain"
)

// ErrorEnvelope is the shared error response wrapper.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// MessageEnvelope wraps plain informational responses.
type MessageEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorEnvelope{Error: msg})
}

// writeDomainError maps domain sentinel errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, httpStatus(err), err.Error())
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBadRequest),
		errors.Is(err, domain.ErrExpired),
		errors.Is(err, domain.ErrCodeMismatch):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDeliveryFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
