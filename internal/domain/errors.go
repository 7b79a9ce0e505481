package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// Verification lifecycle errors.
	ErrExpired         = errors.New("session expired")
	ErrCodeMismatch    = errors.New("code mismatch")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrDeliveryFailed  = errors.New("delivery failed")
)
