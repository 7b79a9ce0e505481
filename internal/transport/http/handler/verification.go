package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tourist-verify-api/internal/application/verification"
	"github.com/tourist-verify-api/internal/domain"
	"github.com/tourist-verify-api/internal/pkg/validate"
)

// VerificationHandler handles code delivery, confirmation, and status polling.
type VerificationHandler struct {
	svc verification.Service
}

func NewVerificationHandler(svc verification.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

// SendEnvelope wraps a successful send response.
type SendEnvelope struct {
	Success bool `json:"success"`
	*verification.SendResult
}

// ConfirmEnvelope wraps a successful confirmation.
type ConfirmEnvelope struct {
	Success bool `json:"success"`
	*verification.ConfirmResult
}

// StatusEnvelope wraps a status poll.
type StatusEnvelope struct {
	Success bool `json:"success"`
	*verification.StatusResult
}

func (h *VerificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req domain.SendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Send(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SendEnvelope{Success: true, SendResult: res})
}

func (h *VerificationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req domain.ConfirmCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Confirm(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConfirmEnvelope{Success: true, ConfirmResult: res})
}

func (h *VerificationHandler) Status(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	res, err := h.svc.Status(r.Context(), sessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusEnvelope{Success: true, StatusResult: res})
}
