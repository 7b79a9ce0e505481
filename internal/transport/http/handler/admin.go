package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tourist-verify-api/internal/application/tourist"
	"github.com/tourist-verify-api/internal/domain"
	pkgphone "github.com/tourist-verify-api/internal/pkg/phone"
)

type sessionLister interface {
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.VerificationSession, string, error)
}

type payloadFetcher interface {
	Fetch(ctx context.Context, key string) (io.ReadCloser, error)
}

// AdminHandler serves the operator endpoints behind JWT auth.
type AdminHandler struct {
	sessions sessionLister
	tourists tourist.Service
	archive  payloadFetcher
}

func NewAdminHandler(sessions sessionLister, tourists tourist.Service, archive payloadFetcher) *AdminHandler {
	return &AdminHandler{sessions: sessions, tourists: tourists, archive: archive}
}

// SessionPageEnvelope wraps a page of verification sessions. Codes never
// serialize; the session JSON tags exclude them.
type SessionPageEnvelope struct {
	Success    bool                         `json:"success"`
	Data       []domain.VerificationSession `json:"data"`
	NextCursor string                       `json:"next_cursor,omitempty"`
}

// TouristEnvelope wraps a single tourist profile.
type TouristEnvelope struct {
	Success bool                   `json:"success"`
	Profile *domain.TouristProfile `json:"profile"`
}

func (h *AdminHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	limit := int32(25)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = int32(n)
	}

	sessions, next, err := h.sessions.ScanPage(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SessionPageEnvelope{Success: true, Data: sessions, NextCursor: next})
}

func (h *AdminHandler) GetTourist(w http.ResponseWriter, r *http.Request) {
	phone, err := pkgphone.Normalize(chi.URLParam(r, "phone"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	profile, err := h.tourists.Get(r.Context(), phone)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TouristEnvelope{Success: true, Profile: profile})
}

// GetWebhookPayload replays an archived raw webhook body for debugging
// delivery and confirmation issues.
func (h *AdminHandler) GetWebhookPayload(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeError(w, http.StatusNotFound, "webhook archive is not configured")
		return
	}
	key := fmt.Sprintf("webhooks/%s/%s.json", chi.URLParam(r, "date"), chi.URLParam(r, "id"))
	body, err := h.archive.Fetch(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "archived payload not found")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}
