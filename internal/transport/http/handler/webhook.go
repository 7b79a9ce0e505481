package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/tourist-verify-api/internal/application/tourist"
	"github.com/tourist-verify-api/internal/application/verification"
	"github.com/tourist-verify-api/internal/domain"
	"github.com/tourist-verify-api/internal/pkg/id"
	pkgphone "github.com/tourist-verify-api/internal/pkg/phone"
)

// payloadArchive stores raw webhook bodies for replay and audit. Optional.
type payloadArchive interface {
	Store(ctx context.Context, id string, payload []byte) (string, error)
}

// WebhookHandler receives Meta webhook callbacks for the WhatsApp business
// number and the development-only simulated delivery endpoint.
type WebhookHandler struct {
	svc         verification.Service
	tourists    tourist.Service
	archive     payloadArchive
	verifyToken string
	production  bool
}

func NewWebhookHandler(svc verification.Service, tourists tourist.Service, archive payloadArchive, verifyToken string, production bool) *WebhookHandler {
	return &WebhookHandler{svc: svc, tourists: tourists, archive: archive, verifyToken: verifyToken, production: production}
}

// webhookEnvelope is the subset of Meta's callback payload we consume.
// Unknown fields are ignored so schema additions on Meta's side don't break us.
type webhookEnvelope struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From string `json:"from"`
					ID   string `json:"id"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
				Contacts []struct {
					WaID    string `json:"wa_id"`
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
				} `json:"contacts"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// Verify answers Meta's subscription handshake: echo hub.challenge when the
// verify token matches, 403 otherwise.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == h.verifyToken && h.verifyToken != "" {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	writeError(w, http.StatusForbidden, "verification failed")
}

// Receive handles inbound message callbacks. It always returns 200: Meta
// retries non-2xx responses, and a malformed or irrelevant payload is not
// something a retry can fix.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusOK, MessageEnvelope{Success: true})
		return
	}

	if h.archive != nil {
		if _, err := h.archive.Store(r.Context(), id.New(), body); err != nil {
			slog.Warn("failed to archive webhook payload", "err", err)
		}
	}

	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		slog.Warn("unparseable webhook payload", "err", err)
		writeJSON(w, http.StatusOK, MessageEnvelope{Success: true})
		return
	}

	for _, entry := range env.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "" && msg.Type != "text" {
					continue
				}
				if msg.From == "" || msg.Text.Body == "" {
					continue
				}
				if _, err := h.svc.ConfirmFromMessage(r.Context(), msg.From, msg.Text.Body); err != nil {
					// Most inbound messages are not verification codes. A known
					// tourist talking to the business number still counts as
					// activity on their profile.
					if errors.Is(err, domain.ErrBadRequest) || errors.Is(err, domain.ErrNotFound) {
						h.touchSender(r.Context(), msg.From)
					} else {
						slog.Warn("webhook confirmation failed", "from", msg.From, "err", err)
					}
				}
			}
		}
	}

	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true})
}

func (h *WebhookHandler) touchSender(ctx context.Context, senderDigits string) {
	phone, err := pkgphone.Normalize(senderDigits)
	if err != nil {
		return
	}
	if err := h.tourists.Touch(ctx, phone); err != nil {
		slog.Debug("failed to refresh tourist last_active", "phone", phone, "err", err)
	}
}

type simulateRequest struct {
	Phone   string `json:"phone"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Simulate lets development clients replay the webhook path without a real
// WhatsApp round trip. Hidden in production.
func (h *WebhookHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	if h.production {
		http.NotFound(w, r)
		return
	}

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	// Either a raw message body (as WhatsApp would deliver it) or a bare code.
	message := req.Message
	if message == "" {
		message = req.Code
	}
	if req.Phone == "" || message == "" {
		writeError(w, http.StatusBadRequest, "phone and code or message are required")
		return
	}

	res, err := h.svc.ConfirmFromMessage(r.Context(), req.Phone, message)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConfirmEnvelope{Success: true, ConfirmResult: res})
}
