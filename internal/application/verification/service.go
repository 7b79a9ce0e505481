// Package verification implements the phone-verification session lifecycle:
// code generation and delivery, confirmation from any entry point, lazy
// expiry, and linkage to the tourist profile on success.
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"time"

	"github.com/tourist-verify-api/internal/application/tourist"
	"github.com/tourist-verify-api/internal/domain"
	"github.com/tourist-verify-api/internal/infrastructure/whatsapp"
	"github.com/tourist-verify-api/internal/pkg/id"
	pkgphone "github.com/tourist-verify-api/internal/pkg/phone"
)

// codePattern finds the first standalone 6-digit run in an inbound message.
var codePattern = regexp.MustCompile(`(^|[^0-9])([0-9]{6})($|[^0-9])`)

// demoCodes are accepted instead of the real code when AllowDemoCodes is set.
// Never enabled in production configuration.
var demoCodes = map[string]bool{
	"123456": true,
	"000000": true,
}

// SendResult summarizes a created session for the client.
type SendResult struct {
	SessionID    string `json:"id"`
	Phone        string `json:"phone"`
	Method       string `json:"method"`
	DeliveryMode string `json:"delivery_mode"`
	MessageID    string `json:"message_id,omitempty"`
	WALink       string `json:"wa_link,omitempty"`
	ExpiresAt    int64  `json:"expires_at"`
}

// ConfirmResult is returned by every confirmation entry point.
type ConfirmResult struct {
	SessionID string                 `json:"session_id"`
	Status    string                 `json:"status"`
	Profile   *domain.TouristProfile `json:"profile,omitempty"`
}

// StatusResult is returned to polling clients.
type StatusResult struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	ExpiresAt int64  `json:"expires_at"`
}

type Service interface {
	Send(ctx context.Context, req domain.SendCodeRequest) (*SendResult, error)
	Confirm(ctx context.Context, req domain.ConfirmCodeRequest) (*ConfirmResult, error)
	// ConfirmFromMessage handles an inbound WhatsApp message: the sender's
	// number selects the session, the first 6-digit run in the body is the code.
	ConfirmFromMessage(ctx context.Context, senderDigits, body string) (*ConfirmResult, error)
	Status(ctx context.Context, sessionID string) (*StatusResult, error)
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.VerificationSession) error
	Get(ctx context.Context, sessionID string) (*domain.VerificationSession, error)
	GetLatestPendingByPhone(ctx context.Context, phone string) (*domain.VerificationSession, error)
	GetPendingByPhone(ctx context.Context, phone string) ([]domain.VerificationSession, error)
	MarkVerified(ctx context.Context, sessionID string, verifiedAt time.Time) error
	MarkExpired(ctx context.Context, sessionID string) error
	IncrementAttempts(ctx context.Context, sessionID string) (int, error)
	Delete(ctx context.Context, sessionID string) error
}

type whatsappSender interface {
	SendText(ctx context.Context, toDigits, body string) (string, error)
	Mode() string
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type service struct {
	sessions       sessionStore
	tourists       tourist.Service
	wa             whatsappSender
	sms            smsSender
	codeTTL        time.Duration
	maxAttempts    int
	allowDemoCodes bool
}

type ServiceDeps struct {
	SessionRepo    sessionStore
	Tourists       tourist.Service
	WhatsApp       whatsappSender
	SMSSender      smsSender // nil when SNS is unavailable; SMS sends then log only
	CodeTTL        time.Duration
	MaxAttempts    int
	AllowDemoCodes bool
}

func NewService(deps ServiceDeps) Service {
	return &service{
		sessions:       deps.SessionRepo,
		tourists:       deps.Tourists,
		wa:             deps.WhatsApp,
		sms:            deps.SMSSender,
		codeTTL:        deps.CodeTTL,
		maxAttempts:    deps.MaxAttempts,
		allowDemoCodes: deps.AllowDemoCodes,
	}
}

// Send creates a pending session and delivers its code. The session is rolled
// back when delivery fails, so a stored pending session always means the code
// left the building (or development mode logged it).
func (s *service) Send(ctx context.Context, req domain.SendCodeRequest) (*SendResult, error) {
	phone, err := pkgphone.Normalize(req.Phone)
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = pkgphone.RecommendMethod(phone)
	}

	// Dual-channel: an SMS request while a WhatsApp session is still pending
	// attaches a secondary code to that session instead of racing it.
	if method == domain.MethodSMS {
		if existing, err := s.sessions.GetLatestPendingByPhone(ctx, phone); err == nil &&
			existing.Method != domain.MethodSMS && !existing.Expired(time.Now()) {
			return s.resendAsSMS(ctx, existing)
		}
	}

	code, err := newCode()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess := &domain.VerificationSession{
		SessionID:    id.NewSession(methodPrefix(method)),
		Phone:        phone,
		FirstName:    req.FirstName,
		Code:         code,
		Status:       domain.StatusPending,
		Method:       method,
		DeliveryMode: s.deliveryMode(method),
		CreatedAt:    now.UTC(),
		ExpiresAt:    now.Add(s.codeTTL).Unix(),
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}

	result := &SendResult{
		SessionID:    sess.SessionID,
		Phone:        sess.Phone,
		Method:       sess.Method,
		DeliveryMode: sess.DeliveryMode,
		ExpiresAt:    sess.ExpiresAt,
	}

	switch method {
	case domain.MethodWhatsAppCloudAPI:
		msgID, err := s.wa.SendText(ctx, pkgphone.Digits(phone), codeMessage(code, s.codeTTL))
		if err != nil {
			s.rollback(ctx, sess.SessionID)
			return nil, fmt.Errorf("whatsapp send: %v: %w", err, domain.ErrDeliveryFailed)
		}
		sess.MessageID = msgID
		result.MessageID = msgID
	case domain.MethodSMS:
		if err := s.sendSMS(ctx, phone, codeMessage(code, s.codeTTL)); err != nil {
			s.rollback(ctx, sess.SessionID)
			return nil, fmt.Errorf("sms send: %v: %w", err, domain.ErrDeliveryFailed)
		}
	case domain.MethodWhatsAppLink:
		// No outbound call: the client opens the link and the user sends the
		// code to the business number; the webhook completes the loop.
		result.WALink = whatsapp.DeepLink(pkgphone.Digits(phone), "My verification code is "+code)
	default:
		s.rollback(ctx, sess.SessionID)
		return nil, fmt.Errorf("unsupported method %q: %w", method, domain.ErrBadRequest)
	}

	if sess.MessageID != "" {
		if err := s.sessions.Put(ctx, sess); err != nil {
			slog.Warn("failed to record message id on session", "session_id", sess.SessionID, "err", err)
		}
	}
	return result, nil
}

// resendAsSMS puts a fresh secondary code on an existing pending session and
// delivers it over SMS. Either code verifies the session afterwards.
func (s *service) resendAsSMS(ctx context.Context, sess *domain.VerificationSession) (*SendResult, error) {
	code, err := newCode()
	if err != nil {
		return nil, err
	}
	sess.SMSCode = code
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.sendSMS(ctx, sess.Phone, codeMessage(code, s.codeTTL)); err != nil {
		// Roll the secondary code back so only dispatched codes can verify.
		sess.SMSCode = ""
		if perr := s.sessions.Put(ctx, sess); perr != nil {
			slog.Warn("failed to roll back sms code after delivery failure", "session_id", sess.SessionID, "err", perr)
		}
		return nil, fmt.Errorf("sms send: %v: %w", err, domain.ErrDeliveryFailed)
	}
	return &SendResult{
		SessionID:    sess.SessionID,
		Phone:        sess.Phone,
		Method:       sess.Method,
		DeliveryMode: sess.DeliveryMode,
		MessageID:    sess.MessageID,
		ExpiresAt:    sess.ExpiresAt,
	}, nil
}

func (s *service) Confirm(ctx context.Context, req domain.ConfirmCodeRequest) (*ConfirmResult, error) {
	if req.Code == "" {
		return nil, fmt.Errorf("code is required: %w", domain.ErrBadRequest)
	}

	var sess *domain.VerificationSession
	var err error
	switch {
	case req.SessionID != "":
		sess, err = s.sessions.Get(ctx, req.SessionID)
	case req.Phone != "":
		var phone string
		phone, err = pkgphone.Normalize(req.Phone)
		if err != nil {
			return nil, err
		}
		sess, err = s.sessions.GetLatestPendingByPhone(ctx, phone)
	default:
		return nil, fmt.Errorf("session_id or phone is required: %w", domain.ErrBadRequest)
	}
	if err != nil {
		return nil, err
	}
	return s.confirmSession(ctx, sess, req.Code)
}

func (s *service) ConfirmFromMessage(ctx context.Context, senderDigits, body string) (*ConfirmResult, error) {
	m := codePattern.FindStringSubmatch(body)
	if m == nil {
		return nil, fmt.Errorf("no verification code in message: %w", domain.ErrBadRequest)
	}
	code := m[2]

	phone, err := pkgphone.Normalize(senderDigits)
	if err != nil {
		return nil, err
	}
	// Looking up by the sender's number is what prevents a coincidentally
	// matching code from verifying someone else's session. Every pending
	// session for the phone is checked, so a code from an older still-valid
	// send confirms its own session instead of counting as a mismatch
	// against the newest one.
	sessions, err := s.sessions.GetPendingByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	// Prefer a live session whose code matches; failing that a matching
	// session past its TTL (so the caller sees expired, not mismatch);
	// failing that the newest, where the mismatch is recorded.
	sess := &sessions[0]
	now := time.Now()
	for i := range sessions {
		if !s.codeMatches(&sessions[i], code) {
			continue
		}
		sess = &sessions[i]
		if !sess.Expired(now) {
			break
		}
	}
	return s.confirmSession(ctx, sess, code)
}

// confirmSession is the single transition routine shared by the manual,
// webhook, and simulated entry points.
func (s *service) confirmSession(ctx context.Context, sess *domain.VerificationSession, code string) (*ConfirmResult, error) {
	now := time.Now()

	switch sess.Status {
	case domain.StatusVerified:
		// Idempotent replay: the upsert refreshes last_active and cannot
		// create a duplicate profile.
		return s.verifiedResult(ctx, sess)
	case domain.StatusExpired:
		return nil, fmt.Errorf("session already expired: %w", domain.ErrExpired)
	}

	if sess.Expired(now) {
		s.expire(ctx, sess.SessionID)
		return nil, fmt.Errorf("code expired: %w", domain.ErrExpired)
	}

	if !s.codeMatches(sess, code) {
		attempts, err := s.sessions.IncrementAttempts(ctx, sess.SessionID)
		if err != nil {
			slog.Warn("failed to record confirm attempt", "session_id", sess.SessionID, "err", err)
		}
		if s.maxAttempts > 0 && attempts >= s.maxAttempts {
			s.expire(ctx, sess.SessionID)
			return nil, fmt.Errorf("attempt limit reached: %w", domain.ErrTooManyAttempts)
		}
		return nil, fmt.Errorf("invalid code: %w", domain.ErrCodeMismatch)
	}

	if err := s.sessions.MarkVerified(ctx, sess.SessionID, now); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost the race against another confirmation or an expiry pass.
			cur, gerr := s.sessions.Get(ctx, sess.SessionID)
			if gerr == nil && cur.Status == domain.StatusVerified {
				return s.verifiedResult(ctx, cur)
			}
			return nil, fmt.Errorf("code expired: %w", domain.ErrExpired)
		}
		return nil, err
	}

	profile, err := s.tourists.LinkVerified(ctx, sess.Phone, sess.FirstName)
	if err != nil {
		// The session is verified; a retried confirm hits the idempotent path
		// and repeats the upsert.
		return nil, fmt.Errorf("link tourist profile: %w", err)
	}

	// Best-effort courtesy message; verification stands regardless.
	if sess.Method != domain.MethodSMS {
		if _, err := s.wa.SendText(ctx, pkgphone.Digits(sess.Phone), confirmedMessage); err != nil {
			slog.Warn("failed to send confirmation message", "session_id", sess.SessionID, "err", err)
		}
	}

	return &ConfirmResult{SessionID: sess.SessionID, Status: domain.StatusVerified, Profile: profile}, nil
}

func (s *service) Status(ctx context.Context, sessionID string) (*StatusResult, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// Lazy expiry: polling is how clients discover their session timed out.
	if sess.Status == domain.StatusPending && sess.Expired(time.Now()) {
		s.expire(ctx, sessionID)
		sess.Status = domain.StatusExpired
	}
	return &StatusResult{SessionID: sess.SessionID, Status: sess.Status, ExpiresAt: sess.ExpiresAt}, nil
}

func (s *service) verifiedResult(ctx context.Context, sess *domain.VerificationSession) (*ConfirmResult, error) {
	profile, err := s.tourists.LinkVerified(ctx, sess.Phone, sess.FirstName)
	if err != nil {
		slog.Warn("failed to refresh tourist profile on replayed confirm", "phone", sess.Phone, "err", err)
	}
	return &ConfirmResult{SessionID: sess.SessionID, Status: domain.StatusVerified, Profile: profile}, nil
}

func (s *service) codeMatches(sess *domain.VerificationSession, code string) bool {
	if code == sess.Code {
		return true
	}
	if sess.SMSCode != "" && code == sess.SMSCode {
		return true
	}
	return s.allowDemoCodes && demoCodes[code]
}

func (s *service) expire(ctx context.Context, sessionID string) {
	if err := s.sessions.MarkExpired(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrConflict) {
		slog.Warn("failed to expire session", "session_id", sessionID, "err", err)
	}
}

func (s *service) rollback(ctx context.Context, sessionID string) {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		slog.Warn("failed to roll back session after delivery failure", "session_id", sessionID, "err", err)
	}
}

func (s *service) sendSMS(ctx context.Context, phone, message string) error {
	if s.sms == nil {
		slog.Info("sms sender not configured, development-mode send", "to", phone, "body", message)
		return nil
	}
	return s.sms.SendSMS(ctx, phone, message)
}

func (s *service) deliveryMode(method string) string {
	switch method {
	case domain.MethodWhatsAppCloudAPI:
		return s.wa.Mode()
	case domain.MethodSMS:
		if s.sms == nil {
			return domain.DeliveryModeDevelopment
		}
		return domain.DeliveryModeLive
	default:
		return domain.DeliveryModeLive
	}
}

const confirmedMessage = "Your phone number is verified. Welcome to Morocco Made Real!"

func codeMessage(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your Morocco Made Real verification code is %s. It expires in %d minutes.", code, int(ttl.Minutes()))
}

// newCode draws a uniform 6-digit code from [100000, 999999].
func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func methodPrefix(method string) string {
	switch method {
	case domain.MethodSMS:
		return "sms"
	case domain.MethodWhatsAppLink:
		return "link"
	default:
		return "wa"
	}
}
