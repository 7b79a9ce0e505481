package domain

import "time"

// Verification session statuses. Transitions are monotonic: once a session
// leaves StatusPending it never returns.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusExpired  = "expired"
)

// Delivery methods for the one-time code.
const (
	MethodWhatsAppCloudAPI = "whatsapp_cloud_api"
	MethodSMS              = "sms"
	MethodWhatsAppLink     = "whatsapp_link"
)

// Delivery modes. DeliveryModeDevelopment means no provider call was made
// and the message id on the session is synthetic.
const (
	DeliveryModeLive        = "live"
	DeliveryModeDevelopment = "development"
)

// VerificationSession tracks one phone-verification attempt from code send to
// confirmation or expiry. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type VerificationSession struct {
	SessionID    string `json:"id" dynamodbav:"session_id"`
	Phone        string `json:"phone" dynamodbav:"phone"` // E.164 with leading +
	FirstName    string `json:"-" dynamodbav:"first_name,omitempty"`
	Code         string `json:"-" dynamodbav:"code"`
	SMSCode      string `json:"-" dynamodbav:"sms_code,omitempty"`
	Status       string `json:"status" dynamodbav:"status"`
	Method       string `json:"method" dynamodbav:"method"`
	DeliveryMode string `json:"delivery_mode" dynamodbav:"delivery_mode"`
	MessageID    string `json:"message_id,omitempty" dynamodbav:"message_id"`
	Attempts     int    `json:"attempts" dynamodbav:"attempts"`
	// Stored as a Unix timestamp (N) so the phone GSI range key sorts
	// numerically; RFC3339 strings with trimmed sub-second digits do not
	// sort lexicographically in creation order.
	CreatedAt  time.Time  `json:"created_at" dynamodbav:"created_at,unixtime"`
	ExpiresAt  int64      `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	VerifiedAt *time.Time `json:"verified_at,omitempty" dynamodbav:"verified_at,omitempty"`
}

// Expired reports whether the session's TTL has passed at the given instant.
func (s *VerificationSession) Expired(now time.Time) bool {
	return now.Unix() >= s.ExpiresAt
}

// SendCodeRequest is the body of POST /verification/send.
type SendCodeRequest struct {
	Phone     string `json:"phone" validate:"required"`
	Method    string `json:"method" validate:"omitempty,oneof=whatsapp_cloud_api sms whatsapp_link"`
	FirstName string `json:"first_name"`
}

// ConfirmCodeRequest is the body of POST /verification/confirm. Either
// SessionID or Phone must be set; Code is always required.
type ConfirmCodeRequest struct {
	SessionID string `json:"session_id"`
	Phone     string `json:"phone"`
	Code      string `json:"code" validate:"required,len=6,numeric"`
}
