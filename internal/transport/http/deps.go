package http

import (
	"context"
	"io"
	"time"

	"github.com/tourist-verify-api/internal/domain"
)

// SessionRepository is the minimal interface the router requires from a
// verification-session store.
type SessionRepository interface {
	Put(ctx context.Context, s *domain.VerificationSession) error
	Get(ctx context.Context, sessionID string) (*domain.VerificationSession, error)
	// GetLatestPendingByPhone resolves the newest pending session for a phone
	// via the `phone-created_at-index` GSI.
	GetLatestPendingByPhone(ctx context.Context, phone string) (*domain.VerificationSession, error)
	// GetPendingByPhone lists every pending session for a phone, newest
	// first, via the same GSI.
	GetPendingByPhone(ctx context.Context, phone string) ([]domain.VerificationSession, error)
	MarkVerified(ctx context.Context, sessionID string, verifiedAt time.Time) error
	MarkExpired(ctx context.Context, sessionID string) error
	IncrementAttempts(ctx context.Context, sessionID string) (int, error)
	Delete(ctx context.Context, sessionID string) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.VerificationSession, string, error)
}

// TouristRepository is the minimal interface the router requires from a
// tourist-profile store.
type TouristRepository interface {
	Get(ctx context.Context, phone string) (*domain.TouristProfile, error)
	UpsertVerified(ctx context.Context, phone, touristID, firstName string, now time.Time) (*domain.TouristProfile, error)
	TouchLastActive(ctx context.Context, phone string, now time.Time) error
}

// WebhookArchive is the minimal interface the router requires from the raw
// webhook payload store.
type WebhookArchive interface {
	Store(ctx context.Context, id string, payload []byte) (string, error)
	Fetch(ctx context.Context, key string) (io.ReadCloser, error)
}
