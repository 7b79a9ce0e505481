// Package tourist links verified phone numbers to marketplace profiles.
package tourist

import (
	"context"
	"time"

	"github.com/tourist-verify-api/internal/domain"
	"github.com/tourist-verify-api/internal/pkg/id"
)

type Service interface {
	// LinkVerified marks the phone as verified, creating a default profile on
	// first verification. Idempotent: repeat calls refresh last_active only.
	LinkVerified(ctx context.Context, phone, firstName string) (*domain.TouristProfile, error)
	Get(ctx context.Context, phone string) (*domain.TouristProfile, error)
	// Touch refreshes last_active for an existing profile. No-op errors are
	// returned as-is; a missing profile is not created.
	Touch(ctx context.Context, phone string) error
}

type profileStore interface {
	Get(ctx context.Context, phone string) (*domain.TouristProfile, error)
	UpsertVerified(ctx context.Context, phone, touristID, firstName string, now time.Time) (*domain.TouristProfile, error)
	TouchLastActive(ctx context.Context, phone string, now time.Time) error
}

type service struct {
	repo profileStore
}

func NewService(repo profileStore) Service {
	return &service{repo: repo}
}

func (s *service) LinkVerified(ctx context.Context, phone, firstName string) (*domain.TouristProfile, error) {
	// The candidate id only sticks when the profile does not exist yet;
	// if_not_exists in the upsert discards it otherwise.
	return s.repo.UpsertVerified(ctx, phone, id.New(), firstName, time.Now())
}

func (s *service) Get(ctx context.Context, phone string) (*domain.TouristProfile, error) {
	return s.repo.Get(ctx, phone)
}

func (s *service) Touch(ctx context.Context, phone string) error {
	return s.repo.TouchLastActive(ctx, phone, time.Now())
}
