package tourist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tourist-verify-api/internal/domain"
)

type mockProfileStore struct{ mock.Mock }

func (m *mockProfileStore) Get(ctx context.Context, phone string) (*domain.TouristProfile, error) {
	args := m.Called(ctx, phone)
	if p, _ := args.Get(0).(*domain.TouristProfile); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProfileStore) UpsertVerified(ctx context.Context, phone, touristID, firstName string, now time.Time) (*domain.TouristProfile, error) {
	args := m.Called(ctx, phone, touristID, firstName, now)
	if p, _ := args.Get(0).(*domain.TouristProfile); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProfileStore) TouchLastActive(ctx context.Context, phone string, now time.Time) error {
	return m.Called(ctx, phone, now).Error(0)
}

func TestLinkVerified_PassesFreshCandidateID(t *testing.T) {
	repo := &mockProfileStore{}
	var seen []string
	repo.On("UpsertVerified", mock.Anything, "+212612345678", mock.Anything, "Amina", mock.Anything).
		Run(func(args mock.Arguments) { seen = append(seen, args.String(2)) }).
		Return(&domain.TouristProfile{Phone: "+212612345678", PhoneVerified: true}, nil)

	svc := NewService(repo)
	p, err := svc.LinkVerified(context.Background(), "+212612345678", "Amina")
	require.NoError(t, err)
	assert.True(t, p.PhoneVerified)

	_, err = svc.LinkVerified(context.Background(), "+212612345678", "Amina")
	require.NoError(t, err)

	// Two calls reach the store as two upserts with distinct candidate ids;
	// the store's if_not_exists keeps whichever landed first.
	require.Len(t, seen, 2)
	assert.NotEmpty(t, seen[0])
	assert.NotEqual(t, seen[0], seen[1])
	repo.AssertNumberOfCalls(t, "UpsertVerified", 2)
}

func TestTouch_DelegatesToStore(t *testing.T) {
	repo := &mockProfileStore{}
	repo.On("TouchLastActive", mock.Anything, "+212612345678", mock.Anything).Return(nil)

	svc := NewService(repo)
	require.NoError(t, svc.Touch(context.Background(), "+212612345678"))
	repo.AssertExpectations(t)
}

func TestGet_NotFoundPassesThrough(t *testing.T) {
	repo := &mockProfileStore{}
	repo.On("Get", mock.Anything, "+33698765432").Return(nil, domain.ErrNotFound)

	svc := NewService(repo)
	_, err := svc.Get(context.Background(), "+33698765432")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
