package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"absher/internal/identity/models"
	"absher/pkg/sentinel"
)

type StoreSuite struct {
	suite.Suite
	store    *InMemoryStore
	template models.User
	now      time.Time
}

func (s *StoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	expiry := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	s.template = models.User{
		NationalID:   "1012345678",
		Username:     "ahmed",
		PasswordHash: "hash",
		Name:         "Ahmed",
		PhoneNumber:  "+966500000001",
		Services: []models.ServiceRecord{
			{Kind: models.KindDriverLicense, Label: "Driver License", ExpiresAt: &expiry},
			{Kind: models.KindPassport, Label: "Passport"},
		},
	}
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) TestSessionsAreIndependentCopies() {
	ctx := context.Background()

	first, err := s.store.Create(ctx, s.template, s.now)
	s.Require().NoError(err)
	second, err := s.store.Create(ctx, s.template, s.now)
	s.Require().NoError(err)
	s.NotEqual(first, second)

	// Renewing in one session must not leak into the other or the template.
	newExpiry := s.now.Add(365 * 24 * time.Hour)
	s.Require().NoError(s.store.UpdateServiceExpiry(ctx, first, models.KindDriverLicense, newExpiry))

	su, err := s.store.Find(ctx, second)
	s.Require().NoError(err)
	s.True(su.User.Services[0].ExpiresAt.Before(newExpiry))
	s.True(s.template.Services[0].ExpiresAt.Before(newExpiry))
}

func (s *StoreSuite) TestFindReturnsDefensiveCopy() {
	ctx := context.Background()
	id, err := s.store.Create(ctx, s.template, s.now)
	s.Require().NoError(err)

	su, err := s.store.Find(ctx, id)
	s.Require().NoError(err)
	mutated := s.now.Add(time.Hour)
	su.User.Services[0].ExpiresAt = &mutated
	su.User.Name = "changed"

	fresh, err := s.store.Find(ctx, id)
	s.Require().NoError(err)
	s.Equal("Ahmed", fresh.User.Name)
	s.NotEqual(mutated, *fresh.User.Services[0].ExpiresAt)
}

func (s *StoreSuite) TestFindUnknownSession() {
	_, err := s.store.Find(context.Background(), uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreSuite) TestUpdateServiceExpiry() {
	ctx := context.Background()
	id, err := s.store.Create(ctx, s.template, s.now)
	s.Require().NoError(err)

	s.Run("advances the expiry", func() {
		newExpiry := s.now.Add(365 * 24 * time.Hour)
		s.Require().NoError(s.store.UpdateServiceExpiry(ctx, id, models.KindDriverLicense, newExpiry))

		su, err := s.store.Find(ctx, id)
		s.Require().NoError(err)
		s.True(su.User.Services[0].ExpiresAt.Equal(newExpiry))
	})

	s.Run("refuses to move backwards", func() {
		err := s.store.UpdateServiceExpiry(ctx, id, models.KindDriverLicense, s.now.Add(-time.Hour))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("untracked service", func() {
		err := s.store.UpdateServiceExpiry(ctx, id, models.KindPassport, s.now)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("unknown kind", func() {
		err := s.store.UpdateServiceExpiry(ctx, id, models.KindNationalID, s.now)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("unknown session", func() {
		err := s.store.UpdateServiceExpiry(ctx, uuid.New(), models.KindDriverLicense, s.now)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *StoreSuite) TestExistsAndListIDs() {
	ctx := context.Background()

	ids, err := s.store.ListIDs(ctx)
	s.Require().NoError(err)
	s.Empty(ids)

	id, err := s.store.Create(ctx, s.template, s.now)
	s.Require().NoError(err)

	ok, err := s.store.Exists(ctx, id)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.Exists(ctx, uuid.New())
	s.Require().NoError(err)
	s.False(ok)

	ids, err = s.store.ListIDs(ctx)
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{id}, ids)

	n, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}
