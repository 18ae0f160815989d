package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"refeera/internal/user/models"
	"refeera/pkg/domain"
	"refeera/pkg/platform/sentinel"
)

type InMemoryUserStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryUserStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryUserStoreSuite))
}

func (s *InMemoryUserStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *InMemoryUserStoreSuite) TestLookupBehavior() {
	u := models.NewUser("jane", "jane@example.com", "hash", time.Now())
	s.Require().NoError(s.store.Create(s.ctx, u))

	s.Run("by id", func() {
		found, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.Equal(u, found)
	})

	s.Run("by email", func() {
		found, err := s.store.FindByEmail(s.ctx, "jane@example.com")
		s.Require().NoError(err)
		s.Equal(u.ID, found.ID)
	})

	s.Run("missing", func() {
		_, err := s.store.FindByID(s.ctx, domain.NewUserID())
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.FindByEmail(s.ctx, "missing@example.com")
		s.ErrorIs(err, sentinel.ErrNotFound)
		ok, err := s.store.Exists(s.ctx, domain.NewUserID())
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("duplicate email", func() {
		err := s.store.Create(s.ctx, models.NewUser("other", "jane@example.com", "hash", time.Now()))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})
}

func (s *InMemoryUserStoreSuite) TestUpdate() {
	u := models.NewUser("jane", "jane@example.com", "hash", time.Now())
	s.Require().NoError(s.store.Create(s.ctx, u))

	u.IsVerified = true
	u.Email = "jane.new@example.com"
	s.Require().NoError(s.store.Update(s.ctx, u))

	found, err := s.store.FindByEmail(s.ctx, "jane.new@example.com")
	s.Require().NoError(err)
	s.True(found.IsVerified)
	_, err = s.store.FindByEmail(s.ctx, "jane@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.Update(s.ctx, models.NewUser("ghost", "ghost@example.com", "h", time.Now())), sentinel.ErrNotFound)
}

func (s *InMemoryUserStoreSuite) TestReturnedUsersAreCopies() {
	u := models.NewUser("jane", "jane@example.com", "hash", time.Now())
	s.Require().NoError(s.store.Create(s.ctx, u))

	found, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	found.IsVerified = true

	again, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.False(again.IsVerified)
}
