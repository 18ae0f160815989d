package referral

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"refeera/internal/referral/models"
	"refeera/pkg/domain"
	"refeera/pkg/platform/sentinel"
)

type InMemoryReferralSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryReferralSuite(t *testing.T) {
	suite.Run(t, new(InMemoryReferralSuite))
}

func (s *InMemoryReferralSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *InMemoryReferralSuite) TestCreateAndFind() {
	r := models.NewReferral(domain.NewPartnerID(), domain.OfferACA, time.Now())
	s.Require().NoError(s.store.Create(s.ctx, r))

	found, err := s.store.FindByID(s.ctx, r.ReferralID)
	s.Require().NoError(err)
	s.Equal(r.PartnerID, found.PartnerID)

	_, err = s.store.FindByID(s.ctx, domain.NewReferralID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryReferralSuite) TestDuplicateIDRejected() {
	r := models.NewReferral(domain.NewPartnerID(), domain.OfferRx, time.Now())
	s.Require().NoError(s.store.Create(s.ctx, r))
	s.ErrorIs(s.store.Create(s.ctx, r), sentinel.ErrAlreadyUsed)
}

func (s *InMemoryReferralSuite) TestFindMatchingRequiresAllKeys() {
	partner := domain.NewPartnerID()
	r := models.NewReferral(partner, domain.OfferMedicare, time.Now())
	s.Require().NoError(s.store.Create(s.ctx, r))

	_, err := s.store.FindMatching(s.ctx, r.ReferralID, partner, domain.OfferMedicare)
	s.NoError(err)

	_, err = s.store.FindMatching(s.ctx, r.ReferralID, partner, domain.OfferACA)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindMatching(s.ctx, r.ReferralID, domain.NewPartnerID(), domain.OfferMedicare)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryReferralSuite) TestReturnedValueIsACopy() {
	r := models.NewReferral(domain.NewPartnerID(), domain.OfferACA, time.Now())
	s.Require().NoError(s.store.Create(s.ctx, r))

	found, err := s.store.FindByID(s.ctx, r.ReferralID)
	s.Require().NoError(err)
	found.OfferID = domain.OfferRx

	again, err := s.store.FindByID(s.ctx, r.ReferralID)
	s.Require().NoError(err)
	s.Equal(domain.OfferACA, again.OfferID)
}
