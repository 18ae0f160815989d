// Package referral persists referral links.
package referral

import (
	"context"
	"fmt"
	"sync"

	"refeera/internal/referral/models"
	"refeera/pkg/domain"
	"refeera/pkg/platform/sentinel"
)

// InMemory keeps referrals in a map keyed by referral id.
type InMemory struct {
	mu        sync.RWMutex
	referrals map[domain.ReferralID]models.Referral
}

func NewInMemory() *InMemory {
	return &InMemory{referrals: make(map[domain.ReferralID]models.Referral)}
}

func (s *InMemory) Create(_ context.Context, r *models.Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.referrals[r.ReferralID]; ok {
		return fmt.Errorf("create referral %s: %w", r.ReferralID, sentinel.ErrAlreadyUsed)
	}
	s.referrals[r.ReferralID] = *r
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.ReferralID) (*models.Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.referrals[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &r, nil
}

// FindMatching returns the referral only when all three keys match.
func (s *InMemory) FindMatching(_ context.Context, id domain.ReferralID, partnerID domain.PartnerID, offerID domain.OfferID) (*models.Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.referrals[id]
	if !ok || r.PartnerID != partnerID || r.OfferID != offerID {
		return nil, sentinel.ErrNotFound
	}
	return &r, nil
}
