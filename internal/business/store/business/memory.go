// Package business persists business accounts.
package business

import (
	"context"
	"fmt"
	"sync"

	"refeera/internal/business/models"
	"refeera/pkg/domain"
	"refeera/pkg/platform/sentinel"
)

// InMemory keeps businesses in creation order. Email is unique among live
// (not deleted) businesses only.
type InMemory struct {
	mu    sync.RWMutex
	order []domain.BusinessID
	byID  map[domain.BusinessID]models.Business
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[domain.BusinessID]models.Business)}
}

func (s *InMemory) Create(_ context.Context, b *models.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.Live() && s.liveEmailTaken(b.Email, "") {
		return fmt.Errorf("create business: email: %w", sentinel.ErrAlreadyUsed)
	}
	s.byID[b.ID] = cloneBusiness(*b)
	s.order = append(s.order, b.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.BusinessID) (*models.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	b = cloneBusiness(b)
	return &b, nil
}

func (s *InMemory) FindLiveByEmail(_ context.Context, email string) (*models.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if b := s.byID[id]; b.Live() && b.Email == email {
			b = cloneBusiness(b)
			return &b, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context) ([]*models.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Business, 0, len(s.order))
	for _, id := range s.order {
		b := cloneBusiness(s.byID[id])
		out = append(out, &b)
	}
	return out, nil
}

func (s *InMemory) Update(_ context.Context, b *models.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[b.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if b.Live() && s.liveEmailTaken(b.Email, b.ID) {
		return fmt.Errorf("update business: email: %w", sentinel.ErrAlreadyUsed)
	}
	s.byID[b.ID] = cloneBusiness(*b)
	return nil
}

func (s *InMemory) liveEmailTaken(email string, except domain.BusinessID) bool {
	for id, b := range s.byID {
		if id != except && b.Live() && b.Email == email {
			return true
		}
	}
	return false
}

func cloneBusiness(b models.Business) models.Business {
	b.BusinessType = append([]string{}, b.BusinessType...)
	b.PromotionalMaterials = append([]string{}, b.PromotionalMaterials...)
	if b.HasPromotingEmployees != nil {
		v := *b.HasPromotingEmployees
		b.HasPromotingEmployees = &v
	}
	return b
}
