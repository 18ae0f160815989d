// Package partner persists partner profiles.
package partner

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"refeera/internal/partner/models"
	"refeera/pkg/domain"
	"refeera/pkg/platform/sentinel"
)

type entry struct {
	seq     int64
	partner models.Partner
}

// InMemory keeps partners in a map; listings follow creation order.
type InMemory struct {
	mu       sync.RWMutex
	seq      int64
	partners map[domain.PartnerID]entry
}

func NewInMemory() *InMemory {
	return &InMemory{partners: make(map[domain.PartnerID]entry)}
}

func (s *InMemory) Create(_ context.Context, p *models.Partner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(p.Email, "") {
		return fmt.Errorf("create partner: email: %w", sentinel.ErrAlreadyUsed)
	}
	s.seq++
	s.partners[p.ID] = entry{seq: s.seq, partner: clonePartner(*p)}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.PartnerID) (*models.Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.partners[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	p := clonePartner(e.partner)
	return &p, nil
}

func (s *InMemory) Exists(_ context.Context, id domain.PartnerID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.partners[id]
	return ok, nil
}

// FindByUser returns the earliest partner owned by userID.
func (s *InMemory) FindByUser(_ context.Context, userID domain.UserID) (*models.Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *entry
	for _, e := range s.partners {
		if e.partner.UserID == userID && (found == nil || e.seq < found.seq) {
			found = &e
		}
	}
	if found == nil {
		return nil, sentinel.ErrNotFound
	}
	p := clonePartner(found.partner)
	return &p, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.partners {
		if e.partner.Email == email {
			p := clonePartner(e.partner)
			return &p, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context) ([]*models.Partner, error) {
	s.mu.RLock()
	entries := make([]entry, 0, len(s.partners))
	for _, e := range s.partners {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	slices.SortFunc(entries, func(a, b entry) int { return int(a.seq - b.seq) })
	out := make([]*models.Partner, 0, len(entries))
	for _, e := range entries {
		p := clonePartner(e.partner)
		out = append(out, &p)
	}
	return out, nil
}

func (s *InMemory) Update(_ context.Context, p *models.Partner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.partners[p.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if s.emailTaken(p.Email, p.ID) {
		return fmt.Errorf("update partner: email: %w", sentinel.ErrAlreadyUsed)
	}
	e.partner = clonePartner(*p)
	s.partners[p.ID] = e
	return nil
}

func (s *InMemory) Delete(_ context.Context, id domain.PartnerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.partners[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.partners, id)
	return nil
}

func (s *InMemory) DeleteAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.partners))
	clear(s.partners)
	return n, nil
}

// emailTaken reports whether another partner than except owns email.
// Callers hold the lock.
func (s *InMemory) emailTaken(email string, except domain.PartnerID) bool {
	for id, e := range s.partners {
		if id != except && e.partner.Email == email {
			return true
		}
	}
	return false
}

func clonePartner(p models.Partner) models.Partner {
	p.Experience = slices.Clone(p.Experience)
	p.Languages = slices.Clone(p.Languages)
	return p
}
