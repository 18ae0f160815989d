// Package submission persists referral form submissions, one live record per
// (email, offer) pair.
package submission

import (
	"context"
	"sync"

	"refeera/internal/referral/models"
	"refeera/pkg/domain"
)

type key struct {
	email string
	offer domain.OfferID
}

// InMemory keeps submissions in insertion order with an index on the
// (email, offer) key.
type InMemory struct {
	mu      sync.RWMutex
	records []models.Submission
	byKey   map[key]int
}

func NewInMemory() *InMemory {
	return &InMemory{byKey: make(map[key]int)}
}

// Upsert replaces the record for (email, offer) or appends a new one. A
// replaced record keeps its ID, CreatedAt and position.
func (s *InMemory) Upsert(_ context.Context, sub *models.Submission) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{email: sub.Email, offer: sub.OfferID}
	stored := *sub
	if i, ok := s.byKey[k]; ok {
		stored.ID = s.records[i].ID
		stored.CreatedAt = s.records[i].CreatedAt
		s.records[i] = stored
	} else {
		s.byKey[k] = len(s.records)
		s.records = append(s.records, stored)
	}
	return &stored, nil
}

func (s *InMemory) FindByEmailOffer(_ context.Context, email string, offer domain.OfferID) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byKey[key{email: email, offer: offer}]
	if !ok {
		return nil, errNotFound(offer)
	}
	sub := s.records[i]
	return &sub, nil
}

// ListByPartner returns one page of matches in insertion order plus the
// total match count.
func (s *InMemory) ListByPartner(_ context.Context, f models.SubmissionFilter, p models.Page) ([]*models.Submission, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		page  []*models.Submission
		total int64
	)
	offset := int64(p.Offset())
	for i := range s.records {
		if !matches(&s.records[i], f) {
			continue
		}
		if total >= offset && len(page) < p.Limit {
			sub := s.records[i]
			page = append(page, &sub)
		}
		total++
	}
	return page, total, nil
}

func matches(sub *models.Submission, f models.SubmissionFilter) bool {
	if sub.PartnerID != f.PartnerID {
		return false
	}
	if f.OfferID != "" && string(sub.OfferID) != f.OfferID {
		return false
	}
	if f.Email != "" && sub.Email != f.Email {
		return false
	}
	if f.IsPartialSubmission != nil && sub.IsPartialSubmission != *f.IsPartialSubmission {
		return false
	}
	return true
}
