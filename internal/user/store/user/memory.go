// Package user persists user accounts.
package user

import (
	"context"
	"fmt"
	"sync"

	"refeera/internal/user/models"
	"refeera/pkg/domain"
	"refeera/pkg/platform/sentinel"
)

// InMemory keeps users in a map keyed by id with an email index.
type InMemory struct {
	mu      sync.RWMutex
	users   map[domain.UserID]models.User
	byEmail map[string]domain.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:   make(map[domain.UserID]models.User),
		byEmail: make(map[string]domain.UserID),
	}
}

func (s *InMemory) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[u.Email]; taken {
		return fmt.Errorf("create user: email: %w", sentinel.ErrAlreadyUsed)
	}
	s.users[u.ID] = *u
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &u, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *InMemory) Exists(_ context.Context, id domain.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[id]
	return ok, nil
}

func (s *InMemory) Update(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.users[u.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if owner, taken := s.byEmail[u.Email]; taken && owner != u.ID {
		return fmt.Errorf("update user: email: %w", sentinel.ErrAlreadyUsed)
	}
	delete(s.byEmail, prev.Email)
	s.users[u.ID] = *u
	s.byEmail[u.Email] = u.ID
	return nil
}
