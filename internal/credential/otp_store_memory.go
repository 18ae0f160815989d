package credential

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"refeera/pkg/platform/sentinel"
)

type otpEntry struct {
	code      string
	expiresAt time.Time
	misses    int
}

// InMemoryOTPStore is an OTPStore for single-process deployments and tests.
type InMemoryOTPStore struct {
	mu      sync.Mutex
	entries map[string]otpEntry
	now     func() time.Time
}

func NewInMemoryOTPStore() *InMemoryOTPStore {
	return &InMemoryOTPStore{
		entries: make(map[string]otpEntry),
		now:     time.Now,
	}
}

func (s *InMemoryOTPStore) Save(_ context.Context, purpose OTPPurpose, accountID, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[otpKey(purpose, accountID)] = otpEntry{code: code, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *InMemoryOTPStore) Consume(_ context.Context, purpose OTPPurpose, accountID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := otpKey(purpose, accountID)
	entry, ok := s.entries[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return sentinel.ErrExpired
	}
	if subtle.ConstantTimeCompare([]byte(entry.code), []byte(code)) != 1 {
		entry.misses++
		if entry.misses >= MaxOTPAttempts {
			delete(s.entries, key)
		} else {
			s.entries[key] = entry
		}
		return sentinel.ErrMismatch
	}
	delete(s.entries, key)
	return nil
}
