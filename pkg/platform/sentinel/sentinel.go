package sentinel

import "errors"

// Store and infrastructure facts. Stores return these (optionally wrapped) and
// services translate them into coded domain errors:
//   - ErrNotFound: no record matches the lookup
//   - ErrAlreadyUsed: a unique key (email, referral id) is already taken
//   - ErrExpired: a one-time code exists but is past its TTL
//   - ErrMismatch: a one-time code exists but the presented value differs
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrExpired     = errors.New("expired")
	ErrMismatch    = errors.New("mismatch")
)
