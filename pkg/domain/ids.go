package domain

import (
	"github.com/google/uuid"

	dErrors "refeera/pkg/domain-errors"
)

// Typed identifiers keep user, partner, business and referral ids from being
// swapped at call sites. All are canonical lowercase UUID strings so they
// round-trip unchanged through JSON, BSON and TEXT columns.
type (
	UserID     string
	PartnerID  string
	BusinessID string
	ReferralID string
)

func NewUserID() UserID         { return UserID(uuid.NewString()) }
func NewPartnerID() PartnerID   { return PartnerID(uuid.NewString()) }
func NewBusinessID() BusinessID { return BusinessID(uuid.NewString()) }

// NewReferralID returns a random (version 4) UUID. With 122 random bits a
// collision is not expected within the lifetime of the system, so callers do
// not retry; the store's unique index turns the impossible case into an error.
func NewReferralID() ReferralID { return ReferralID(uuid.NewString()) }

func (id UserID) String() string     { return string(id) }
func (id PartnerID) String() string  { return string(id) }
func (id BusinessID) String() string { return string(id) }
func (id ReferralID) String() string { return string(id) }

func ParseUserID(s string) (UserID, error) {
	v, err := parseUUID(s, "user id")
	return UserID(v), err
}

func ParsePartnerID(s string) (PartnerID, error) {
	v, err := parseUUID(s, "partner id")
	return PartnerID(v), err
}

func ParseBusinessID(s string) (BusinessID, error) {
	v, err := parseUUID(s, "business id")
	return BusinessID(v), err
}

func ParseReferralID(s string) (ReferralID, error) {
	v, err := parseUUID(s, "referral id")
	return ReferralID(v), err
}

func parseUUID(s, label string) (string, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	if len(s) > 64 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	parsed, err := uuid.Parse(s)
	if err != nil || parsed == uuid.Nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return parsed.String(), nil
}
