package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"refeera/pkg/domain"
	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/validation"
	"refeera/pkg/wire"
)

// SubmissionInput is the client payload of a referral form post.
type SubmissionInput struct {
	ReferralID          string    `json:"referralId"`
	PartnerID           string    `json:"partnerId"`
	OfferID             string    `json:"offerId"`
	Fname               string    `json:"fname"`
	Lname               string    `json:"lname"`
	Email               string    `json:"email"`
	PhoneNo             string    `json:"phoneNo"`
	MedicaidMedicare    string    `json:"medicaidMedicare" validate:"omitempty,oneof=yes no"`
	Address             string    `json:"address"`
	State               string    `json:"state"`
	City                string    `json:"city"`
	PostalCode          string    `json:"postalCode"`
	Country             string    `json:"country"`
	Dob                 string    `json:"dob"`
	Ssn                 string    `json:"ssn"`
	Gender              string    `json:"gender" validate:"omitempty,oneof=male female other"`
	HasSpouse           string    `json:"hasSpouse" validate:"omitempty,oneof=yes no"`
	SpouseFname         string    `json:"spouseFname"`
	SpouseLname         string    `json:"spouseLname"`
	SpouseSsn           string    `json:"spouseSsn"`
	EnrollSpouse        string    `json:"enrollSpouse" validate:"omitempty,oneof=yes no"`
	IsPartialSubmission wire.Bool `json:"isPartialSubmission"`
}

// Normalize trims the lookup keys. Payload fields are stored as sent.
func (in *SubmissionInput) Normalize() {
	in.ReferralID = strings.TrimSpace(in.ReferralID)
	in.PartnerID = strings.TrimSpace(in.PartnerID)
	in.OfferID = strings.TrimSpace(in.OfferID)
	in.Email = strings.TrimSpace(in.Email)
}

// Validate checks the payload in the order clients observe: required
// identifiers, then the partial submission rule, then enumerated fields.
func (in *SubmissionInput) Validate() error {
	if in.ReferralID == "" || in.PartnerID == "" || in.OfferID == "" || in.Email == "" {
		return dErrors.New(dErrors.CodeMissingFields, "Missing required fields")
	}
	if bool(in.IsPartialSubmission) && in.MedicaidMedicare == "" {
		return dErrors.New(dErrors.CodeMissingFields, "Medicaid/Medicare selection is required for partial submission")
	}
	return validation.Struct(in)
}

// Submission is the stored form for one (email, offer) pair.
type Submission struct {
	ID                  string            `json:"_id" bson:"_id"`
	ReferralID          domain.ReferralID `json:"referralId" bson:"referralId"`
	PartnerID           domain.PartnerID  `json:"partnerId" bson:"partnerId"`
	OfferID             domain.OfferID    `json:"offerId" bson:"offerId"`
	Fname               string            `json:"fname" bson:"fname"`
	Lname               string            `json:"lname" bson:"lname"`
	Email               string            `json:"email" bson:"email"`
	PhoneNo             string            `json:"phoneNo" bson:"phoneNo"`
	MedicaidMedicare    string            `json:"medicaidMedicare" bson:"medicaidMedicare"`
	Address             string            `json:"address" bson:"address"`
	State               string            `json:"state" bson:"state"`
	City                string            `json:"city" bson:"city"`
	PostalCode          string            `json:"postalCode" bson:"postalCode"`
	Country             string            `json:"country" bson:"country"`
	Dob                 string            `json:"dob" bson:"dob"`
	Ssn                 string            `json:"-" bson:"ssn"`
	Gender              string            `json:"gender" bson:"gender"`
	HasSpouse           string            `json:"hasSpouse" bson:"hasSpouse"`
	SpouseFname         string            `json:"spouseFname" bson:"spouseFname"`
	SpouseLname         string            `json:"spouseLname" bson:"spouseLname"`
	SpouseSsn           string            `json:"-" bson:"spouseSsn"`
	EnrollSpouse        string            `json:"enrollSpouse" bson:"enrollSpouse"`
	Disqualified        bool              `json:"disqualified" bson:"disqualified"`
	IsPartialSubmission bool              `json:"isPartialSubmission" bson:"isPartialSubmission"`
	CreatedAt           time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// NewSubmission builds the full replacement record for in. Every payload
// field is assigned, so a resubmission with fewer fields clears the ones it
// omits. Stores keep ID and CreatedAt of an existing record on upsert.
func NewSubmission(in SubmissionInput, now time.Time) *Submission {
	return &Submission{
		ID:                  uuid.NewString(),
		ReferralID:          domain.ReferralID(in.ReferralID),
		PartnerID:           domain.PartnerID(in.PartnerID),
		OfferID:             domain.OfferID(in.OfferID),
		Fname:               in.Fname,
		Lname:               in.Lname,
		Email:               in.Email,
		PhoneNo:             in.PhoneNo,
		MedicaidMedicare:    in.MedicaidMedicare,
		Address:             in.Address,
		State:               in.State,
		City:                in.City,
		PostalCode:          in.PostalCode,
		Country:             in.Country,
		Dob:                 in.Dob,
		Ssn:                 in.Ssn,
		Gender:              in.Gender,
		HasSpouse:           in.HasSpouse,
		SpouseFname:         in.SpouseFname,
		SpouseLname:         in.SpouseLname,
		SpouseSsn:           in.SpouseSsn,
		EnrollSpouse:        in.EnrollSpouse,
		Disqualified:        in.MedicaidMedicare == "yes",
		IsPartialSubmission: bool(in.IsPartialSubmission),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// SubmissionView is the read projection. It has no social security fields,
// so no listing can leak them whatever the serializer does.
type SubmissionView struct {
	ID                  string    `json:"_id"`
	ReferralID          string    `json:"referralId"`
	PartnerID           string    `json:"partnerId"`
	OfferID             string    `json:"offerId"`
	Fname               string    `json:"fname"`
	Lname               string    `json:"lname"`
	Email               string    `json:"email"`
	PhoneNo             string    `json:"phoneNo"`
	MedicaidMedicare    string    `json:"medicaidMedicare"`
	Address             string    `json:"address"`
	State               string    `json:"state"`
	City                string    `json:"city"`
	PostalCode          string    `json:"postalCode"`
	Country             string    `json:"country"`
	Dob                 string    `json:"dob"`
	Gender              string    `json:"gender"`
	HasSpouse           string    `json:"hasSpouse"`
	SpouseFname         string    `json:"spouseFname"`
	SpouseLname         string    `json:"spouseLname"`
	EnrollSpouse        string    `json:"enrollSpouse"`
	Disqualified        bool      `json:"disqualified"`
	IsPartialSubmission bool      `json:"isPartialSubmission"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func (s *Submission) View() SubmissionView {
	return SubmissionView{
		ID:                  s.ID,
		ReferralID:          s.ReferralID.String(),
		PartnerID:           s.PartnerID.String(),
		OfferID:             s.OfferID.String(),
		Fname:               s.Fname,
		Lname:               s.Lname,
		Email:               s.Email,
		PhoneNo:             s.PhoneNo,
		MedicaidMedicare:    s.MedicaidMedicare,
		Address:             s.Address,
		State:               s.State,
		City:                s.City,
		PostalCode:          s.PostalCode,
		Country:             s.Country,
		Dob:                 s.Dob,
		Gender:              s.Gender,
		HasSpouse:           s.HasSpouse,
		SpouseFname:         s.SpouseFname,
		SpouseLname:         s.SpouseLname,
		EnrollSpouse:        s.EnrollSpouse,
		Disqualified:        s.Disqualified,
		IsPartialSubmission: s.IsPartialSubmission,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

// SubmitResult is the outcome returned to the form.
type SubmitResult struct {
	Success        bool `json:"success"`
	IsDisqualified bool `json:"isDisqualified"`
}

// SubmissionFilter narrows a partner listing. Nil and empty fields match all.
type SubmissionFilter struct {
	PartnerID           domain.PartnerID
	OfferID             string
	Email               string
	IsPartialSubmission *bool
}

// ParsePartialFilter maps the query value to a filter: empty matches all,
// "true" matches partial submissions, anything else matches complete ones.
func ParsePartialFilter(raw string) *bool {
	if raw == "" {
		return nil
	}
	v := raw == "true"
	return &v
}
