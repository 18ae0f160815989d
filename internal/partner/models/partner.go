package models

import (
	"io"
	"strings"
	"time"

	"refeera/pkg/domain"
	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/email"
	"refeera/pkg/wire"
)

// Partner is a promoter profile owned by a user account. Referral links are
// generated for partners.
type Partner struct {
	ID               domain.PartnerID `json:"_id" bson:"_id"`
	UserID           domain.UserID    `json:"user" bson:"user"`
	Name             string           `json:"partner_name" bson:"partner_name"`
	Email            string           `json:"partner_email" bson:"partner_email"`
	Number           string           `json:"partner_number" bson:"partner_number"`
	Location         string           `json:"partner_location" bson:"partner_location"`
	State            string           `json:"partner_state" bson:"partner_state"`
	Earning          string           `json:"partner_earning" bson:"partner_earning"`
	ContactMethod    string           `json:"contact_method" bson:"contact_method"`
	Experience       []string         `json:"experience" bson:"experience"`
	ExperienceOther  string           `json:"experienceOther" bson:"experienceOther"`
	CurrentlyPromote string           `json:"currentlyPromote" bson:"currentlyPromote"`
	PromotionDetails string           `json:"promotionDetails" bson:"promotionDetails"`
	WeeklyReach      string           `json:"weeklyReach" bson:"weeklyReach"`
	Languages        []string         `json:"languages" bson:"languages"`
	LanguageOther    string           `json:"languageOther" bson:"languageOther"`
	WeeklyHours      string           `json:"weeklyHours" bson:"weeklyHours"`
	PromotionMethod  string           `json:"promotionMethod" bson:"promotionMethod"`
	ZoomTraining     string           `json:"zoomTraining" bson:"zoomTraining"`
	BonusEligible    string           `json:"bonusEligible" bson:"bonusEligible"`
	Selfie           string           `json:"selfie" bson:"selfie"`
	ReferralCode     string           `json:"referralCode" bson:"referralCode"`
	CreatedAt        time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt" bson:"updatedAt"`
}

// PartnerInput is the create and update payload.
type PartnerInput struct {
	Name             string          `json:"partner_name"`
	Email            string          `json:"partner_email"`
	Number           string          `json:"partner_number"`
	Location         string          `json:"partner_location"`
	State            string          `json:"partner_state"`
	Earning          string          `json:"partner_earning"`
	ContactMethod    string          `json:"contact_method"`
	Experience       wire.StringList `json:"experience"`
	ExperienceOther  string          `json:"experienceOther"`
	CurrentlyPromote string          `json:"currentlyPromote"`
	PromotionDetails string          `json:"promotionDetails"`
	WeeklyReach      string          `json:"weeklyReach"`
	Languages        wire.StringList `json:"languages"`
	LanguageOther    string          `json:"languageOther"`
	WeeklyHours      string          `json:"weeklyHours"`
	PromotionMethod  string          `json:"promotionMethod"`
	ZoomTraining     string          `json:"zoomTraining"`
	BonusEligible    string          `json:"bonusEligible"`
	ReferralCode     string          `json:"referralCode"`
}

func (in *PartnerInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = email.Normalize(in.Email)
	in.Number = strings.TrimSpace(in.Number)
	in.Location = strings.TrimSpace(in.Location)
	in.State = strings.TrimSpace(in.State)
	in.Earning = strings.TrimSpace(in.Earning)
}

// Validate requires the six contact fields.
func (in *PartnerInput) Validate() error {
	if in.Name == "" || in.Email == "" || in.Number == "" || in.Location == "" || in.State == "" || in.Earning == "" {
		return dErrors.New(dErrors.CodeMissingFields, "Please enter all required fields: name, email, number, location, state, earning")
	}
	if !email.IsValid(in.Email) {
		return dErrors.New(dErrors.CodeInvalidInput, "Please enter a valid email")
	}
	return nil
}

// NewPartner builds a partner owned by userID.
func NewPartner(userID domain.UserID, in PartnerInput, selfie string, now time.Time) *Partner {
	p := &Partner{
		ID:        domain.NewPartnerID(),
		UserID:    userID,
		CreatedAt: now,
	}
	p.Apply(in, selfie, now)
	return p
}

// Apply overwrites every profile field from in. An empty selfie keeps the
// stored one.
func (p *Partner) Apply(in PartnerInput, selfie string, now time.Time) {
	p.Name = in.Name
	p.Email = in.Email
	p.Number = in.Number
	p.Location = in.Location
	p.State = in.State
	p.Earning = in.Earning
	p.ContactMethod = in.ContactMethod
	p.Experience = nonNil(in.Experience)
	p.ExperienceOther = in.ExperienceOther
	p.CurrentlyPromote = in.CurrentlyPromote
	p.PromotionDetails = in.PromotionDetails
	p.WeeklyReach = in.WeeklyReach
	p.Languages = nonNil(in.Languages)
	p.LanguageOther = in.LanguageOther
	p.WeeklyHours = in.WeeklyHours
	p.PromotionMethod = in.PromotionMethod
	p.ZoomTraining = in.ZoomTraining
	p.BonusEligible = in.BonusEligible
	p.ReferralCode = in.ReferralCode
	if selfie != "" {
		p.Selfie = selfie
	}
	p.UpdatedAt = now
}

func nonNil(l []string) []string {
	out := make([]string, len(l))
	copy(out, l)
	return out
}

// Selfie is an uploaded profile picture awaiting storage.
type Selfie struct {
	Filename string
	Body     io.Reader
}
