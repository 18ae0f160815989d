package models

import (
	"slices"
	"strings"
	"time"

	"refeera/pkg/domain"
	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/email"
	"refeera/pkg/validation"
	"refeera/pkg/wire"
)

const (
	BusinessTypeOther        = "Other"
	ReferredByAnotherPartner = "Referred by another partner"
)

// Business is a storefront that promotes referral offers. Businesses are
// never hard deleted; IsDeleted hides a record from login and lookups.
type Business struct {
	ID                    domain.BusinessID `json:"_id" bson:"_id"`
	BusinessName          string            `json:"businessName" bson:"businessName"`
	PrimaryContact        string            `json:"primaryContact" bson:"primaryContact"`
	BusinessAddress       string            `json:"businessAddress" bson:"businessAddress"`
	PhoneNumber           string            `json:"phoneNumber" bson:"phoneNumber"`
	Email                 string            `json:"email" bson:"email"`
	PasswordHash          string            `json:"-" bson:"password"`
	WebsiteOrSocialMedia  string            `json:"websiteOrSocialMedia" bson:"websiteOrSocialMedia"`
	BusinessType          []string          `json:"businessType" bson:"businessType"`
	OtherBusinessType     string            `json:"otherBusinessType,omitempty" bson:"otherBusinessType,omitempty"`
	WeeklyFootTraffic     string            `json:"weeklyFootTraffic,omitempty" bson:"weeklyFootTraffic,omitempty"`
	HasPromotingEmployees *bool             `json:"hasPromotingEmployees,omitempty" bson:"hasPromotingEmployees,omitempty"`
	PromotionalMaterials  []string          `json:"promotionalMaterials" bson:"promotionalMaterials"`
	OnboardingCall        string            `json:"onboardingCall,omitempty" bson:"onboardingCall,omitempty"`
	PayoutMethod          string            `json:"payoutMethod,omitempty" bson:"payoutMethod,omitempty"`
	OfferServices         string            `json:"offerServices,omitempty" bson:"offerServices,omitempty"`
	ReferralSource        string            `json:"referralSource,omitempty" bson:"referralSource,omitempty"`
	ReferralPartner       string            `json:"referralPartner,omitempty" bson:"referralPartner,omitempty"`
	IsAuthorized          bool              `json:"isAuthorized" bson:"isAuthorized"`
	IsDeleted             bool              `json:"isDeleted" bson:"isDeleted"`
	IsActive              bool              `json:"isActive" bson:"isActive"`
	CreatedAt             time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt             time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// Live reports whether the business can sign in and be looked up.
func (b *Business) Live() bool { return !b.IsDeleted }

// Input is the register and edit payload. Password is only read on
// registration and IsActive only on edit.
type Input struct {
	BusinessName          string            `json:"businessName"`
	PrimaryContact        string            `json:"primaryContact"`
	BusinessAddress       string            `json:"businessAddress"`
	PhoneNumber           string            `json:"phoneNumber"`
	Email                 string            `json:"email"`
	Password              string            `json:"password"`
	WebsiteOrSocialMedia  string            `json:"websiteOrSocialMedia"`
	BusinessType          wire.StringList   `json:"businessType" validate:"dive,oneof='Barbershop or salon' 'Check-cashing / tax prep' 'Retail / convenience store' 'Medical / health services' 'Immigration services' 'Legal office' 'Other'"`
	OtherBusinessType     string            `json:"otherBusinessType"`
	WeeklyFootTraffic     string            `json:"weeklyFootTraffic" validate:"omitempty,oneof=0–50 50–150 150–500 500+"`
	HasPromotingEmployees wire.OptionalBool `json:"hasPromotingEmployees"`
	PromotionalMaterials  wire.StringList   `json:"promotionalMaterials" validate:"dive,oneof='Window sticker' 'Counter stand or flyers' 'Door sign' 'Digital display (TV or tablet QR code)'"`
	OnboardingCall        string            `json:"onboardingCall" validate:"omitempty,oneof=Yes No"`
	PayoutMethod          string            `json:"payoutMethod" validate:"omitempty,oneof='Bank transfer' 'Digital card'"`
	OfferServices         string            `json:"offerServices" validate:"omitempty,oneof='Yes – we’d like to become an offer partner' 'No – just referral traffic'"`
	ReferralSource        string            `json:"referralSource" validate:"omitempty,oneof='Another business' 'Online' 'Direct contact' 'Referred by another partner'"`
	ReferralPartner       string            `json:"referralPartner"`
	IsAuthorized          wire.Bool         `json:"isAuthorized"`
	IsActive              wire.OptionalBool `json:"isActive"`
}

const msgRequired = "Please provide all required fields"

func (in *Input) Normalize() {
	in.BusinessName = strings.TrimSpace(in.BusinessName)
	in.PrimaryContact = strings.TrimSpace(in.PrimaryContact)
	in.BusinessAddress = strings.TrimSpace(in.BusinessAddress)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Email = email.Normalize(in.Email)
	in.ReferralPartner = strings.TrimSpace(in.ReferralPartner)
}

// ValidateRegister checks a registration payload. The business must
// confirm it is authorized to sign up.
func (in *Input) ValidateRegister() error {
	if in.Password == "" {
		return dErrors.New(dErrors.CodeMissingFields, msgRequired)
	}
	return in.ValidateEdit()
}

func (in *Input) ValidateEdit() error {
	if in.BusinessName == "" || in.PrimaryContact == "" || in.BusinessAddress == "" ||
		in.PhoneNumber == "" || in.Email == "" || !bool(in.IsAuthorized) {
		return dErrors.New(dErrors.CodeMissingFields, msgRequired)
	}
	if !email.IsValid(in.Email) {
		return dErrors.New(dErrors.CodeInvalidInput, "Please enter a valid email")
	}
	return validation.Struct(in)
}

// NewBusiness builds an active business from a validated registration.
func NewBusiness(in Input, passwordHash string, now time.Time) *Business {
	b := &Business{
		ID:           domain.NewBusinessID(),
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
	}
	b.Apply(in, now)
	return b
}

// Apply copies the editable fields from in. otherBusinessType is kept only
// when "Other" is among the types and referralPartner only when the source
// is another partner. IsActive changes only when sent.
func (b *Business) Apply(in Input, now time.Time) {
	b.BusinessName = in.BusinessName
	b.PrimaryContact = in.PrimaryContact
	b.BusinessAddress = in.BusinessAddress
	b.PhoneNumber = in.PhoneNumber
	b.Email = in.Email
	b.WebsiteOrSocialMedia = in.WebsiteOrSocialMedia
	b.BusinessType = copyList(in.BusinessType)
	b.OtherBusinessType = ""
	if slices.Contains(b.BusinessType, BusinessTypeOther) {
		b.OtherBusinessType = in.OtherBusinessType
	}
	b.WeeklyFootTraffic = in.WeeklyFootTraffic
	b.HasPromotingEmployees = in.HasPromotingEmployees.Ptr()
	b.PromotionalMaterials = copyList(in.PromotionalMaterials)
	b.OnboardingCall = in.OnboardingCall
	b.PayoutMethod = in.PayoutMethod
	b.OfferServices = in.OfferServices
	b.ReferralSource = in.ReferralSource
	b.ReferralPartner = ""
	if in.ReferralSource == ReferredByAnotherPartner {
		b.ReferralPartner = in.ReferralPartner
	}
	b.IsAuthorized = bool(in.IsAuthorized)
	if in.IsActive.Set {
		b.IsActive = in.IsActive.Value
	}
	b.UpdatedAt = now
}

func copyList(l []string) []string {
	out := make([]string, len(l))
	copy(out, l)
	return out
}

// Profile is the business as shown to itself and to lookups by id.
type Profile struct {
	ID                    domain.BusinessID `json:"_id"`
	BusinessName          string            `json:"businessName"`
	Email                 string            `json:"email"`
	PrimaryContact        string            `json:"primaryContact"`
	BusinessAddress       string            `json:"businessAddress"`
	PhoneNumber           string            `json:"phoneNumber"`
	WebsiteOrSocialMedia  string            `json:"websiteOrSocialMedia"`
	BusinessType          []string          `json:"businessType"`
	OtherBusinessType     string            `json:"otherBusinessType,omitempty"`
	WeeklyFootTraffic     string            `json:"weeklyFootTraffic,omitempty"`
	HasPromotingEmployees *bool             `json:"hasPromotingEmployees,omitempty"`
	PromotionalMaterials  []string          `json:"promotionalMaterials"`
	OnboardingCall        string            `json:"onboardingCall,omitempty"`
	PayoutMethod          string            `json:"payoutMethod,omitempty"`
	OfferServices         string            `json:"offerServices,omitempty"`
	ReferralSource        string            `json:"referralSource,omitempty"`
	ReferralPartner       string            `json:"referralPartner,omitempty"`
	IsAuthorized          bool              `json:"isAuthorized"`
	IsActive              bool              `json:"isActive"`
}

func (b *Business) Profile() *Profile {
	return &Profile{
		ID:                    b.ID,
		BusinessName:          b.BusinessName,
		Email:                 b.Email,
		PrimaryContact:        b.PrimaryContact,
		BusinessAddress:       b.BusinessAddress,
		PhoneNumber:           b.PhoneNumber,
		WebsiteOrSocialMedia:  b.WebsiteOrSocialMedia,
		BusinessType:          b.BusinessType,
		OtherBusinessType:     b.OtherBusinessType,
		WeeklyFootTraffic:     b.WeeklyFootTraffic,
		HasPromotingEmployees: b.HasPromotingEmployees,
		PromotionalMaterials:  b.PromotionalMaterials,
		OnboardingCall:        b.OnboardingCall,
		PayoutMethod:          b.PayoutMethod,
		OfferServices:         b.OfferServices,
		ReferralSource:        b.ReferralSource,
		ReferralPartner:       b.ReferralPartner,
		IsAuthorized:          b.IsAuthorized,
		IsActive:              b.IsActive,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register (201) and login.
type AuthResponse struct {
	ID           domain.BusinessID `json:"_id"`
	BusinessName string            `json:"businessName"`
	Email        string            `json:"email"`
	Token        string            `json:"token"`
}

type ToggleResponse struct {
	Message  string `json:"message"`
	IsActive bool   `json:"isActive"`
}
