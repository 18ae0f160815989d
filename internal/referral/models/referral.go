package models

import (
	"net/url"
	"strings"
	"time"

	"refeera/pkg/domain"
)

// Referral binds a shareable referral id to the partner and offer it was
// generated for. Referrals are never updated or deleted.
type Referral struct {
	ReferralID domain.ReferralID `json:"referralId" bson:"referralId"`
	PartnerID  domain.PartnerID  `json:"partnerId" bson:"partnerId"`
	OfferID    domain.OfferID    `json:"offerId" bson:"offerId"`
	CreatedAt  time.Time         `json:"createdAt" bson:"createdAt"`
}

// NewReferral mints a referral with a fresh random id.
func NewReferral(partnerID domain.PartnerID, offerID domain.OfferID, now time.Time) *Referral {
	return &Referral{
		ReferralID: domain.NewReferralID(),
		PartnerID:  partnerID,
		OfferID:    offerID,
		CreatedAt:  now,
	}
}

// Link renders the public form URL for r. Parameters keep the
// referralId, partnerId, offerId order that existing landing pages parse.
func (r *Referral) Link(base string) string {
	var b strings.Builder
	b.WriteString(base)
	if strings.Contains(base, "?") {
		b.WriteByte('&')
	} else {
		b.WriteByte('?')
	}
	b.WriteString("referralId=")
	b.WriteString(url.QueryEscape(r.ReferralID.String()))
	b.WriteString("&partnerId=")
	b.WriteString(url.QueryEscape(r.PartnerID.String()))
	b.WriteString("&offerId=")
	b.WriteString(url.QueryEscape(r.OfferID.String()))
	return b.String()
}

// GenerateReferralRequest is the body of the link generation endpoint.
type GenerateReferralRequest struct {
	PartnerID string `json:"partnerId"`
	OfferID   string `json:"offerId"`
}

// Normalize trims surrounding whitespace.
func (r *GenerateReferralRequest) Normalize() {
	r.PartnerID = strings.TrimSpace(r.PartnerID)
	r.OfferID = strings.TrimSpace(r.OfferID)
}

type GenerateReferralResponse struct {
	ReferralLink string `json:"referralLink"`
}

type ReferralResponse struct {
	ReferralID string `json:"referralId"`
	PartnerID  string `json:"partnerId"`
	OfferID    string `json:"offerId"`
}

func ToReferralResponse(r *Referral) ReferralResponse {
	return ReferralResponse{
		ReferralID: r.ReferralID.String(),
		PartnerID:  r.PartnerID.String(),
		OfferID:    r.OfferID.String(),
	}
}
