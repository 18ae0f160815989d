package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"testing"

	"github.com/stretchr/testify/suite"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"refeera/internal/referral/models"
	"refeera/internal/referral/service/mocks"
	referralstore "refeera/internal/referral/store/referral"
	submissionstore "refeera/internal/referral/store/submission"
	"refeera/pkg/domain"
	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/platform/sentinel"
)

type partnerSet map[domain.PartnerID]bool

func (p partnerSet) Exists(_ context.Context, id domain.PartnerID) (bool, error) {
	return p[id], nil
}

type ReferralServiceSuite struct {
	suite.Suite
	ctx         context.Context
	service     *Service
	submissions *submissionstore.InMemory
	partners    partnerSet
	partner     domain.PartnerID
}

func TestReferralServiceSuite(t *testing.T) {
	suite.Run(t, new(ReferralServiceSuite))
}

func (s *ReferralServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.partner = domain.NewPartnerID()
	s.partners = partnerSet{s.partner: true}
	s.submissions = submissionstore.NewInMemory()
	s.service = New(referralstore.NewInMemory(), s.submissions, s.partners,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func (s *ReferralServiceSuite) newReferral(offer domain.OfferID) *models.Referral {
	ref, _, err := s.service.CreateReferral(s.ctx, s.partner.String(), offer.String())
	s.Require().NoError(err)
	return ref
}

func (s *ReferralServiceSuite) input(ref *models.Referral, email string) models.SubmissionInput {
	return models.SubmissionInput{
		ReferralID: ref.ReferralID.String(),
		PartnerID:  ref.PartnerID.String(),
		OfferID:    ref.OfferID.String(),
		Email:      email,
	}
}

func (s *ReferralServiceSuite) requireCode(err error, code dErrors.Code, message string) {
	s.T().Helper()
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, code), "got %v", err)
	de, _ := dErrors.As(err)
	s.Equal(message, de.Message)
}

func (s *ReferralServiceSuite) TestCreateReferral() {
	s.Run("returns a link carrying the three keys in order", func() {
		ref, link, err := s.service.CreateReferral(s.ctx, s.partner.String(), "aca")
		s.Require().NoError(err)
		s.Equal(fmt.Sprintf("%s?referralId=%s&partnerId=%s&offerId=aca", DefaultLinkBase, ref.ReferralID, s.partner), link)

		u, err := url.Parse(link)
		s.Require().NoError(err)
		s.Equal(ref.ReferralID.String(), u.Query().Get("referralId"))
	})

	s.Run("unique referral ids", func() {
		seen := map[domain.ReferralID]bool{}
		for range 500 {
			ref := s.newReferral(domain.OfferRx)
			s.False(seen[ref.ReferralID])
			seen[ref.ReferralID] = true
		}
	})

	s.Run("unknown offer", func() {
		_, _, err := s.service.CreateReferral(s.ctx, s.partner.String(), "crypto")
		s.requireCode(err, dErrors.CodeInvalidOffer, "Invalid offerId")
	})

	s.Run("offer checked before partner", func() {
		_, _, err := s.service.CreateReferral(s.ctx, "nope", "crypto")
		s.requireCode(err, dErrors.CodeInvalidOffer, "Invalid offerId")
	})

	s.Run("unknown or malformed partner", func() {
		_, _, err := s.service.CreateReferral(s.ctx, domain.NewPartnerID().String(), "aca")
		s.requireCode(err, dErrors.CodeInvalidPartner, "Invalid partnerId")

		_, _, err = s.service.CreateReferral(s.ctx, "not-a-uuid", "aca")
		s.requireCode(err, dErrors.CodeInvalidPartner, "Invalid partnerId")
	})

	s.Run("missing fields", func() {
		_, _, err := s.service.CreateReferral(s.ctx, "", "aca")
		s.requireCode(err, dErrors.CodeMissingFields, "partnerId and offerId are required")
	})

	s.Run("custom link base", func() {
		svc := New(referralstore.NewInMemory(), s.submissions, s.partners, WithLinkBase("https://example.test/f"))
		_, link, err := svc.CreateReferral(s.ctx, s.partner.String(), "medicare")
		s.Require().NoError(err)
		s.Contains(link, "https://example.test/f?referralId=")
	})
}

func (s *ReferralServiceSuite) TestGetReferral() {
	ref := s.newReferral(domain.OfferMedicare)

	got, err := s.service.GetReferral(s.ctx, ref.ReferralID.String())
	s.Require().NoError(err)
	s.Equal(ref.PartnerID, got.PartnerID)

	_, err = s.service.GetReferral(s.ctx, domain.NewReferralID().String())
	s.requireCode(err, dErrors.CodeNotFound, "Referral not found")
}

// A malformed id never reaches the store; the mock has no expectations.
func (s *ReferralServiceSuite) TestMalformedReferralIDs() {
	ctrl := gomock.NewController(s.T())
	svc := New(mocks.NewMockReferralStore(ctrl), mocks.NewMockSubmissionStore(ctrl), mocks.NewMockPartnerLookup(ctrl))

	_, err := svc.GetReferral(s.ctx, "not-a-referral")
	s.requireCode(err, dErrors.CodeNotFound, "Referral not found")

	_, err = svc.Submit(s.ctx, models.SubmissionInput{
		ReferralID: "not-a-referral", PartnerID: s.partner.String(), OfferID: "aca", Email: "e@example.com",
	})
	s.requireCode(err, dErrors.CodeInvalidReferral, "Invalid referralId")
}

func (s *ReferralServiceSuite) TestSubmitDisqualification() {
	ref := s.newReferral(domain.OfferACA)
	for value, want := range map[string]bool{"yes": true, "no": false, "": false} {
		in := s.input(ref, "dq-"+value+"@example.com")
		in.MedicaidMedicare = value
		res, err := s.service.Submit(s.ctx, in)
		s.Require().NoError(err)
		s.True(res.Success)
		s.Equal(want, res.IsDisqualified, value)
	}
}

func (s *ReferralServiceSuite) TestSubmitIsIdempotent() {
	ref := s.newReferral(domain.OfferACA)
	in := s.input(ref, "same@example.com")
	in.Fname, in.MedicaidMedicare, in.Ssn = "Jane", "yes", "123-45-6789"

	first, err := s.service.Submit(s.ctx, in)
	s.Require().NoError(err)
	before, err := s.submissions.FindByEmailOffer(s.ctx, "same@example.com", domain.OfferACA)
	s.Require().NoError(err)

	second, err := s.service.Submit(s.ctx, in)
	s.Require().NoError(err)
	after, err := s.submissions.FindByEmailOffer(s.ctx, "same@example.com", domain.OfferACA)
	s.Require().NoError(err)

	s.Equal(first, second)
	after.UpdatedAt = before.UpdatedAt
	s.Equal(before, after)
}

func (s *ReferralServiceSuite) TestResubmissionClearsOmittedFields() {
	ref := s.newReferral(domain.OfferRx)
	full := s.input(ref, "clear@example.com")
	full.Fname, full.City, full.Gender = "Jane", "Austin", "female"
	_, err := s.service.Submit(s.ctx, full)
	s.Require().NoError(err)

	_, err = s.service.Submit(s.ctx, s.input(ref, "clear@example.com"))
	s.Require().NoError(err)

	stored, err := s.submissions.FindByEmailOffer(s.ctx, "clear@example.com", domain.OfferRx)
	s.Require().NoError(err)
	s.Empty(stored.Fname)
	s.Empty(stored.City)
	s.Empty(stored.Gender)
}

func (s *ReferralServiceSuite) TestSubmitValidation() {
	ref := s.newReferral(domain.OfferACA)

	s.Run("partial without medicaid selection", func() {
		in := s.input(ref, "p@example.com")
		in.IsPartialSubmission = true
		_, err := s.service.Submit(s.ctx, in)
		s.requireCode(err, dErrors.CodeMissingFields, "Medicaid/Medicare selection is required for partial submission")
	})

	s.Run("missing email", func() {
		in := s.input(ref, "")
		_, err := s.service.Submit(s.ctx, in)
		s.requireCode(err, dErrors.CodeMissingFields, "Missing required fields")
	})

	s.Run("mismatched offer on an existing referral", func() {
		in := s.input(ref, "m@example.com")
		in.OfferID = "rx"
		_, err := s.service.Submit(s.ctx, in)
		s.requireCode(err, dErrors.CodeInvalidReferral, "Invalid referralId")
	})

	s.Run("mismatched partner on an existing referral", func() {
		in := s.input(ref, "m@example.com")
		in.PartnerID = domain.NewPartnerID().String()
		_, err := s.service.Submit(s.ctx, in)
		s.requireCode(err, dErrors.CodeInvalidReferral, "Invalid referralId")
	})

	s.Run("partner removed after link generation", func() {
		delete(s.partners, s.partner)
		defer func() { s.partners[s.partner] = true }()
		_, err := s.service.Submit(s.ctx, s.input(ref, "gone@example.com"))
		s.requireCode(err, dErrors.CodeInvalidPartner, "Invalid partnerId")
	})
}

func (s *ReferralServiceSuite) TestListByPartner() {
	ref := s.newReferral(domain.OfferACA)
	for i := range 250 {
		in := s.input(ref, fmt.Sprintf("u%03d@example.com", i))
		in.Ssn, in.SpouseSsn = "123-45-6789", "987-65-4321"
		_, err := s.service.Submit(s.ctx, in)
		s.Require().NoError(err)
	}

	s.Run("pages over the whole set", func() {
		res, err := s.service.ListByPartner(s.ctx, models.ListQuery{PartnerID: s.partner.String(), Page: "1", Limit: "100"})
		s.Require().NoError(err)
		s.True(res.Success)
		s.Len(res.Submissions, 100)
		s.Equal(models.Pagination{Total: 250, Page: 1, Pages: 3, Limit: 100}, res.Pagination)
		s.Equal("u000@example.com", res.Submissions[0].Email)
	})

	s.Run("defaults", func() {
		res, err := s.service.ListByPartner(s.ctx, models.ListQuery{PartnerID: s.partner.String()})
		s.Require().NoError(err)
		s.Len(res.Submissions, 10)
		s.Equal(int64(25), res.Pagination.Pages)
	})

	s.Run("limit above maximum", func() {
		_, err := s.service.ListByPartner(s.ctx, models.ListQuery{PartnerID: s.partner.String(), Limit: "101"})
		s.requireCode(err, dErrors.CodeInvalidPagination, "Invalid pagination parameters")
	})

	s.Run("page whose offset overflows", func() {
		_, err := s.service.ListByPartner(s.ctx, models.ListQuery{PartnerID: s.partner.String(), Page: "92233720368547760", Limit: "100"})
		s.requireCode(err, dErrors.CodeInvalidPagination, "Invalid pagination parameters")
	})

	s.Run("unknown partner wins over bad pagination", func() {
		_, err := s.service.ListByPartner(s.ctx, models.ListQuery{PartnerID: domain.NewPartnerID().String(), Limit: "101"})
		s.requireCode(err, dErrors.CodeInvalidPartner, "Invalid partnerId")
	})

	s.Run("filters by partial flag", func() {
		res, err := s.service.ListByPartner(s.ctx, models.ListQuery{PartnerID: s.partner.String(), IsPartialSubmission: "true"})
		s.Require().NoError(err)
		s.Empty(res.Submissions)
		s.Equal(int64(0), res.Pagination.Total)

		res, err = s.service.ListByPartner(s.ctx, models.ListQuery{PartnerID: s.partner.String(), IsPartialSubmission: "false", Limit: "5"})
		s.Require().NoError(err)
		s.Equal(int64(250), res.Pagination.Total)
	})
}

// Ports are checked in a fixed order; mocks with no expectations fail the
// test if a later port is reached.
func (s *ReferralServiceSuite) TestSubmitCheckOrder() {
	ctrl := gomock.NewController(s.T())
	referrals := mocks.NewMockReferralStore(ctrl)
	submissions := mocks.NewMockSubmissionStore(ctrl)
	partners := mocks.NewMockPartnerLookup(ctrl)
	svc := New(referrals, submissions, partners)

	rid := domain.NewReferralID()
	in := models.SubmissionInput{ReferralID: rid.String(), PartnerID: "p", OfferID: "aca", Email: "e@example.com", IsPartialSubmission: true}
	_, err := svc.Submit(s.ctx, in)
	s.requireCode(err, dErrors.CodeMissingFields, "Medicaid/Medicare selection is required for partial submission")

	in.IsPartialSubmission = false
	referrals.EXPECT().FindMatching(gomock.Any(), rid, domain.PartnerID("p"), domain.OfferACA).
		Return(nil, sentinel.ErrNotFound)
	_, err = svc.Submit(s.ctx, in)
	s.requireCode(err, dErrors.CodeInvalidReferral, "Invalid referralId")

	referrals.EXPECT().FindMatching(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.Referral{}, nil)
	partners.EXPECT().Exists(gomock.Any(), domain.PartnerID("p")).Return(true, nil)
	submissions.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil, errors.New("disk full"))
	_, err = svc.Submit(s.ctx, in)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ReferralServiceSuite) TestStoreFailuresAreInternal() {
	ctrl := gomock.NewController(s.T())
	referrals := mocks.NewMockReferralStore(ctrl)
	submissions := mocks.NewMockSubmissionStore(ctrl)
	partners := mocks.NewMockPartnerLookup(ctrl)
	svc := New(referrals, submissions, partners)

	partners.EXPECT().Exists(gomock.Any(), s.partner).Return(true, nil).Times(2)
	referrals.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("timeout"))
	_, _, err := svc.CreateReferral(s.ctx, s.partner.String(), "aca")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	submissions.EXPECT().ListByPartner(gomock.Any(), gomock.Any(), models.Page{Page: 2, Limit: 10}).
		Return(nil, int64(0), errors.New("timeout"))
	_, err = svc.ListByPartner(s.ctx, models.ListQuery{PartnerID: s.partner.String(), Page: "2"})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	referrals.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))
	_, err = svc.GetReferral(s.ctx, domain.NewReferralID().String())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ReferralServiceSuite) TestSpansRecordFailures() {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	svc := New(referralstore.NewInMemory(), s.submissions, s.partners, WithTracer(provider.Tracer("test")))

	_, _, err := svc.CreateReferral(s.ctx, s.partner.String(), "crypto")
	s.Require().Error(err)

	spans := recorder.Ended()
	s.Require().Len(spans, 1)
	s.Equal("referral.CreateReferral", spans[0].Name())
	s.Equal("invalid_offer", spans[0].Status().Description)
}
