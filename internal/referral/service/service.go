// Package service implements the referral attribution workflow: link
// generation, click-through lookup, deduplicated form submission and
// redacted partner listings.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"refeera/internal/audit"
	"refeera/internal/referral/metrics"
	"refeera/internal/referral/models"
	"refeera/pkg/domain"
	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/platform/sentinel"
	"refeera/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks ReferralStore,SubmissionStore,PartnerLookup

// DefaultLinkBase is the public form that referral links point at.
const DefaultLinkBase = "https://refeera.vercel.app/form"

type ReferralStore interface {
	Create(ctx context.Context, r *models.Referral) error
	FindByID(ctx context.Context, id domain.ReferralID) (*models.Referral, error)
	FindMatching(ctx context.Context, id domain.ReferralID, partnerID domain.PartnerID, offerID domain.OfferID) (*models.Referral, error)
}

type SubmissionStore interface {
	Upsert(ctx context.Context, sub *models.Submission) (*models.Submission, error)
	ListByPartner(ctx context.Context, f models.SubmissionFilter, p models.Page) ([]*models.Submission, int64, error)
}

// PartnerLookup resolves partner ids. The partner store satisfies it.
type PartnerLookup interface {
	Exists(ctx context.Context, id domain.PartnerID) (bool, error)
}

// Service orchestrates referrals and submissions.
type Service struct {
	referrals   ReferralStore
	submissions SubmissionStore
	partners    PartnerLookup
	linkBase    string
	logger      *slog.Logger
	metrics     *metrics.Metrics
	audit       audit.Publisher
	tracer      trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) {
		s.audit = p
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithLinkBase sets the form URL referral links are built on.
func WithLinkBase(base string) Option {
	return func(s *Service) {
		if base != "" {
			s.linkBase = base
		}
	}
}

func New(referrals ReferralStore, submissions SubmissionStore, partners PartnerLookup, opts ...Option) *Service {
	s := &Service{
		referrals:   referrals,
		submissions: submissions,
		partners:    partners,
		linkBase:    DefaultLinkBase,
		logger:      slog.Default(),
		audit:       audit.Discard{},
		tracer:      otel.Tracer("refeera/referral"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateReferral mints a referral for an existing partner and returns it
// with its shareable link.
func (s *Service) CreateReferral(ctx context.Context, partnerID, offerID string) (*models.Referral, string, error) {
	ctx, span := s.tracer.Start(ctx, "referral.CreateReferral",
		trace.WithAttributes(attribute.String("offer_id", offerID)))
	defer span.End()

	if partnerID == "" || offerID == "" {
		return nil, "", spanErr(span, dErrors.New(dErrors.CodeMissingFields, "partnerId and offerId are required"))
	}
	offer := domain.OfferID(offerID)
	if !offer.IsValid() {
		return nil, "", spanErr(span, dErrors.New(dErrors.CodeInvalidOffer, "Invalid offerId"))
	}
	pid, err := s.resolvePartner(ctx, partnerID)
	if err != nil {
		return nil, "", spanErr(span, err)
	}

	ref := models.NewReferral(pid, offer, requestcontext.Now(ctx))
	if err := s.referrals.Create(ctx, ref); err != nil {
		return nil, "", spanErr(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create referral"))
	}

	s.logger.InfoContext(ctx, "referral created",
		"referral_id", ref.ReferralID,
		"partner_id", pid,
		"offer_id", offer,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.metrics.IncrementReferralCreated(offer.String())
	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionReferralCreated,
		SubjectID: ref.ReferralID.String(),
		Attrs:     map[string]string{"partner_id": pid.String(), "offer_id": offer.String()},
	})
	return ref, ref.Link(s.linkBase), nil
}

// GetReferral returns the referral behind a link.
func (s *Service) GetReferral(ctx context.Context, referralID string) (*models.Referral, error) {
	ctx, span := s.tracer.Start(ctx, "referral.GetReferral")
	defer span.End()

	rid, err := domain.ParseReferralID(referralID)
	if err != nil {
		return nil, spanErr(span, dErrors.New(dErrors.CodeNotFound, "Referral not found"))
	}
	ref, err := s.referrals.FindByID(ctx, rid)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, spanErr(span, dErrors.New(dErrors.CodeNotFound, "Referral not found"))
		}
		return nil, spanErr(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load referral"))
	}
	return ref, nil
}

// Submit records a form post. The referral triple must match a stored
// referral and the partner must still exist; the record for (email, offer)
// is then fully replaced.
func (s *Service) Submit(ctx context.Context, in models.SubmissionInput) (*models.SubmitResult, error) {
	start := time.Now()
	defer s.metrics.ObserveSubmit(start)

	in.Normalize()
	ctx, span := s.tracer.Start(ctx, "referral.Submit",
		trace.WithAttributes(
			attribute.String("offer_id", in.OfferID),
			attribute.Bool("partial", bool(in.IsPartialSubmission)),
		))
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, spanErr(span, err)
	}
	rid, err := domain.ParseReferralID(in.ReferralID)
	if err != nil {
		return nil, spanErr(span, dErrors.New(dErrors.CodeInvalidReferral, "Invalid referralId"))
	}
	in.ReferralID = rid.String()

	_, err = s.referrals.FindMatching(ctx, rid, domain.PartnerID(in.PartnerID), domain.OfferID(in.OfferID))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, spanErr(span, dErrors.New(dErrors.CodeInvalidReferral, "Invalid referralId"))
		}
		return nil, spanErr(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load referral"))
	}

	exists, err := s.partners.Exists(ctx, domain.PartnerID(in.PartnerID))
	if err != nil {
		return nil, spanErr(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load partner"))
	}
	if !exists {
		return nil, spanErr(span, dErrors.New(dErrors.CodeInvalidPartner, "Invalid partnerId"))
	}

	sub := models.NewSubmission(in, requestcontext.Now(ctx))
	stored, err := s.submissions.Upsert(ctx, sub)
	if err != nil {
		return nil, spanErr(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save submission"))
	}

	span.SetAttributes(attribute.Bool("disqualified", sub.Disqualified))
	s.logger.InfoContext(ctx, "submission recorded",
		"submission_id", stored.ID,
		"referral_id", in.ReferralID,
		"offer_id", in.OfferID,
		"disqualified", sub.Disqualified,
		"partial", sub.IsPartialSubmission,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.metrics.IncrementSubmission(in.OfferID, sub.Disqualified)
	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionSubmissionRecorded,
		SubjectID: stored.ID,
		Attrs: map[string]string{
			"referral_id":  in.ReferralID,
			"partner_id":   in.PartnerID,
			"offer_id":     in.OfferID,
			"disqualified": boolString(sub.Disqualified),
			"partial":      boolString(sub.IsPartialSubmission),
		},
	})
	return &models.SubmitResult{Success: true, IsDisqualified: sub.Disqualified}, nil
}

// ListByPartner returns one page of a partner's submissions as views
// without social security numbers.
func (s *Service) ListByPartner(ctx context.Context, q models.ListQuery) (*models.SubmissionList, error) {
	start := time.Now()
	defer s.metrics.ObserveListing(start)

	ctx, span := s.tracer.Start(ctx, "referral.ListByPartner")
	defer span.End()

	if q.PartnerID == "" {
		return nil, spanErr(span, dErrors.New(dErrors.CodeMissingFields, "partnerId is required"))
	}
	pid, err := s.resolvePartner(ctx, q.PartnerID)
	if err != nil {
		return nil, spanErr(span, err)
	}
	page, err := models.ParsePage(q.Page, q.Limit)
	if err != nil {
		return nil, spanErr(span, err)
	}

	filter := models.SubmissionFilter{
		PartnerID:           pid,
		OfferID:             q.OfferID,
		Email:               q.Email,
		IsPartialSubmission: models.ParsePartialFilter(q.IsPartialSubmission),
	}
	records, total, err := s.submissions.ListByPartner(ctx, filter, page)
	if err != nil {
		return nil, spanErr(span, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to fetch form submissions"))
	}

	views := make([]models.SubmissionView, 0, len(records))
	for _, r := range records {
		views = append(views, r.View())
	}
	span.SetAttributes(attribute.Int64("total", total), attribute.Int("returned", len(views)))
	return &models.SubmissionList{
		Success:     true,
		Submissions: views,
		Pagination:  models.NewPagination(total, page),
	}, nil
}

// resolvePartner parses raw and confirms the partner exists. Malformed and
// unknown ids are both reported as an invalid partner.
func (s *Service) resolvePartner(ctx context.Context, raw string) (domain.PartnerID, error) {
	pid, err := domain.ParsePartnerID(raw)
	if err != nil {
		return "", dErrors.New(dErrors.CodeInvalidPartner, "Invalid partnerId")
	}
	exists, err := s.partners.Exists(ctx, pid)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load partner")
	}
	if !exists {
		return "", dErrors.New(dErrors.CodeInvalidPartner, "Invalid partnerId")
	}
	return pid, nil
}

func spanErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	return err
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
