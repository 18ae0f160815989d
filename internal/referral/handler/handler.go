package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"refeera/internal/referral/models"
	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/platform/httputil"
	"refeera/pkg/requestcontext"
)

// Service defines the referral operations the handler needs.
type Service interface {
	CreateReferral(ctx context.Context, partnerID, offerID string) (*models.Referral, string, error)
	GetReferral(ctx context.Context, referralID string) (*models.Referral, error)
	Submit(ctx context.Context, in models.SubmissionInput) (*models.SubmitResult, error)
	ListByPartner(ctx context.Context, q models.ListQuery) (*models.SubmissionList, error)
}

// Handler serves the /api/referral routes.
type Handler struct {
	service     Service
	logger      *slog.Logger
	requireAuth func(http.Handler) http.Handler
}

// New creates a referral Handler. requireAuth guards link generation.
func New(service Service, logger *slog.Logger, requireAuth func(http.Handler) http.Handler) *Handler {
	return &Handler{service: service, logger: logger, requireAuth: requireAuth}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api/referral", func(r chi.Router) {
		r.With(h.requireAuth).Post("/generate", h.handleGenerate)
		r.Post("/submit-form", h.handleSubmit)
		r.Get("/submissions/partner/{partnerId}", h.handleListByPartner)
		r.Get("/{referralId}", h.handleGetReferral)
	})
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.GenerateReferralRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		h.fail(ctx, w, err, "invalid generate referral request")
		return
	}
	req.Normalize()

	_, link, err := h.service.CreateReferral(ctx, req.PartnerID, req.OfferID)
	if err != nil {
		h.fail(ctx, w, err, "failed to generate referral link")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.GenerateReferralResponse{ReferralLink: link})
}

// handleSubmit accepts JSON, urlencoded and multipart (fields only) bodies.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in models.SubmissionInput
	if err := httputil.DecodeBody(r, &in); err != nil {
		h.fail(ctx, w, err, "invalid form submission")
		return
	}

	res, err := h.service.Submit(ctx, in)
	if err != nil {
		h.fail(ctx, w, err, "form submission rejected")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleGetReferral(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref, err := h.service.GetReferral(ctx, chi.URLParam(r, "referralId"))
	if err != nil {
		h.fail(ctx, w, err, "referral lookup failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToReferralResponse(ref))
}

func (h *Handler) handleListByPartner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	res, err := h.service.ListByPartner(ctx, models.ListQuery{
		PartnerID:           chi.URLParam(r, "partnerId"),
		OfferID:             q.Get("offerId"),
		Email:               q.Get("email"),
		IsPartialSubmission: q.Get("isPartialSubmission"),
		Page:                q.Get("page"),
		Limit:               q.Get("limit"),
	})
	if err != nil {
		h.fail(ctx, w, err, "failed to list submissions")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
