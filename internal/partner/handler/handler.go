package handler

import (
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"refeera/internal/partner/models"
	"refeera/pkg/domain"
	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/platform/httputil"
	"refeera/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/partner-mocks.go -package=mocks Service

// Service defines the partner operations the handler needs.
type Service interface {
	Create(ctx context.Context, owner domain.UserID, in models.PartnerInput, selfie *models.Selfie) (*models.Partner, error)
	List(ctx context.Context) ([]*models.Partner, error)
	GetByUser(ctx context.Context, userID string) (*models.Partner, error)
	Update(ctx context.Context, id string, in models.PartnerInput, selfie *models.Selfie) (*models.Partner, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// Handler serves the /api/partner routes.
type Handler struct {
	service     Service
	logger      *slog.Logger
	requireAuth func(http.Handler) http.Handler
}

// New creates a partner Handler. requireAuth must admit user principals.
func New(service Service, logger *slog.Logger, requireAuth func(http.Handler) http.Handler) *Handler {
	return &Handler{service: service, logger: logger, requireAuth: requireAuth}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api/partner", func(r chi.Router) {
		r.Get("/get-partners", h.handleList)
		r.Delete("/delete-partners", h.handleDeleteAll)
		r.Delete("/delete-partner/{partnerId}", h.handleDelete)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/add-partner", h.handleCreate)
			r.Get("/get-partner/{userId}", h.handleGetByUser)
			r.Put("/update-partner/{partnerId}", h.handleUpdate)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := requestcontext.PrincipalFrom(ctx)
	if !ok {
		h.fail(ctx, w, dErrors.New(dErrors.CodeUnauthorized, "Not authorized, no token"), "missing principal")
		return
	}

	in, selfie, closeFn, err := decodePartner(r)
	if err != nil {
		h.fail(ctx, w, err, "invalid partner request")
		return
	}
	defer closeFn()

	p, err := h.service.Create(ctx, domain.UserID(principal.ID), in, selfie)
	if err != nil {
		h.fail(ctx, w, err, "failed to create partner")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	partners, err := h.service.List(ctx)
	if err != nil {
		h.fail(ctx, w, err, "failed to list partners")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, partners)
}

func (h *Handler) handleGetByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.service.GetByUser(ctx, chi.URLParam(r, "userId"))
	if err != nil {
		h.fail(ctx, w, err, "partner lookup failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	in, selfie, closeFn, err := decodePartner(r)
	if err != nil {
		h.fail(ctx, w, err, "invalid partner request")
		return
	}
	defer closeFn()

	p, err := h.service.Update(ctx, chi.URLParam(r, "partnerId"), in, selfie)
	if err != nil {
		h.fail(ctx, w, err, "failed to update partner")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Delete(ctx, chi.URLParam(r, "partnerId")); err != nil {
		h.fail(ctx, w, err, "failed to delete partner")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "Partner deleted")
}

func (h *Handler) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := h.service.DeleteAll(ctx); err != nil {
		h.fail(ctx, w, err, "failed to delete partners")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "All partners deleted")
}

// decodePartner reads the profile fields and, for multipart bodies, the
// optional "selfie" file. The returned func closes the file.
func decodePartner(r *http.Request) (models.PartnerInput, *models.Selfie, func(), error) {
	var in models.PartnerInput
	noop := func() {}
	if err := httputil.DecodeBody(r, &in); err != nil {
		return in, nil, noop, err
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["selfie"]) == 0 {
		return in, nil, noop, nil
	}

	fh := r.MultipartForm.File["selfie"][0]
	f, err := fh.Open()
	if err != nil {
		return in, nil, noop, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid selfie upload")
	}
	return in, &models.Selfie{Filename: fh.Filename, Body: f}, closer(f), nil
}

func closer(f multipart.File) func() {
	return func() { _ = f.Close() }
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
