package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"refeera/internal/business/models"
	"refeera/pkg/domain"
	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/platform/httputil"
	"refeera/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/business-mocks.go -package=mocks Service

// Service defines the business account operations the handler needs.
type Service interface {
	Register(ctx context.Context, in models.Input) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Profile(ctx context.Context, id domain.BusinessID) (*models.Profile, error)
	List(ctx context.Context) ([]*models.Business, error)
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	Edit(ctx context.Context, id domain.BusinessID, in models.Input) (*models.Profile, error)
	EditByID(ctx context.Context, id string, in models.Input) (*models.Profile, error)
	ToggleActive(ctx context.Context, id string) (*models.ToggleResponse, error)
}

// Handler serves the /api/business routes.
type Handler struct {
	service     Service
	logger      *slog.Logger
	requireAuth func(http.Handler) http.Handler
}

// New creates a business Handler. requireAuth must admit business principals.
func New(service Service, logger *slog.Logger, requireAuth func(http.Handler) http.Handler) *Handler {
	return &Handler{service: service, logger: logger, requireAuth: requireAuth}
}

// Register mounts the routes. The static /profile and /edit paths are
// matched before /{id}.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/business", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Get("/businesses", h.handleList)
		r.With(h.requireAuth).Get("/profile", h.handleProfile)
		r.With(h.requireAuth).Put("/edit", h.handleEdit)
		r.Get("/{id}", h.handleGetByID)
		r.Put("/edit/{id}", h.handleEditByID)
		r.Delete("/delete/{id}", h.handleToggle)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in models.Input
	if err := httputil.DecodeBody(r, &in); err != nil {
		h.fail(ctx, w, err, "invalid business registration")
		return
	}
	res, err := h.service.Register(ctx, in)
	if err != nil {
		h.fail(ctx, w, err, "business registration failed")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.LoginRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		h.fail(ctx, w, err, "invalid business login")
		return
	}
	res, err := h.service.Login(ctx, req)
	if err != nil {
		h.fail(ctx, w, err, "business login failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	all, err := h.service.List(ctx)
	if err != nil {
		h.fail(ctx, w, err, "failed to list businesses")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, all)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.principal(ctx, w)
	if !ok {
		return
	}
	res, err := h.service.Profile(ctx, id)
	if err != nil {
		h.fail(ctx, w, err, "failed to load profile")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.principal(ctx, w)
	if !ok {
		return
	}
	var in models.Input
	if err := httputil.DecodeBody(r, &in); err != nil {
		h.fail(ctx, w, err, "invalid business edit")
		return
	}
	res, err := h.service.Edit(ctx, id, in)
	if err != nil {
		h.fail(ctx, w, err, "business edit failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.service.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, err, "failed to load business")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleEditByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in models.Input
	if err := httputil.DecodeBody(r, &in); err != nil {
		h.fail(ctx, w, err, "invalid business edit")
		return
	}
	res, err := h.service.EditByID(ctx, chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(ctx, w, err, "business edit failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.service.ToggleActive(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, err, "business toggle failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) principal(ctx context.Context, w http.ResponseWriter) (domain.BusinessID, bool) {
	p, ok := requestcontext.PrincipalFrom(ctx)
	if !ok || p.Kind != requestcontext.PrincipalBusiness {
		h.fail(ctx, w, dErrors.New(dErrors.CodeUnauthorized, "Not authorized, no token"), "missing business principal")
		return "", false
	}
	return domain.BusinessID(p.ID), true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}
