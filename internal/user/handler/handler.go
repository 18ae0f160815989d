package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"refeera/internal/user/models"
	"refeera/pkg/domain"
	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/platform/httputil"
	"refeera/pkg/requestcontext"
)

// Service defines the account operations the handler needs.
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	VerifyOTP(ctx context.Context, userID domain.UserID, code string) (*models.AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) (*models.ForgotPasswordResponse, error)
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest) (*models.MessageResponse, error)
}

// Handler serves the /api/users routes.
type Handler struct {
	service     Service
	logger      *slog.Logger
	requireAuth func(http.Handler) http.Handler
}

func New(service Service, logger *slog.Logger, requireAuth func(http.Handler) http.Handler) *Handler {
	return &Handler{service: service, logger: logger, requireAuth: requireAuth}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register-user", h.handleRegister)
		r.Post("/login-user", h.handleLogin)
		r.With(h.requireAuth).Post("/verify-otp", h.handleVerifyOTP)
		r.Post("/forgot-password", h.handleForgotPassword)
		r.Post("/reset-password", h.handleResetPassword)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.RegisterRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		h.fail(ctx, w, err, "invalid register request")
		return
	}
	res, err := h.service.Register(ctx, req)
	if err != nil {
		h.fail(ctx, w, err, "registration failed")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.LoginRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		h.fail(ctx, w, err, "invalid login request")
		return
	}
	res, err := h.service.Login(ctx, req)
	if err != nil {
		h.fail(ctx, w, err, "login failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := requestcontext.PrincipalFrom(ctx)
	if !ok {
		h.fail(ctx, w, dErrors.New(dErrors.CodeUnauthorized, "Not authorized, no token"), "missing principal")
		return
	}
	var req models.VerifyOTPRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		h.fail(ctx, w, err, "invalid verify request")
		return
	}
	res, err := h.service.VerifyOTP(ctx, domain.UserID(principal.ID), req.OTP)
	if err != nil {
		h.fail(ctx, w, err, "otp verification failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.ForgotPasswordRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		h.fail(ctx, w, err, "invalid forgot password request")
		return
	}
	res, err := h.service.ForgotPassword(ctx, req.Email)
	if err != nil {
		h.fail(ctx, w, err, "forgot password failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.ResetPasswordRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		h.fail(ctx, w, err, "invalid reset password request")
		return
	}
	res, err := h.service.ResetPassword(ctx, req)
	if err != nil {
		h.fail(ctx, w, err, "password reset failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
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
