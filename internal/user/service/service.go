// Package service implements user account flows: registration with email
// verification, login, and password reset by one-time code.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"refeera/internal/audit"
	"refeera/internal/credential"
	"refeera/internal/mail"
	"refeera/internal/user/models"
	"refeera/pkg/domain"
	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/email"
	"refeera/pkg/platform/sentinel"
	"refeera/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

type Store interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id domain.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Exists(ctx context.Context, id domain.UserID) (bool, error)
	Update(ctx context.Context, u *models.User) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}

type TokenIssuer interface {
	Issue(kind requestcontext.PrincipalKind, subject string) (string, error)
}

const (
	DefaultVerifyOTPTTL = 24 * time.Hour
	DefaultResetOTPTTL  = 10 * time.Minute
)

type Service struct {
	store     Store
	hasher    PasswordHasher
	tokens    TokenIssuer
	otps      credential.OTPStore
	mailer    mail.Mailer
	verifyTTL time.Duration
	resetTTL  time.Duration
	logger    *slog.Logger
	audit     audit.Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) {
		s.audit = p
	}
}

// WithOTPTTLs sets how long verification and reset codes stay valid. Zero
// keeps the default.
func WithOTPTTLs(verify, reset time.Duration) Option {
	return func(s *Service) {
		if verify > 0 {
			s.verifyTTL = verify
		}
		if reset > 0 {
			s.resetTTL = reset
		}
	}
}

func New(store Store, hasher PasswordHasher, tokens TokenIssuer, otps credential.OTPStore, mailer mail.Mailer, opts ...Option) *Service {
	s := &Service{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		otps:      otps,
		mailer:    mailer,
		verifyTTL: DefaultVerifyOTPTTL,
		resetTTL:  DefaultResetOTPTTL,
		logger:    slog.Default(),
		audit:     audit.Discard{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an unverified account, emails a verification code and
// returns a token the client uses to submit that code.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.FindByEmail(ctx, req.Email); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "Email already exists!")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, internalUnlessCoded(err, "failed to hash password")
	}
	u := models.NewUser(req.Username, req.Email, hash, requestcontext.Now(ctx))
	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "Email already exists!")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	if err := s.sendCode(ctx, u, credential.OTPVerify, s.verifyTTL); err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(requestcontext.PrincipalUser, u.ID.String())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.logger.InfoContext(ctx, "user registered",
		"user_id", u.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.audit.Emit(ctx, audit.Event{Action: audit.ActionUserRegistered, ActorID: u.ID.String(), SubjectID: u.ID.String()})
	return &models.RegisterResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Message:  "Please verify your email with the OTP sent",
		Token:    token,
	}, nil
}

// Login authenticates a verified user.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	u, err := s.store.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Invalid Email")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if !u.IsVerified {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Please verify your email first")
	}
	if err := s.hasher.Verify(req.Password, u.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.audit.Emit(ctx, audit.Event{Action: audit.ActionUserLoginFailed, SubjectID: u.ID.String()})
			return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}
	return s.authResponse(u)
}

// VerifyOTP marks the authenticated user verified when code matches the
// live verification code.
func (s *Service) VerifyOTP(ctx context.Context, userID domain.UserID, code string) (*models.AuthResponse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, dErrors.New(dErrors.CodeMissingFields, "Please enter the OTP")
	}
	u, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.consume(ctx, credential.OTPVerify, u.ID, code); err != nil {
		return nil, codeError(err, "Invalid OTP")
	}

	u.IsVerified = true
	u.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, u); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify user")
	}
	s.audit.Emit(ctx, audit.Event{Action: audit.ActionUserVerified, SubjectID: u.ID.String()})
	return s.authResponse(u)
}

// ForgotPassword emails a reset code and returns the account id the reset
// form posts back.
func (s *Service) ForgotPassword(ctx context.Context, rawEmail string) (*models.ForgotPasswordResponse, error) {
	addr := email.Normalize(rawEmail)
	if addr == "" {
		return nil, dErrors.New(dErrors.CodeMissingFields, "Please provide an email")
	}
	u, err := s.store.FindByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "User not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if err := s.sendCode(ctx, u, credential.OTPReset, s.resetTTL); err != nil {
		return nil, err
	}
	s.audit.Emit(ctx, audit.Event{Action: audit.ActionPasswordResetRequest, SubjectID: u.ID.String()})
	return &models.ForgotPasswordResponse{Message: "Password reset OTP sent to your email", UserID: u.ID}, nil
}

func (s *Service) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) (*models.MessageResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	id, err := domain.ParseUserID(strings.TrimSpace(req.UserID))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "User not found")
	}
	u, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.consume(ctx, credential.OTPReset, u.ID, strings.TrimSpace(req.OTP)); err != nil {
		return nil, codeError(err, "Invalid or expired OTP")
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return nil, internalUnlessCoded(err, "failed to hash password")
	}
	u.PasswordHash = hash
	u.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, u); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset password")
	}
	s.logger.InfoContext(ctx, "password reset",
		"user_id", u.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.audit.Emit(ctx, audit.Event{Action: audit.ActionPasswordReset, SubjectID: u.ID.String()})
	return &models.MessageResponse{Message: "Password reset successfully"}, nil
}

// Exists reports whether the account behind a token still exists.
func (s *Service) Exists(ctx context.Context, id domain.UserID) (bool, error) {
	ok, err := s.store.Exists(ctx, id)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return ok, nil
}

func (s *Service) findUser(ctx context.Context, id domain.UserID) (*models.User, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "User not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return u, nil
}

// sendCode stores a fresh code for purpose and emails it. Delivery failures
// are logged; the code stays valid so the client can ask again.
func (s *Service) sendCode(ctx context.Context, u *models.User, purpose credential.OTPPurpose, ttl time.Duration) error {
	code, err := credential.GenerateOTP()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate otp")
	}
	if err := s.otps.Save(ctx, purpose, u.ID.String(), code, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store otp")
	}
	err = s.mailer.SendOTP(ctx, mail.OTPMessage{
		To:        u.Email,
		Name:      u.Username,
		Code:      code,
		Purpose:   mail.Purpose(purpose),
		AccountID: u.ID.String(),
		ValidFor:  ttl,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to send otp email",
			"error", err,
			"user_id", u.ID,
			"purpose", purpose,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return nil
}

func (s *Service) consume(ctx context.Context, purpose credential.OTPPurpose, id domain.UserID, code string) error {
	err := s.otps.Consume(ctx, purpose, id.String(), code)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrExpired), errors.Is(err, sentinel.ErrMismatch):
		return sentinel.ErrMismatch
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check otp")
	}
}

func (s *Service) authResponse(u *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.Issue(requestcontext.PrincipalUser, u.ID.String())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return models.NewAuthResponse(u, token), nil
}

// codeError maps an OTP mismatch to a 401 with msg.
func codeError(err error, msg string) error {
	if errors.Is(err, sentinel.ErrMismatch) {
		return dErrors.New(dErrors.CodeUnauthorized, msg)
	}
	return err
}

func internalUnlessCoded(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
