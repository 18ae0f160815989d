// Package service implements business accounts: registration, login,
// profile edits and the active toggle. Businesses are never hard deleted.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"refeera/internal/audit"
	"refeera/internal/business/models"
	"refeera/pkg/domain"
	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/email"
	"refeera/pkg/platform/sentinel"
	"refeera/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

type Store interface {
	Create(ctx context.Context, b *models.Business) error
	FindByID(ctx context.Context, id domain.BusinessID) (*models.Business, error)
	FindLiveByEmail(ctx context.Context, email string) (*models.Business, error)
	List(ctx context.Context) ([]*models.Business, error)
	Update(ctx context.Context, b *models.Business) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}

type TokenIssuer interface {
	Issue(kind requestcontext.PrincipalKind, subject string) (string, error)
}

const (
	msgNotFound     = "Business not found"
	msgInvalidLogin = "Invalid email, password, or business is inactive"
)

type Service struct {
	store  Store
	hasher PasswordHasher
	tokens TokenIssuer
	logger *slog.Logger
	audit  audit.Publisher
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

func New(store Store, hasher PasswordHasher, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		logger: slog.Default(),
		audit:  audit.Discard{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an active business and signs it in.
func (s *Service) Register(ctx context.Context, in models.Input) (*models.AuthResponse, error) {
	in.Normalize()
	if err := in.ValidateRegister(); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, in.Email, "Business already exists"); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if _, ok := dErrors.As(err); ok {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	b := models.NewBusiness(in, hash, requestcontext.Now(ctx))
	if err := s.store.Create(ctx, b); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "Business already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Invalid business data")
	}

	s.logger.InfoContext(ctx, "business registered",
		"business_id", b.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionBusinessRegistered,
		ActorID:   b.ID.String(),
		ActorKind: string(requestcontext.PrincipalBusiness),
		SubjectID: b.ID.String(),
	})
	return s.authResponse(b)
}

// Login signs in a live, active business. Every failure reads the same.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	b, err := s.store.FindLiveByEmail(ctx, email.Normalize(req.Email))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, msgInvalidLogin)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load business")
	}
	if !b.IsActive {
		s.loginFailed(ctx, b, "inactive")
		return nil, dErrors.New(dErrors.CodeUnauthorized, msgInvalidLogin)
	}
	if err := s.hasher.Verify(req.Password, b.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.loginFailed(ctx, b, "password")
			return nil, dErrors.New(dErrors.CodeUnauthorized, msgInvalidLogin)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}
	return s.authResponse(b)
}

// Profile returns the signed-in business.
func (s *Service) Profile(ctx context.Context, id domain.BusinessID) (*models.Profile, error) {
	b, err := s.findLive(ctx, id)
	if err != nil {
		return nil, err
	}
	return b.Profile(), nil
}

// List returns every business, deleted ones included.
func (s *Service) List(ctx context.Context) ([]*models.Business, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list businesses")
	}
	return all, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (*models.Profile, error) {
	id, err := domain.ParseBusinessID(rawID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, msgNotFound)
	}
	return s.Profile(ctx, id)
}

// Edit replaces the editable fields of the signed-in business.
func (s *Service) Edit(ctx context.Context, id domain.BusinessID, in models.Input) (*models.Profile, error) {
	b, err := s.findLive(ctx, id)
	if err != nil {
		return nil, err
	}
	in.Normalize()
	if err := in.ValidateEdit(); err != nil {
		return nil, err
	}
	if in.Email != b.Email {
		if err := s.ensureEmailFree(ctx, in.Email, "Email already in use"); err != nil {
			return nil, err
		}
	}

	b.Apply(in, requestcontext.Now(ctx))
	if err := s.store.Update(ctx, b); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "Email already in use")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update business")
	}

	s.logger.InfoContext(ctx, "business updated",
		"business_id", b.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionBusinessUpdated,
		SubjectID: b.ID.String(),
		Attrs:     map[string]string{"active": strconv.FormatBool(b.IsActive)},
	})
	return b.Profile(), nil
}

// EditByID is Edit addressed by a path id rather than the caller's token.
func (s *Service) EditByID(ctx context.Context, rawID string, in models.Input) (*models.Profile, error) {
	id, err := domain.ParseBusinessID(rawID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, msgNotFound)
	}
	return s.Edit(ctx, id, in)
}

// ToggleActive flips whether a live business may sign in.
func (s *Service) ToggleActive(ctx context.Context, rawID string) (*models.ToggleResponse, error) {
	id, err := domain.ParseBusinessID(rawID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, msgNotFound)
	}
	b, err := s.findLive(ctx, id)
	if err != nil {
		return nil, err
	}
	b.IsActive = !b.IsActive
	b.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, b); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update business")
	}

	s.logger.InfoContext(ctx, "business status toggled",
		"business_id", b.ID,
		"active", b.IsActive,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionBusinessStatusToggled,
		SubjectID: b.ID.String(),
		Attrs:     map[string]string{"active": strconv.FormatBool(b.IsActive)},
	})
	msg := "Business deactivated successfully"
	if b.IsActive {
		msg = "Business activated successfully"
	}
	return &models.ToggleResponse{Message: msg, IsActive: b.IsActive}, nil
}

// Exists reports whether a token subject is still a live business.
func (s *Service) Exists(ctx context.Context, id domain.BusinessID) (bool, error) {
	b, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load business")
	}
	return b.Live(), nil
}

func (s *Service) findLive(ctx context.Context, id domain.BusinessID) (*models.Business, error) {
	b, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, msgNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load business")
	}
	if !b.Live() {
		return nil, dErrors.New(dErrors.CodeNotFound, msgNotFound)
	}
	return b, nil
}

func (s *Service) ensureEmailFree(ctx context.Context, addr, conflictMsg string) error {
	_, err := s.store.FindLiveByEmail(ctx, addr)
	switch {
	case err == nil:
		return dErrors.New(dErrors.CodeConflict, conflictMsg)
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}
}

func (s *Service) loginFailed(ctx context.Context, b *models.Business, reason string) {
	s.logger.WarnContext(ctx, "business login failed",
		"business_id", b.ID,
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionBusinessLoginFailed,
		SubjectID: b.ID.String(),
		Attrs:     map[string]string{"reason": reason},
	})
}

func (s *Service) authResponse(b *models.Business) (*models.AuthResponse, error) {
	token, err := s.tokens.Issue(requestcontext.PrincipalBusiness, b.ID.String())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return &models.AuthResponse{ID: b.ID, BusinessName: b.BusinessName, Email: b.Email, Token: token}, nil
}
