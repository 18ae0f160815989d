// Package service manages partner profiles: onboarding, updates with an
// optional selfie, lookups by owner and removal.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"refeera/internal/audit"
	"refeera/internal/partner/models"
	"refeera/internal/upload"
	"refeera/pkg/domain"
	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/platform/sentinel"
	"refeera/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

type Store interface {
	Create(ctx context.Context, p *models.Partner) error
	FindByID(ctx context.Context, id domain.PartnerID) (*models.Partner, error)
	FindByUser(ctx context.Context, userID domain.UserID) (*models.Partner, error)
	FindByEmail(ctx context.Context, email string) (*models.Partner, error)
	List(ctx context.Context) ([]*models.Partner, error)
	Update(ctx context.Context, p *models.Partner) error
	Delete(ctx context.Context, id domain.PartnerID) error
	DeleteAll(ctx context.Context) (int64, error)
}

const (
	msgNotFound    = "Partner not found"
	msgEmailExists = "Email already exists"
)

type Service struct {
	store   Store
	uploads upload.Storage
	logger  *slog.Logger
	audit   audit.Publisher
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

func New(store Store, uploads upload.Storage, opts ...Option) *Service {
	s := &Service{
		store:   store,
		uploads: uploads,
		logger:  slog.Default(),
		audit:   audit.Discard{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create onboards a partner owned by the calling user. The email must not
// belong to another partner; the selfie is optional.
func (s *Service) Create(ctx context.Context, owner domain.UserID, in models.PartnerInput, selfie *models.Selfie) (*models.Partner, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, in.Email, ""); err != nil {
		return nil, err
	}
	selfiePath, err := s.saveSelfie(ctx, selfie)
	if err != nil {
		return nil, err
	}

	p := models.NewPartner(owner, in, selfiePath, requestcontext.Now(ctx))
	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, msgEmailExists)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to create partner")
	}

	s.logger.InfoContext(ctx, "partner created",
		"partner_id", p.ID,
		"owner_id", owner,
		"has_selfie", selfiePath != "",
		"request_id", requestcontext.RequestID(ctx),
	)
	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionPartnerCreated,
		SubjectID: p.ID.String(),
		Attrs:     map[string]string{"owner": owner.String()},
	})
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Partner, error) {
	partners, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list partners")
	}
	return partners, nil
}

// GetByUser returns the first partner the user created.
func (s *Service) GetByUser(ctx context.Context, rawUserID string) (*models.Partner, error) {
	userID, err := domain.ParseUserID(rawUserID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, msgNotFound)
	}
	p, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "failed to load partner")
	}
	return p, nil
}

// Update replaces every profile field. A missing selfie keeps the stored one.
func (s *Service) Update(ctx context.Context, rawID string, in models.PartnerInput, selfie *models.Selfie) (*models.Partner, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	id, err := domain.ParsePartnerID(rawID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, msgNotFound)
	}
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "failed to load partner")
	}
	if err := s.ensureEmailFree(ctx, in.Email, id); err != nil {
		return nil, err
	}
	selfiePath, err := s.saveSelfie(ctx, selfie)
	if err != nil {
		return nil, err
	}

	p.Apply(in, selfiePath, requestcontext.Now(ctx))
	if err := s.store.Update(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, msgEmailExists)
		}
		return nil, notFoundOr(err, "Failed to update partner")
	}

	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionPartnerUpdated,
		SubjectID: id.String(),
		Attrs:     map[string]string{"selfie_replaced": strconv.FormatBool(selfiePath != "")},
	})
	return p, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := domain.ParsePartnerID(rawID)
	if err != nil {
		return dErrors.New(dErrors.CodeNotFound, msgNotFound)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return notFoundOr(err, "failed to delete partner")
	}
	s.logger.InfoContext(ctx, "partner deleted",
		"partner_id", id,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.audit.Emit(ctx, audit.Event{Action: audit.ActionPartnerDeleted, SubjectID: id.String()})
	return nil
}

// DeleteAll removes every partner and reports how many were removed.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete partners")
	}
	s.logger.WarnContext(ctx, "all partners deleted",
		"count", n,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.audit.Emit(ctx, audit.Event{
		Action: audit.ActionPartnersPurged,
		Attrs:  map[string]string{"count": strconv.FormatInt(n, 10)},
	})
	return n, nil
}

// ensureEmailFree fails when another partner than except holds email.
func (s *Service) ensureEmailFree(ctx context.Context, email string, except domain.PartnerID) error {
	existing, err := s.store.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check partner email")
	case existing.ID != except:
		return dErrors.New(dErrors.CodeConflict, msgEmailExists)
	}
	return nil
}

func (s *Service) saveSelfie(ctx context.Context, selfie *models.Selfie) (string, error) {
	if selfie == nil || selfie.Body == nil {
		return "", nil
	}
	p, err := s.uploads.SaveImage(ctx, selfie.Filename, selfie.Body)
	if err != nil {
		if _, ok := dErrors.As(err); ok {
			return "", err
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store selfie")
	}
	return p, nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, msgNotFound)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
