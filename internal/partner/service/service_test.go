package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"refeera/internal/partner/models"
	"refeera/internal/partner/service/mocks"
	partnerstore "refeera/internal/partner/store/partner"
	"refeera/pkg/domain"
	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/platform/sentinel"
)

// recordingUploads stores nothing and hands back a predictable path.
type recordingUploads struct {
	saved []string
	err   error
}

func (u *recordingUploads) SaveImage(_ context.Context, name string, r io.Reader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	u.saved = append(u.saved, name)
	return "uploads/" + name, nil
}

type PartnerServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *partnerstore.InMemory
	uploads *recordingUploads
	service *Service
	owner   domain.UserID
}

func TestPartnerServiceSuite(t *testing.T) {
	suite.Run(t, new(PartnerServiceSuite))
}

func (s *PartnerServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = partnerstore.NewInMemory()
	s.uploads = &recordingUploads{}
	s.owner = domain.NewUserID()
	s.service = New(s.store, s.uploads, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func input(email string) models.PartnerInput {
	return models.PartnerInput{
		Name:       "Pat Doe",
		Email:      email,
		Number:     "555-0100",
		Location:   "Austin",
		State:      "TX",
		Earning:    "1000",
		Experience: []string{"Sales"},
	}
}

func selfie(name string) *models.Selfie {
	return &models.Selfie{Filename: name, Body: strings.NewReader("png")}
}

func (s *PartnerServiceSuite) requireCode(err error, code dErrors.Code, message string) {
	s.T().Helper()
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, code), "got %v", err)
	de, _ := dErrors.As(err)
	s.Equal(message, de.Message)
}

func (s *PartnerServiceSuite) TestCreate() {
	s.Run("stores the partner for the calling user", func() {
		p, err := s.service.Create(s.ctx, s.owner, input(" Pat@Example.com "), selfie("me.png"))
		s.Require().NoError(err)
		s.Equal(s.owner, p.UserID)
		s.Equal("pat@example.com", p.Email)
		s.Equal("uploads/me.png", p.Selfie)
		s.Equal([]string{}, p.Languages)
	})

	s.Run("requires the six contact fields", func() {
		in := input("x@example.com")
		in.Earning = " "
		_, err := s.service.Create(s.ctx, s.owner, in, nil)
		s.requireCode(err, dErrors.CodeMissingFields, "Please enter all required fields: name, email, number, location, state, earning")
	})

	s.Run("rejects a taken email before storing the selfie", func() {
		before := len(s.uploads.saved)
		_, err := s.service.Create(s.ctx, domain.NewUserID(), input("pat@example.com"), selfie("other.png"))
		s.requireCode(err, dErrors.CodeConflict, "Email already exists")
		s.Len(s.uploads.saved, before)
	})

	s.Run("surfaces rejected uploads", func() {
		s.uploads.err = dErrors.New(dErrors.CodeInvalidInput, "Only image files are allowed")
		defer func() { s.uploads.err = nil }()
		_, err := s.service.Create(s.ctx, s.owner, input("img@example.com"), selfie("doc.pdf"))
		s.requireCode(err, dErrors.CodeInvalidInput, "Only image files are allowed")
	})
}

func (s *PartnerServiceSuite) TestGetByUser() {
	created, err := s.service.Create(s.ctx, s.owner, input("owner@example.com"), nil)
	s.Require().NoError(err)

	got, err := s.service.GetByUser(s.ctx, s.owner.String())
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)

	_, err = s.service.GetByUser(s.ctx, domain.NewUserID().String())
	s.requireCode(err, dErrors.CodeNotFound, "Partner not found")

	_, err = s.service.GetByUser(s.ctx, "not-a-uuid")
	s.requireCode(err, dErrors.CodeNotFound, "Partner not found")
}

func (s *PartnerServiceSuite) TestUpdate() {
	p, err := s.service.Create(s.ctx, s.owner, input("first@example.com"), selfie("first.png"))
	s.Require().NoError(err)
	other, err := s.service.Create(s.ctx, domain.NewUserID(), input("second@example.com"), nil)
	s.Require().NoError(err)

	s.Run("keeps the selfie when none is uploaded", func() {
		in := input("first@example.com")
		in.Name = "Renamed"
		updated, err := s.service.Update(s.ctx, p.ID.String(), in, nil)
		s.Require().NoError(err)
		s.Equal("Renamed", updated.Name)
		s.Equal("uploads/first.png", updated.Selfie)
		s.Equal(p.CreatedAt, updated.CreatedAt)
	})

	s.Run("replaces the selfie when one is uploaded", func() {
		updated, err := s.service.Update(s.ctx, p.ID.String(), input("first@example.com"), selfie("new.png"))
		s.Require().NoError(err)
		s.Equal("uploads/new.png", updated.Selfie)
	})

	s.Run("rejects another partner's email", func() {
		_, err := s.service.Update(s.ctx, p.ID.String(), input(other.Email), nil)
		s.requireCode(err, dErrors.CodeConflict, "Email already exists")
	})

	s.Run("unknown partner", func() {
		_, err := s.service.Update(s.ctx, domain.NewPartnerID().String(), input("x@example.com"), nil)
		s.requireCode(err, dErrors.CodeNotFound, "Partner not found")
	})

	s.Run("validates before looking the partner up", func() {
		_, err := s.service.Update(s.ctx, "garbage", models.PartnerInput{}, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeMissingFields))
	})
}

func (s *PartnerServiceSuite) TestDelete() {
	p, err := s.service.Create(s.ctx, s.owner, input("gone@example.com"), nil)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Delete(s.ctx, p.ID.String()))
	s.requireCode(s.service.Delete(s.ctx, p.ID.String()), dErrors.CodeNotFound, "Partner not found")
	s.requireCode(s.service.Delete(s.ctx, "nope"), dErrors.CodeNotFound, "Partner not found")
}

func (s *PartnerServiceSuite) TestDeleteAll() {
	for _, e := range []string{"a@example.com", "b@example.com"} {
		_, err := s.service.Create(s.ctx, s.owner, input(e), nil)
		s.Require().NoError(err)
	}
	n, err := s.service.DeleteAll(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(2, n)

	all, err := s.service.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *PartnerServiceSuite) TestStoreFailuresAreInternal() {
	ctrl := gomock.NewController(s.T())
	store := mocks.NewMockStore(ctrl)
	svc := New(store, s.uploads, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	boom := errors.New("connection reset")

	s.Run("email check", func() {
		store.EXPECT().FindByEmail(gomock.Any(), "pat@example.com").Return(nil, boom)
		_, err := svc.Create(s.ctx, s.owner, input("pat@example.com"), nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.ErrorIs(err, boom)
	})

	s.Run("create races on the unique email", func() {
		store.EXPECT().FindByEmail(gomock.Any(), "race@example.com").Return(nil, sentinel.ErrNotFound)
		store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrAlreadyUsed)
		_, err := svc.Create(s.ctx, s.owner, input("race@example.com"), nil)
		s.requireCode(err, dErrors.CodeConflict, "Email already exists")
	})

	s.Run("list", func() {
		store.EXPECT().List(gomock.Any()).Return(nil, boom)
		_, err := svc.List(s.ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
