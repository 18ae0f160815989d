package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"refeera/internal/partner/handler/mocks"
	"refeera/internal/partner/models"
	"refeera/pkg/domain"
	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/requestcontext"
	"refeera/pkg/testutil"
)

type PartnerHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  http.Handler
}

func TestPartnerHandlerSuite(t *testing.T) {
	suite.Run(t, new(PartnerHandlerSuite))
}

func (s *PartnerHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(s.service, logger, testutil.StubAuth(requestcontext.PrincipalUser)).Register(r)
	s.router = r
}

var requiredFields = map[string]string{
	"partner_name":     "Pat",
	"partner_email":    "pat@example.com",
	"partner_number":   "555",
	"partner_location": "Austin",
	"partner_state":    "TX",
	"partner_earning":  "1000",
}

func (s *PartnerHandlerSuite) TestCreate() {
	s.Run("requires a token", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/partner/add-partner", requiredFields)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("multipart body with selfie", func() {
		s.service.EXPECT().
			Create(gomock.Any(), domain.UserID("user-1"), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ domain.UserID, in models.PartnerInput, selfie *models.Selfie) (*models.Partner, error) {
				s.Equal("Pat", in.Name)
				s.Equal([]string{"English", "Spanish"}, []string(in.Languages))
				s.Require().NotNil(selfie)
				s.Equal("me.png", selfie.Filename)
				body, err := io.ReadAll(selfie.Body)
				s.Require().NoError(err)
				s.Equal("\x89PNG", string(body))
				return &models.Partner{ID: "p-1", Name: in.Name, Selfie: "uploads/1-me.png"}, nil
			})

		fields := map[string]string{"languages": `["English","Spanish"]`}
		for k, v := range requiredFields {
			fields[k] = v
		}
		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/api/partner/add-partner", fields,
			testutil.FilePart{Field: "selfie", Filename: "me.png", Content: []byte("\x89PNG")})
		rr := testutil.DoRequest(s.router, testutil.Bearer(req, "user-1"))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		testutil.AssertJSONContains(s.T(), rr, "_id", "p-1")
		testutil.AssertJSONContains(s.T(), rr, "selfie", "uploads/1-me.png")
	})

	s.Run("json body without selfie", func() {
		s.service.EXPECT().
			Create(gomock.Any(), domain.UserID("user-1"), gomock.Any(), (*models.Selfie)(nil)).
			Return(&models.Partner{ID: "p-2"}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/partner/add-partner", requiredFields)
		rr := testutil.DoRequest(s.router, testutil.Bearer(req, "user-1"))
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	})

	s.Run("duplicate email is a 400", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "Email already exists"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/partner/add-partner", requiredFields)
		rr := testutil.DoRequest(s.router, testutil.Bearer(req, "user-1"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		testutil.AssertErrorMessage(s.T(), rr, "Email already exists")
	})
}

func (s *PartnerHandlerSuite) TestList() {
	s.service.EXPECT().List(gomock.Any()).Return([]*models.Partner{{ID: "p-1"}, {ID: "p-2"}}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/partner/get-partners"))
	testutil.AssertStatusOK(s.T(), rr)
	var got []map[string]any
	s.Require().NoError(json.Unmarshal(testutil.ReadBody(s.T(), rr), &got))
	s.Len(got, 2)
}

func (s *PartnerHandlerSuite) TestGetByUser() {
	s.Run("requires a token", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/partner/get-partner/u-1"))
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("not found", func() {
		s.service.EXPECT().GetByUser(gomock.Any(), "u-1").
			Return(nil, dErrors.New(dErrors.CodeNotFound, "Partner not found"))

		req := testutil.NewRequest(s.T(), http.MethodGet, "/api/partner/get-partner/u-1")
		rr := testutil.DoRequest(s.router, testutil.Bearer(req, "user-1"))
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
		testutil.AssertErrorMessage(s.T(), rr, "Partner not found")
	})
}

func (s *PartnerHandlerSuite) TestUpdate() {
	s.service.EXPECT().Update(gomock.Any(), "p-1", gomock.Any(), (*models.Selfie)(nil)).
		Return(&models.Partner{ID: "p-1", Name: "Renamed"}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/api/partner/update-partner/p-1", requiredFields)
	rr := testutil.DoRequest(s.router, testutil.Bearer(req, "user-1"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "partner_name", "Renamed")
}

func (s *PartnerHandlerSuite) TestDeletes() {
	s.Run("single", func() {
		s.service.EXPECT().Delete(gomock.Any(), "p-1").Return(nil)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodDelete, "/api/partner/delete-partner/p-1"))
		testutil.AssertStatusOK(s.T(), rr)
		s.JSONEq(`"Partner deleted"`, string(testutil.ReadBody(s.T(), rr)))
	})

	s.Run("all", func() {
		s.service.EXPECT().DeleteAll(gomock.Any()).Return(int64(3), nil)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodDelete, "/api/partner/delete-partners"))
		testutil.AssertStatusOK(s.T(), rr)
		s.JSONEq(`"All partners deleted"`, string(testutil.ReadBody(s.T(), rr)))
	})

	s.Run("unknown partner", func() {
		s.service.EXPECT().Delete(gomock.Any(), "p-404").Return(dErrors.New(dErrors.CodeNotFound, "Partner not found"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodDelete, "/api/partner/delete-partner/p-404"))
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})
}
