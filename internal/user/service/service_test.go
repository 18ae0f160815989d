package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"refeera/internal/credential"
	"refeera/internal/mail"
	"refeera/internal/user/models"
	"refeera/internal/user/service/mocks"
	userstore "refeera/internal/user/store/user"
	"refeera/pkg/domain"
	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/requestcontext"
)

type capturingMailer struct {
	mu   sync.Mutex
	sent []mail.OTPMessage
	err  error
}

func (m *capturingMailer) SendOTP(_ context.Context, msg mail.OTPMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *capturingMailer) last() mail.OTPMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

type stubTokens struct{}

func (stubTokens) Issue(kind requestcontext.PrincipalKind, subject string) (string, error) {
	return string(kind) + ":" + subject, nil
}

type UserServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *userstore.InMemory
	mailer  *capturingMailer
	service *Service
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = userstore.NewInMemory()
	s.mailer = &capturingMailer{}
	s.service = New(s.store, credential.NewPasswordHasher(bcrypt.MinCost), stubTokens{}, credential.NewInMemoryOTPStore(), s.mailer,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithOTPTTLs(time.Hour, 10*time.Minute))
}

func (s *UserServiceSuite) requireCode(err error, code dErrors.Code, message string) {
	s.T().Helper()
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, code), "got %v", err)
	de, _ := dErrors.As(err)
	s.Equal(message, de.Message)
}

func (s *UserServiceSuite) register(email string) *models.RegisterResponse {
	res, err := s.service.Register(s.ctx, models.RegisterRequest{Username: "ann", Email: email, Password: "secret"})
	s.Require().NoError(err)
	return res
}

func (s *UserServiceSuite) registerVerified(email string) *models.RegisterResponse {
	res := s.register(email)
	_, err := s.service.VerifyOTP(s.ctx, res.ID, s.mailer.last().Code)
	s.Require().NoError(err)
	return res
}

func (s *UserServiceSuite) TestRegister() {
	s.Run("creates an unverified user and mails a code", func() {
		res := s.register("Ann@Example.com")
		s.Equal("ann@example.com", res.Email)
		s.Equal("Please verify your email with the OTP sent", res.Message)
		s.Equal("user:"+res.ID.String(), res.Token)

		msg := s.mailer.last()
		s.Equal(mail.PurposeVerify, msg.Purpose)
		s.Len(msg.Code, 6)
		s.Equal(time.Hour, msg.ValidFor)

		u, err := s.store.FindByID(s.ctx, res.ID)
		s.Require().NoError(err)
		s.False(u.IsVerified)
		s.NotEqual("secret", u.PasswordHash)
	})

	s.Run("duplicate email", func() {
		_, err := s.service.Register(s.ctx, models.RegisterRequest{Username: "x", Email: "ann@example.com", Password: "pw"})
		s.requireCode(err, dErrors.CodeConflict, "Email already exists!")
	})

	s.Run("missing fields", func() {
		_, err := s.service.Register(s.ctx, models.RegisterRequest{Email: "x@example.com"})
		s.requireCode(err, dErrors.CodeMissingFields, "Please enter all the fields")
	})

	s.Run("mail failure does not fail registration", func() {
		s.mailer.err = errors.New("smtp down")
		defer func() { s.mailer.err = nil }()
		_, err := s.service.Register(s.ctx, models.RegisterRequest{Username: "b", Email: "b@example.com", Password: "pw"})
		s.NoError(err)
	})
}

func (s *UserServiceSuite) TestLogin() {
	s.register("new@example.com")
	s.registerVerified("ok@example.com")

	s.Run("unknown email", func() {
		_, err := s.service.Login(s.ctx, models.LoginRequest{Email: "none@example.com", Password: "x"})
		s.requireCode(err, dErrors.CodeNotFound, "Invalid Email")
	})

	s.Run("unverified", func() {
		_, err := s.service.Login(s.ctx, models.LoginRequest{Email: "new@example.com", Password: "secret"})
		s.requireCode(err, dErrors.CodeUnauthorized, "Please verify your email first")
	})

	s.Run("wrong password", func() {
		_, err := s.service.Login(s.ctx, models.LoginRequest{Email: "ok@example.com", Password: "nope"})
		s.requireCode(err, dErrors.CodeUnauthorized, "Invalid password")
	})

	s.Run("success", func() {
		res, err := s.service.Login(s.ctx, models.LoginRequest{Email: "OK@example.com", Password: "secret"})
		s.Require().NoError(err)
		s.Equal("ann", res.Username)
		s.NotEmpty(res.Token)
	})
}

func (s *UserServiceSuite) TestVerifyOTP() {
	res := s.register("v@example.com")
	code := s.mailer.last().Code

	s.Run("missing code", func() {
		_, err := s.service.VerifyOTP(s.ctx, res.ID, " ")
		s.requireCode(err, dErrors.CodeMissingFields, "Please enter the OTP")
	})

	s.Run("wrong code", func() {
		wrong := "000000"
		if code == wrong {
			wrong = "111111"
		}
		_, err := s.service.VerifyOTP(s.ctx, res.ID, wrong)
		s.requireCode(err, dErrors.CodeUnauthorized, "Invalid OTP")
	})

	s.Run("correct code verifies once", func() {
		out, err := s.service.VerifyOTP(s.ctx, res.ID, code)
		s.Require().NoError(err)
		s.Equal(res.ID, out.ID)

		u, err := s.store.FindByID(s.ctx, res.ID)
		s.Require().NoError(err)
		s.True(u.IsVerified)

		_, err = s.service.VerifyOTP(s.ctx, res.ID, code)
		s.requireCode(err, dErrors.CodeUnauthorized, "Invalid OTP")
	})

	s.Run("unknown user", func() {
		_, err := s.service.VerifyOTP(s.ctx, domain.NewUserID(), code)
		s.requireCode(err, dErrors.CodeNotFound, "User not found")
	})
}

func (s *UserServiceSuite) TestVerifyOTPLocksAfterRepeatedMisses() {
	res := s.register("guess@example.com")
	code := s.mailer.last().Code
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for range credential.MaxOTPAttempts {
		_, err := s.service.VerifyOTP(s.ctx, res.ID, wrong)
		s.requireCode(err, dErrors.CodeUnauthorized, "Invalid OTP")
	}

	_, err := s.service.VerifyOTP(s.ctx, res.ID, code)
	s.requireCode(err, dErrors.CodeUnauthorized, "Invalid OTP")
}

func (s *UserServiceSuite) TestPasswordReset() {
	reg := s.registerVerified("reset@example.com")

	_, err := s.service.ForgotPassword(s.ctx, "")
	s.requireCode(err, dErrors.CodeMissingFields, "Please provide an email")
	_, err = s.service.ForgotPassword(s.ctx, "ghost@example.com")
	s.requireCode(err, dErrors.CodeNotFound, "User not found")

	forgot, err := s.service.ForgotPassword(s.ctx, "reset@example.com")
	s.Require().NoError(err)
	s.Equal(reg.ID, forgot.UserID)
	s.Equal("Password reset OTP sent to your email", forgot.Message)
	msg := s.mailer.last()
	s.Equal(mail.PurposeReset, msg.Purpose)
	s.Equal(10*time.Minute, msg.ValidFor)

	s.Run("verification codes cannot reset", func() {
		_, err := s.service.ResetPassword(s.ctx, models.ResetPasswordRequest{UserID: reg.ID.String(), OTP: "123", NewPassword: "x"})
		s.requireCode(err, dErrors.CodeUnauthorized, "Invalid or expired OTP")
	})

	s.Run("missing fields", func() {
		_, err := s.service.ResetPassword(s.ctx, models.ResetPasswordRequest{UserID: reg.ID.String()})
		s.requireCode(err, dErrors.CodeMissingFields, "Please provide user ID, OTP, and new password")
	})

	s.Run("resets with the mailed code", func() {
		out, err := s.service.ResetPassword(s.ctx, models.ResetPasswordRequest{UserID: reg.ID.String(), OTP: msg.Code, NewPassword: "brand-new"})
		s.Require().NoError(err)
		s.Equal("Password reset successfully", out.Message)

		_, err = s.service.Login(s.ctx, models.LoginRequest{Email: "reset@example.com", Password: "brand-new"})
		s.NoError(err)
		_, err = s.service.Login(s.ctx, models.LoginRequest{Email: "reset@example.com", Password: "secret"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *UserServiceSuite) TestStoreFailuresAreInternal() {
	ctrl := gomock.NewController(s.T())
	store := mocks.NewMockStore(ctrl)
	svc := New(store, credential.NewPasswordHasher(bcrypt.MinCost), stubTokens{}, credential.NewInMemoryOTPStore(), s.mailer,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	boom := errors.New("db down")

	store.EXPECT().FindByEmail(gomock.Any(), "x@example.com").Return(nil, boom)
	_, err := svc.Login(s.ctx, models.LoginRequest{Email: "x@example.com", Password: "pw"})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.ErrorIs(err, boom)

	store.EXPECT().Exists(gomock.Any(), domain.UserID("u-1")).Return(false, boom)
	_, err = svc.Exists(s.ctx, "u-1")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
