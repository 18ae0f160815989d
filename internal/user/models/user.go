package models

import (
	"strings"
	"time"

	"refeera/pkg/domain"
	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/email"
)

// User is an account holder who signs in to manage partners.
type User struct {
	ID           domain.UserID `json:"_id" bson:"_id"`
	Username     string        `json:"username" bson:"username"`
	Email        string        `json:"email" bson:"email"`
	PasswordHash string        `json:"-" bson:"password"`
	IsVerified   bool          `json:"isVerified" bson:"isVerified"`
	CreatedAt    time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt" bson:"updatedAt"`
}

func NewUser(username, email, passwordHash string, now time.Time) *User {
	return &User{
		ID:           domain.NewUserID(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

const msgAllFields = "Please enter all the fields"

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = email.Normalize(r.Email)
}

func (r *RegisterRequest) Validate() error {
	if r.Username == "" || r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeMissingFields, msgAllFields)
	}
	if !email.IsValid(r.Email) {
		return dErrors.New(dErrors.CodeInvalidInput, "Please enter a valid email")
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Email = email.Normalize(r.Email)
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeMissingFields, msgAllFields)
	}
	return nil
}

type VerifyOTPRequest struct {
	OTP string `json:"otp"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	UserID      string `json:"userId"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

func (r *ResetPasswordRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" || strings.TrimSpace(r.OTP) == "" || r.NewPassword == "" {
		return dErrors.New(dErrors.CodeMissingFields, "Please provide user ID, OTP, and new password")
	}
	return nil
}

// AuthResponse is returned by login and OTP verification.
type AuthResponse struct {
	ID       domain.UserID `json:"_id"`
	Username string        `json:"username"`
	Email    string        `json:"email"`
	Token    string        `json:"token"`
}

type RegisterResponse struct {
	ID       domain.UserID `json:"_id"`
	Username string        `json:"username"`
	Email    string        `json:"email"`
	Message  string        `json:"message"`
	Token    string        `json:"token"`
}

type ForgotPasswordResponse struct {
	Message string        `json:"message"`
	UserID  domain.UserID `json:"userId"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func NewAuthResponse(u *User, token string) *AuthResponse {
	return &AuthResponse{ID: u.ID, Username: u.Username, Email: u.Email, Token: token}
}
