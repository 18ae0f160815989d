package credential

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTPPurpose scopes a one-time code so a verification code cannot reset a
// password and vice versa.
type OTPPurpose string

const (
	OTPVerify OTPPurpose = "verify"
	OTPReset  OTPPurpose = "reset"
)

const otpDigits = 6

// MaxOTPAttempts is how many wrong codes burn a live code. The caller must
// then request a new one.
const MaxOTPAttempts = 5

var otpSpace = big.NewInt(1_000_000)

// GenerateOTP returns a uniformly random zero-padded 6-digit code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

// OTPStore keeps at most one live code per (purpose, account); saving again
// replaces the previous code and its attempt count. Consume deletes the code
// when it matches or after MaxOTPAttempts misses. It returns
// sentinel.ErrNotFound or sentinel.ErrExpired when no live code exists and
// sentinel.ErrMismatch when the code differs.
type OTPStore interface {
	Save(ctx context.Context, purpose OTPPurpose, accountID, code string, ttl time.Duration) error
	Consume(ctx context.Context, purpose OTPPurpose, accountID, code string) error
}

func otpKey(purpose OTPPurpose, accountID string) string {
	return "otp:" + string(purpose) + ":" + accountID
}

func otpAttemptsKey(purpose OTPPurpose, accountID string) string {
	return otpKey(purpose, accountID) + ":attempts"
}
