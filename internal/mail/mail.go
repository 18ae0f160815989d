// Package mail delivers one-time codes by email.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"gopkg.in/gomail.v2"

	"refeera/internal/platform/config"
	"refeera/pkg/requestcontext"
)

//go:embed templates/*.html
var templateFS embed.FS

var otpTemplate = template.Must(template.ParseFS(templateFS, "templates/otp.html"))

// Purpose selects the wording of the OTP email.
type Purpose string

const (
	PurposeVerify Purpose = "verify"
	PurposeReset  Purpose = "reset"
)

// OTPMessage is everything needed to render and address an OTP email.
type OTPMessage struct {
	To        string
	Name      string
	Code      string
	Purpose   Purpose
	AccountID string
	ValidFor  time.Duration
}

// Mailer sends transactional email.
type Mailer interface {
	SendOTP(ctx context.Context, msg OTPMessage) error
}

type otpView struct {
	Heading  string
	Action   string
	Name     string
	Code     string
	Link     string
	Validity string
}

// Render produces the subject and HTML body for msg.
func Render(msg OTPMessage, appBaseURL string) (subject, body string, err error) {
	view := otpView{
		Name:     msg.Name,
		Code:     msg.Code,
		Link:     fmt.Sprintf("%s/admin/%s/%s", appBaseURL, msg.Purpose, msg.AccountID),
		Validity: humanize(msg.ValidFor),
	}
	switch msg.Purpose {
	case PurposeReset:
		subject = "Password Reset OTP"
		view.Heading = "Password Reset Code"
		view.Action = "reset your password"
	default:
		subject = "OTP Verification"
		view.Heading = "Verification Code"
		view.Action = "complete your registration"
	}

	var buf bytes.Buffer
	if err := otpTemplate.Execute(&buf, view); err != nil {
		return "", "", fmt.Errorf("render otp email: %w", err)
	}
	return subject, buf.String(), nil
}

func humanize(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d%(24*time.Hour) == 0:
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "24 hours"
		}
		return fmt.Sprintf("%d days", days)
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	default:
		return fmt.Sprintf("%d minutes", int(d.Round(time.Minute)/time.Minute))
	}
}

// SMTPMailer sends through an SMTP relay with gomail.
type SMTPMailer struct {
	dialer     *gomail.Dialer
	from       string
	appBaseURL string
}

func NewSMTPMailer(cfg config.Mail, appBaseURL string) *SMTPMailer {
	return &SMTPMailer{
		dialer:     gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:       cfg.From,
		appBaseURL: appBaseURL,
	}
}

func (m *SMTPMailer) SendOTP(ctx context.Context, msg OTPMessage) error {
	subject, body, err := Render(msg, m.appBaseURL)
	if err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", subject)
	gm.SetBody("text/plain", fmt.Sprintf("Your code is %s", msg.Code))
	gm.AddAlternative("text/html", body)

	// gomail has no context support; honour cancellation before dialing.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. Used when no
// SMTP host is configured.
type LogMailer struct {
	logger     *slog.Logger
	appBaseURL string
}

func NewLogMailer(logger *slog.Logger, appBaseURL string) *LogMailer {
	return &LogMailer{logger: logger, appBaseURL: appBaseURL}
}

func (m *LogMailer) SendOTP(ctx context.Context, msg OTPMessage) error {
	subject, _, err := Render(msg, m.appBaseURL)
	if err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "otp email (log mailer)",
		"to", msg.To,
		"subject", subject,
		"purpose", msg.Purpose,
		"code", msg.Code,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}
