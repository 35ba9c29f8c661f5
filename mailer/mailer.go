package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/thecinephile/api/auth"
)

// Mailer delivers account mail over SMTPS. Port 465 speaks TLS from the
// first byte, so we dial with tls.Dial instead of using STARTTLS.
type Mailer struct {
	appName  string
	host     string
	port     int
	username string
	password string
	from     string
	logger   auth.Logger
}

type Config struct {
	AppName  string
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

var _ auth.Notifier = (*Mailer)(nil)

func New(cfg Config, logger auth.Logger) (*Mailer, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, goerrors.New("smtp credentials are not configured", goerrors.CategoryInternal).
			WithTextCode("MAILER_MISCONFIGURED")
	}
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == 0 {
		cfg.Port = 465
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.AppName == "" {
		cfg.AppName = "The Cinephile"
	}
	return &Mailer{
		appName:  cfg.AppName,
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		logger:   logger,
	}, nil
}

func (m *Mailer) SendVerification(ctx context.Context, email, firstName, otpCode string) auth.DeliveryResult {
	subject := fmt.Sprintf("%s: verify your email", m.appName)
	text := fmt.Sprintf(
		"Hi %s,\r\n\r\nYour %s verification code is %s. It expires shortly, so use it soon.\r\n\r\nIf you did not sign up, you can ignore this email.\r\n",
		firstName, m.appName, otpCode,
	)
	html := fmt.Sprintf(
		"<html><body><p>Hi %s,</p><p>Your %s verification code is <strong>%s</strong>. It expires shortly, so use it soon.</p><p>If you did not sign up, you can ignore this email.</p></body></html>",
		firstName, m.appName, otpCode,
	)

	if err := m.send(ctx, email, subject, text, html); err != nil {
		if m.logger != nil {
			m.logger.Error("verification mail failed", "email", email, "error", err)
		}
		return auth.DeliveryResult{Success: false, Message: "verification email could not be delivered"}
	}
	return auth.DeliveryResult{Success: true, Message: "verification email sent"}
}

func (m *Mailer) SendWelcome(ctx context.Context, user *auth.User) auth.DeliveryResult {
	subject := fmt.Sprintf("Welcome to %s", m.appName)
	text := fmt.Sprintf(
		"Hi %s,\r\n\r\nYour email is verified and your account is ready. Your default lists are waiting for their first titles.\r\n",
		user.FirstName,
	)
	html := fmt.Sprintf(
		"<html><body><p>Hi %s,</p><p>Your email is verified and your account is ready. Your default lists are waiting for their first titles.</p></body></html>",
		user.FirstName,
	)

	if err := m.send(ctx, user.Email, subject, text, html); err != nil {
		if m.logger != nil {
			m.logger.Error("welcome mail failed", "email", user.Email, "error", err)
		}
		return auth.DeliveryResult{Success: false, Message: "welcome email could not be delivered"}
	}
	return auth.DeliveryResult{Success: true, Message: "welcome email sent"}
}

func (m *Mailer) send(ctx context.Context, to, subject, text, html string) error {
	addr := net.JoinHostPort(m.host, fmt.Sprintf("%d", m.port))

	dialer := &tls.Dialer{Config: &tls.Config{ServerName: m.host}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to dial smtp server")
	}

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to open smtp session")
	}
	defer client.Close()

	if err := client.Auth(smtp.PlainAuth("", m.username, m.password, m.host)); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "smtp auth failed")
	}
	if err := client.Mail(m.from); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "smtp mail from failed")
	}
	if err := client.Rcpt(to); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "smtp rcpt to failed")
	}

	wc, err := client.Data()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "smtp data failed")
	}
	if _, err := wc.Write([]byte(m.compose(to, subject, text, html))); err != nil {
		wc.Close()
		return goerrors.Wrap(err, goerrors.CategoryOperation, "smtp write failed")
	}
	if err := wc.Close(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "smtp close failed")
	}

	return client.Quit()
}

// compose builds a multipart/alternative message carrying both the text
// and HTML bodies.
func (m *Mailer) compose(to, subject, text, html string) string {
	boundary := "cinephile-alt-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.appName, m.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(text)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(html)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return b.String()
}
