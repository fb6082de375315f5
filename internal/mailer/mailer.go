package mailer

import (
	"fmt"

	"github.com/campuswatch/ireport-backend/internal/config"
	"gopkg.in/gomail.v2"
)

// Sender delivers a single email. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender delivers mail through a configured SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:   cfg.MailFrom,
	}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// Noop discards mail. Used in tests and when SMTP is not configured.
type Noop struct{}

func (Noop) Send(to, subject, body string) error { return nil }

// NewSender picks SMTP when a host is configured, Noop otherwise, so a dev
// environment without a relay still boots.
func NewSender(cfg *config.Config) Sender {
	if cfg.SMTPHost == "" {
		return Noop{}
	}
	return NewSMTPSender(cfg)
}
