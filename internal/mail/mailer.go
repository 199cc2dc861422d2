package mail

import (
	"crypto/tls"
	"fmt"

	gomail "github.com/go-mail/mail/v2"
	"github.com/rs/zerolog"
)

// Config contains SMTP settings for notification email delivery.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
}

// Mailer delivers workflow notification emails over SMTP with mandatory
// STARTTLS.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	to     string
	logger zerolog.Logger
}

// New constructs a Mailer. Host, From, and To are required.
func New(cfg Config, logger zerolog.Logger) (*Mailer, error) {
	if cfg.Host == "" || cfg.From == "" || cfg.To == "" {
		return nil, fmt.Errorf("smtp host, from, and to must be provided")
	}

	port := cfg.Port
	if port == 0 {
		port = 587
	}

	dialer := gomail.NewDialer(cfg.Host, port, cfg.User, cfg.Password)
	dialer.StartTLSPolicy = gomail.MandatoryStartTLS
	dialer.TLSConfig = &tls.Config{ServerName: cfg.Host}

	return &Mailer{
		dialer: dialer,
		from:   cfg.From,
		to:     cfg.To,
		logger: logger.With().Str("component", "mailer").Logger(),
	}, nil
}

// Send delivers one plain-text notification message.
func (m *Mailer) Send(subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}

	m.logger.Debug().Str("subject", subject).Msg("notification email sent")
	return nil
}
