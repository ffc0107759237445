package mailer

import (
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"
)

// ErrNotConfigured is returned by Send when no SMTP host has been configured.
var ErrNotConfigured = errors.New("mailer is not configured")

// Sender delivers a single email.
type Sender interface {
	Send(email Email) error
}

// Mailer represents an SMTP email sender.
type Mailer struct {
	config Config
	dialer *gomail.Dialer
}

// Email represents an email message.
type Email struct {
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	Body     string
	HTMLBody string
}

// Config holds SMTP configuration for sending emails.
// An empty Host leaves the mailer disabled.
type Config struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT"     envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
}

// Enabled reports whether an SMTP host is configured.
func (c Config) Enabled() bool {
	return c.Host != ""
}

// Validate checks that an enabled configuration is complete.
func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.Port == 0 {
		return fmt.Errorf("missing SMTP_PORT environment variable")
	}
	if c.From == "" {
		return fmt.Errorf("missing SMTP_FROM environment variable")
	}

	return nil
}

// NewMailer creates a new Mailer instance with the given configuration.
func NewMailer(cfg Config) *Mailer {
	m := &Mailer{config: cfg}
	if cfg.Enabled() {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}

	return m
}

// Send sends a single email.
func (m *Mailer) Send(email Email) error {
	if m.dialer == nil {
		return ErrNotConfigured
	}
	if len(email.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	msg := gomail.NewMessage()
	m.setEmailMessage(msg, email)

	return m.dialer.DialAndSend(msg)
}

// SendHTML sends an HTML email with a plain text alternative.
func (m *Mailer) SendHTML(to []string, subject, htmlBody, textBody string) error {
	return m.Send(Email{
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBody,
		Body:     textBody,
	})
}

func (m *Mailer) setEmailMessage(msg *gomail.Message, email Email) {
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", email.To...)

	if len(email.Cc) > 0 {
		msg.SetHeader("Cc", email.Cc...)
	}

	if len(email.Bcc) > 0 {
		msg.SetHeader("Bcc", email.Bcc...)
	}

	msg.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}
}
