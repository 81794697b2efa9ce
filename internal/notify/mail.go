package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// Mailer delivers a plain-text mail. Email and SMS share one.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, body string) error
}

// SMTPConfig holds the submission server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// DefaultSMTPHost and DefaultSMTPPort target Gmail submission with STARTTLS.
const (
	DefaultSMTPHost = "smtp.gmail.com"
	DefaultSMTPPort = 587
)

// SMTPSender submits mail with PLAIN auth over mandatory STARTTLS. Each send
// dials a fresh connection; alerts are rare.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender fills defaults.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Host == "" {
		cfg.Host = DefaultSMTPHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultSMTPPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) message(to, subject, body string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("notify: from address: %w", err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("notify: to address: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)
	return m, nil
}

func (s *SMTPSender) SendMail(ctx context.Context, to, subject, body string) error {
	m, err := s.message(to, subject, body)
	if err != nil {
		return err
	}

	c, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(s.cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("notify: smtp client: %w", err)
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("notify: send to %s via %s:%d: %w", to, s.cfg.Host, s.cfg.Port, err)
	}
	return nil
}

// Email mails the full alert to one recipient.
type Email struct {
	mailer Mailer
	to     string
}

// NewEmail sends through mailer to the given address.
func NewEmail(mailer Mailer, to string) *Email {
	return &Email{mailer: mailer, to: to}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Send(ctx context.Context, msg Message) error {
	return e.mailer.SendMail(ctx, e.to, msg.Title, msg.Body)
}
