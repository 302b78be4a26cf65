package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"sync"

	"github.com/jordan-wright/email"
)

// Mailer delivers rendered messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig describes the outbound mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Configured reports whether credentials are present.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// SMTPMailer sends through an SMTP relay with PLAIN auth.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer returns nil when cfg lacks credentials.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if !cfg.Configured() {
		return nil
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPMailer{cfg: cfg}
}

// Send delivers msg. Servers that refuse AUTH get a second, unauthenticated attempt.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	mail := buildEmail(m.cfg.From, msg)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	err := mail.Send(addr, smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

func buildEmail(from string, msg Message) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Sổ Tay Cho HDV <%s>", from)
	mail.To = []string{msg.To}
	mail.Subject = msg.Subject
	mail.Text = []byte(msg.Text)
	mail.HTML = []byte(msg.HTML)
	for k, v := range msg.Headers {
		mail.Headers.Set(k, v)
	}
	return mail
}

// MemoryMailer records messages instead of sending them.
type MemoryMailer struct {
	mu   sync.Mutex
	sent []Message
	Err  error
}

// Send records msg, or fails with Err when set.
func (m *MemoryMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MemoryMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
