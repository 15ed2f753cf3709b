package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Mailgun wraps Mailgun client configuration.
type Mailgun struct {
	Domain  string
	APIKey  string
	Sender  string
	APIBase string // empty means the Mailgun default (US region)
	Timeout time.Duration
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{Domain: domain, APIKey: apiKey, Sender: sender, Timeout: 10 * time.Second}
}

func (m *Mailgun) client() *mg.MailgunImpl {
	client := mg.NewMailgun(m.Domain, m.APIKey)
	if m.APIBase != "" {
		client.SetAPIBase(m.APIBase)
	}
	return client
}

// Send delivers a plain-text message.
func (m *Mailgun) Send(ctx context.Context, to, subject, body string) error {
	return m.SendMessage(ctx, to, subject, body, "")
}

// SendMessage sends an email via Mailgun. html is optional; if provided it will be used as HTML body.
func (m *Mailgun) SendMessage(ctx context.Context, to, subject, text, html string) error {
	client := m.client()
	msg := client.NewMessage(m.Sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, _, err := client.Send(c, msg)
	return err
}

var _ Notifier = (*Mailgun)(nil)
