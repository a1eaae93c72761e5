package infra

import (
	"context"
	"fmt"
	"net/smtp"

	"factorylink/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for plain-text notification emails.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

func (m *Mailer) Send(to, subject, body string) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return e.Send(m.addr, auth)
}

// MailNotifier emails the order's customer. Orders whose customer has no
// address are skipped silently.
type MailNotifier struct {
	mailer *Mailer
}

func NewMailNotifier(m *Mailer) *MailNotifier { return &MailNotifier{mailer: m} }

func (n *MailNotifier) Notify(_ context.Context, msg Notification) error {
	if msg.CustomerEmail == "" {
		return nil
	}
	subject := fmt.Sprintf("Order %s is now %s", msg.OrderNumber, msg.Status)
	if err := n.mailer.Send(msg.CustomerEmail, subject, msg.Text()); err != nil {
		return fmt.Errorf("mail notifier: %w", err)
	}
	return nil
}
