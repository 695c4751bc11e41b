package notify

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// SMTPConfig carries the relay settings for the SMTP channel.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier delivers report emails through an SMTP relay. Plants
// typically point this at an internal relay that needs no auth.
type SMTPNotifier struct {
	cfg SMTPConfig
}

// NewSMTP creates an SMTP notifier for the given relay.
func NewSMTP(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

// Name returns the notifier type identifier.
func (s *SMTPNotifier) Name() string {
	return "smtp"
}

// Send builds the MIME message and hands it to the relay. Credentials
// are only negotiated when a username is configured.
func (s *SMTPNotifier) Send(ctx context.Context, email Email) error {
	msg, err := s.buildMessage(email)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send smtp message: %w", err)
	}
	return nil
}

func (s *SMTPNotifier) buildMessage(email Email) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("smtp from address: %w", err)
	}
	if err := msg.To(email.To...); err != nil {
		return nil, fmt.Errorf("smtp recipients: %w", err)
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextHTML, email.HTMLBody)
	if email.Attachment.Filename != "" {
		if err := msg.AttachReader(email.Attachment.Filename, bytes.NewReader(email.Attachment.Data)); err != nil {
			return nil, fmt.Errorf("attach %s: %w", email.Attachment.Filename, err)
		}
	}
	return msg, nil
}
