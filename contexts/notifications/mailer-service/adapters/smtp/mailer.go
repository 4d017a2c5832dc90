package smtp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	domainerrors "cakeshop/contexts/notifications/mailer-service/domain/errors"
	"cakeshop/contexts/notifications/mailer-service/ports"

	gomail "github.com/wneessen/go-mail"
)

type Mailer struct {
	client   *gomail.Client
	from     string
	fromName string
	logger   *slog.Logger
}

func NewMailer(client *gomail.Client, from string, fromName string, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{client: client, from: from, fromName: fromName, logger: logger}
}

func (m *Mailer) Send(ctx context.Context, message ports.Message) error {
	if m.client == nil {
		return domainerrors.ErrMailerUnavailable
	}
	msg, err := buildMessage(m.from, m.fromName, message)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	m.logger.Debug("smtp message sent",
		"event", "mailer_smtp_sent",
		"module", "notifications/mailer-service",
		"layer", "adapter",
		"subject", message.Subject,
	)
	return nil
}

func buildMessage(from string, fromName string, message ports.Message) (*gomail.Msg, error) {
	if strings.TrimSpace(message.To) == "" {
		return nil, domainerrors.ErrInvalidRecipient
	}
	msg := gomail.NewMsg()
	if err := msg.FromFormat(fromName, from); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.AddToFormat(message.ToName, message.To); err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrInvalidRecipient, err)
	}
	if strings.TrimSpace(message.ReplyTo) != "" {
		if err := msg.ReplyTo(message.ReplyTo); err != nil {
			return nil, fmt.Errorf("smtp reply-to: %w", err)
		}
	}
	msg.Subject(message.Subject)
	msg.SetBodyString(gomail.TypeTextHTML, message.HTMLBody)
	if message.TextBody != "" {
		msg.AddAlternativeString(gomail.TypeTextPlain, message.TextBody)
	}
	return msg, nil
}

var _ ports.Mailer = (*Mailer)(nil)
