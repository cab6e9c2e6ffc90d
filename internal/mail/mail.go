// mail — отправка писем приложения (ссылки подтверждения e-mail).
// Доставка по SMTP вне рамок проекта: LogMailer только пишет письмо в лог.
package mail

import (
	"context"
	"log/slog"

	"github.com/pribylovaa/go-login-boilerplate/internal/pkg/log"
	"github.com/pribylovaa/go-login-boilerplate/internal/pkg/redact"
)

// Message — письмо для отправки.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer доставляет письма.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer пишет письма в лог вместо отправки.
// В окружениях local/dev тело письма (со ссылкой) логируется целиком.
type LogMailer struct {
	withBody bool
}

func NewLogMailer(withBody bool) *LogMailer {
	return &LogMailer{withBody: withBody}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	attrs := []any{
		slog.String("to", redact.Email(msg.To)),
		slog.String("subject", msg.Subject),
	}
	if m.withBody {
		attrs = append(attrs, slog.String("body", msg.Body))
	}

	log.From(ctx).Info("mail_dispatched", attrs...)
	return nil
}

var _ Mailer = (*LogMailer)(nil)
