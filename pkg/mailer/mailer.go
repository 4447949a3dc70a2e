package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/MarivaldoDev/sistema-escolar/pkg/config"
)

// Mailer delivers transactional mail. Delivery is best effort: callers are
// expected to log failures and move on, never to roll back on them.
type Mailer interface {
	SendWelcome(ctx context.Context, name, email, registrationNumber string) error
}

// New returns a SendGrid-backed mailer when an API key is configured, and a
// log-only mailer otherwise.
func New(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SendGridKey == "" {
		return &logMailer{logger: logger}
	}
	return &sendGridMailer{
		client: sendgrid.NewSendClient(cfg.SendGridKey),
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
		logger: logger,
	}
}

type sendGridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
	logger *zap.Logger
}

func (m *sendGridMailer) SendWelcome(ctx context.Context, name, email, registrationNumber string) error {
	subject := "Bem-vindo ao Sistema Escolar"
	body := fmt.Sprintf(
		"Olá %s,\n\nBem-vindo ao nosso sistema escolar!\nSua matrícula é %s. Guarde-a com cuidado!",
		name, registrationNumber,
	)
	message := sgmail.NewSingleEmail(m.from, subject, sgmail.NewEmail(name, email), body, "")

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send welcome mail: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("send welcome mail: sendgrid status %d", resp.StatusCode)
	}
	m.logger.Debug("welcome mail sent", zap.String("email", email))
	return nil
}

// logMailer writes the message to the log instead of delivering it. Used in
// development and in tests.
type logMailer struct {
	logger *zap.Logger
}

func (m *logMailer) SendWelcome(_ context.Context, name, email, registrationNumber string) error {
	m.logger.Info("welcome mail (not sent, no mail provider configured)",
		zap.String("name", name),
		zap.String("email", email),
		zap.String("registration_number", registrationNumber),
	)
	return nil
}
