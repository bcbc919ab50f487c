package email

import (
	"context"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/entity"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// AddressResolver maps a user id to the address mail is sent to. User
// accounts live in a separate service, so the caller supplies the lookup.
type AddressResolver func(ctx context.Context, userID string) (string, error)

// Mailer delivers notifications over SMTP. It implements notifier.Sink for
// the alert paths that request email delivery.
type Mailer struct {
	cfg     *config.SMTPConfig
	resolve AddressResolver
	logger  *zap.Logger
}

func NewMailer(cfg *config.SMTPConfig, resolve AddressResolver, logger *zap.Logger) *Mailer {
	return &Mailer{
		cfg:     cfg,
		resolve: resolve,
		logger:  logger,
	}
}

func (m *Mailer) Notify(ctx context.Context, n *entity.Notification) error {
	if m.cfg.Host == "" || m.cfg.SenderEmail == "" {
		m.logger.Error("SMTP configuration is incomplete. Email not sent.",
			zap.String("host", m.cfg.Host),
			zap.String("sender", m.cfg.SenderEmail))
		return fmt.Errorf("SMTP configuration is incomplete")
	}

	to, err := m.resolve(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("Mailer.Notify: resolve address for %s: %w", n.UserID, err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.SenderEmail)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", n.Title)
	msg.SetBody("text/plain", renderBody(n))

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := d.DialAndSend(msg); err != nil {
		m.logger.Error("Failed to send email",
			zap.Error(err),
			zap.String("to", to),
			zap.String("type", string(n.Type)))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("Email sent successfully",
		zap.String("to", to),
		zap.String("type", string(n.Type)))
	return nil
}

func renderBody(n *entity.Notification) string {
	switch n.Type {
	case entity.NotificationAlertMatch:
		return fmt.Sprintf("A new listing matches your saved search %q: %s",
			n.Payload["search_name"], n.Payload["listing_title"])
	case entity.NotificationMessage:
		return "You have a new message about your listing."
	case entity.NotificationFavorite:
		return "Someone added your listing to their favorites."
	default:
		return n.Title
	}
}
