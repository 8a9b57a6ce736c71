// internal/pkg/email/service.go
package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v3"
	"github.com/sirupsen/logrus"

	"github.com/your-org/pouchprint-backend/internal/config"
	"github.com/your-org/pouchprint-backend/internal/domain/order"
)

var ErrNoRecipient = errors.New("email has no recipient")

// sender is the part of the Resend client the service uses
type sender interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Service sends transactional email through Resend
type Service struct {
	cfg     config.EmailConfig
	company config.CompanyConfig
	sender  sender
	log     *logrus.Entry
}

// NewService creates an email service. Sending is a no-op when email is disabled.
func NewService(cfg *config.Config, log *logrus.Logger) *Service {
	s := &Service{
		cfg:     cfg.External.Email,
		company: cfg.Company,
		log:     log.WithField("component", "email"),
	}
	if s.cfg.Enabled && s.cfg.APIKey != "" {
		s.sender = resend.NewClient(s.cfg.APIKey).Emails
	}
	return s
}

// Send delivers one HTML message
func (s *Service) Send(ctx context.Context, to []string, subject, html string) error {
	if len(to) == 0 || to[0] == "" {
		return ErrNoRecipient
	}
	entry := s.log.WithFields(logrus.Fields{"to": to, "subject": subject})
	if s.sender == nil {
		entry.Debug("email disabled, message dropped")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	resp, err := s.sender.Send(&resend.SendEmailRequest{
		From:    s.from(),
		To:      to,
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		entry.WithError(err).Error("failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	entry.WithField("email_id", resp.Id).Info("email sent")
	return nil
}

// SendOrderConfirmation tells the customer their order is confirmed
func (s *Service) SendOrderConfirmation(ctx context.Context, o *order.Order) error {
	html, err := renderOrderConfirmation(s.templateData(o))
	if err != nil {
		return fmt.Errorf("failed to render order confirmation: %w", err)
	}
	subject := fmt.Sprintf("Order Confirmation - %s", o.OrderNumber)
	return s.Send(ctx, []string{o.Email}, subject, html)
}

func (s *Service) from() string {
	if s.cfg.FromName == "" {
		return s.cfg.FromEmail
	}
	return fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)
}
