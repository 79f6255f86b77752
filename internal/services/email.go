package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventplanner/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendGuestInvitation sends the "guest_invitation" template to the invited user.
func (s *emailService) SendGuestInvitation(ctx context.Context, data *domain.GuestInvitationEmailData) error {
	if data == nil {
		return fmt.Errorf("guest invitation data is nil")
	}
	return s.send(ctx, "guest_invitation", data.Email, data)
}

// SendServiceOffer sends the "service_offer" template to the vendor profile owner.
func (s *emailService) SendServiceOffer(ctx context.Context, data *domain.ServiceOfferEmailData) error {
	if data == nil {
		return fmt.Errorf("service offer data is nil")
	}
	return s.send(ctx, "service_offer", data.Email, data)
}

func (s *emailService) send(ctx context.Context, template, to string, data any) error {
	subject, htmlBody, textBody, err := s.renderer.Render(template, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", template, err)
	}
	if err := s.mailer.Send(ctx, to, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send %s email: %w", template, err)
	}
	s.logger.InfoContext(ctx, "email sent", "template", template, "to", to)
	return nil
}
