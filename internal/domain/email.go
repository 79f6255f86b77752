package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// GuestInvitationEmailData holds data for the guest invitation email.
type GuestInvitationEmailData struct {
	Email     string
	GuestName string
	EventName string
	EventID   string
	Role      Role
}

// ServiceOfferEmailData holds data for the vendor service offer email.
type ServiceOfferEmailData struct {
	Email        string
	BusinessName string
	EventName    string
	EventID      string
	ServiceID    string
	SubEvents    []string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendGuestInvitation(ctx context.Context, data *GuestInvitationEmailData) error
	SendServiceOffer(ctx context.Context, data *ServiceOfferEmailData) error
}
