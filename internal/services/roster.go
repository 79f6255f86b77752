package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventplanner/internal/domain"
)

type rosterService struct {
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	vendorRepo     domain.VendorProfileRepository
	emailService   domain.EmailService
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

func NewRosterService(
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	vendorRepo domain.VendorProfileRepository,
	emailService domain.EmailService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.RosterService {
	return &rosterService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		vendorRepo:     vendorRepo,
		emailService:   emailService,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// InviteGuest adds a pending entry. Nil capabilities fall back to the role defaults.
// Non-host actors can only hand out capabilities they hold themselves.
func (s *rosterService) InviteGuest(ctx context.Context, actor *domain.EventClaims, in domain.InviteGuestInput) (*domain.RosterEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	now := s.now()
	if err := authorizeActor(actor, domain.CapInviteGuest, now); err != nil {
		return nil, err
	}
	if !domain.IsValidRole(in.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, in.Role)
	}
	caps := in.Capabilities
	if caps == nil {
		caps = domain.DefaultCapabilities(in.Role)
	}
	if err := caps.Validate(); err != nil {
		return nil, err
	}
	if !actor.CanGrant(caps) {
		return nil, fmt.Errorf("%w: cannot grant capabilities beyond your own", domain.ErrUnauthorized)
	}
	invitee, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, in.UserID)
		}
		return nil, fmt.Errorf("get invitee: %w", err)
	}

	var entry *domain.RosterEntry
	event, err := s.eventRepo.Update(ctx, actor.EventID, func(e *domain.Event) error {
		var err error
		entry, err = e.InviteGuest(in.UserID, in.Role, caps, now.UTC())
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.emailService.SendGuestInvitation(ctx, &domain.GuestInvitationEmailData{
		Email:     invitee.Email,
		GuestName: invitee.Name,
		EventName: event.Name,
		EventID:   event.ID,
		Role:      entry.Role,
	}); err != nil {
		s.logger.WarnContext(ctx, "guest invitation email failed", "event_id", event.ID, "user_id", in.UserID, "error", err)
	}
	return entry, nil
}

func (s *rosterService) UpdateGuestCapabilities(ctx context.Context, actor *domain.EventClaims, userID string, caps domain.CapabilitySet) (*domain.RosterEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	now := s.now()
	if err := authorizeActor(actor, domain.CapManageGuests, now); err != nil {
		return nil, err
	}
	if caps == nil {
		caps = domain.NewCapabilitySet()
	}
	if err := caps.Validate(); err != nil {
		return nil, err
	}
	if !actor.CanGrant(caps) {
		return nil, fmt.Errorf("%w: cannot grant capabilities beyond your own", domain.ErrUnauthorized)
	}

	var entry *domain.RosterEntry
	_, err := s.eventRepo.Update(ctx, actor.EventID, func(e *domain.Event) error {
		var err error
		entry, err = e.UpdateGuestCapabilities(userID, caps, now.UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// RespondToGuestInvite answers the invitation addressed to userID, the authenticated caller.
func (s *rosterService) RespondToGuestInvite(ctx context.Context, eventID, userID string, accept bool) (*domain.RosterEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	now := s.now().UTC()
	var entry *domain.RosterEntry
	_, err := s.eventRepo.Update(ctx, eventID, func(e *domain.Event) error {
		var err error
		entry, err = e.RespondToGuestInvite(userID, accept, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *rosterService) OfferService(ctx context.Context, actor *domain.EventClaims, in domain.OfferServiceInput) (*domain.ServiceOffer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	now := s.now()
	if err := authorizeActor(actor, domain.CapInviteVendor, now); err != nil {
		return nil, err
	}
	profile, err := s.vendorRepo.GetByID(ctx, in.VendorProfileID)
	if err != nil {
		return nil, err
	}

	var offer *domain.ServiceOffer
	event, err := s.eventRepo.Update(ctx, actor.EventID, func(e *domain.Event) error {
		var err error
		offer, err = e.OfferService(profile.ID, in.SubEventIDs, in.ServiceID, now.UTC())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifyVendor(ctx, event, profile, offer)
	return offer, nil
}

func (s *rosterService) notifyVendor(ctx context.Context, event *domain.Event, profile *domain.VendorProfile, offer *domain.ServiceOffer) {
	owner, err := s.userRepo.GetByID(ctx, profile.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "vendor owner lookup failed", "vendor_profile_id", profile.ID, "error", err)
		return
	}
	subEvents := make([]string, 0, len(offer.SubEventIDs))
	for _, sub := range event.SubEvents {
		for _, id := range offer.SubEventIDs {
			if sub.ID == id {
				subEvents = append(subEvents, sub.Name)
			}
		}
	}
	if err := s.emailService.SendServiceOffer(ctx, &domain.ServiceOfferEmailData{
		Email:        owner.Email,
		BusinessName: profile.BusinessName,
		EventName:    event.Name,
		EventID:      event.ID,
		ServiceID:    offer.ServiceID,
		SubEvents:    subEvents,
	}); err != nil {
		s.logger.WarnContext(ctx, "service offer email failed", "event_id", event.ID, "offer_id", offer.ID, "error", err)
	}
}

// RespondToServiceOffer answers an offer on behalf of the vendor profile owned by userID.
func (s *rosterService) RespondToServiceOffer(ctx context.Context, eventID, offerID, userID string, accept bool) (*domain.ServiceOffer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	profile, err := s.vendorRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s has no vendor profile", domain.ErrForbidden, userID)
		}
		return nil, err
	}

	now := s.now().UTC()
	var offer *domain.ServiceOffer
	_, err = s.eventRepo.Update(ctx, eventID, func(e *domain.Event) error {
		current, ok := e.Offer(offerID)
		if !ok {
			return fmt.Errorf("%w: offer %s on event %s", domain.ErrNotFound, offerID, eventID)
		}
		if current.VendorProfileID != profile.ID {
			return fmt.Errorf("%w: offer %s is addressed to another vendor", domain.ErrForbidden, offerID)
		}
		var err error
		offer, err = e.RespondToServiceOffer(offerID, accept, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return offer, nil
}

func (s *rosterService) ListGuests(ctx context.Context, actor *domain.EventClaims) ([]*domain.RosterEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := authorizeActor(actor, domain.CapViewRoster, s.now()); err != nil {
		return nil, err
	}
	event, err := s.eventRepo.GetByID(ctx, actor.EventID)
	if err != nil {
		return nil, err
	}
	return event.Guests, nil
}

func (s *rosterService) ListServiceOffers(ctx context.Context, actor *domain.EventClaims) ([]*domain.ServiceOffer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := authorizeActor(actor, domain.CapViewRoster, s.now()); err != nil {
		return nil, err
	}
	event, err := s.eventRepo.GetByID(ctx, actor.EventID)
	if err != nil {
		return nil, err
	}
	return event.ServiceOffers, nil
}
