package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"eventplanner/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	notifier       domain.Notifier
	contextTimeout time.Duration
	now            func() time.Time
}

func NewEventService(eventRepo domain.EventRepository, notifier domain.Notifier, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		notifier:       notifier,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, hostID string, in domain.CreateEventInput) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	now := s.now().UTC()
	event, err := domain.NewEvent(uuid.NewString(), in.Name, hostID, in.StartDate, in.EndDate, in.Budget, now)
	if err != nil {
		return nil, err
	}
	event.SeedHost(now)
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, actor *domain.EventClaims) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := checkActor(actor, s.now()); err != nil {
		return nil, err
	}
	event, err := s.eventRepo.GetByID(ctx, actor.EventID)
	if err != nil {
		return nil, err
	}
	// Roster and offers are view-roster data; everyone else sees the event and its sub-events.
	if !actor.IsHost && !actor.Capabilities.Has(domain.CapViewRoster) {
		event.Guests = []*domain.RosterEntry{}
		event.ServiceOffers = []*domain.ServiceOffer{}
	}
	return event, nil
}

// DeleteEvent removes the event with its whole roster. Only the host may do this.
func (s *eventService) DeleteEvent(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.HostID != userID {
		return fmt.Errorf("%w: only the host can delete event %s", domain.ErrForbidden, eventID)
	}
	return s.eventRepo.Delete(ctx, eventID)
}

func (s *eventService) AddSubEvent(ctx context.Context, actor *domain.EventClaims, in domain.AddSubEventInput) (*domain.SubEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	now := s.now()
	if err := authorizeActor(actor, domain.CapManageSubEvents, now); err != nil {
		return nil, err
	}
	var sub *domain.SubEvent
	_, err := s.eventRepo.Update(ctx, actor.EventID, func(e *domain.Event) error {
		var err error
		sub, err = e.AddSubEvent(in.Name, in.Venue, in.StartDate, in.EndDate, now.UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *eventService) ListForUser(ctx context.Context, userID, vendorProfileID string) (*domain.Dashboard, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	serviceEvents := []*domain.EventSummary{}
	if vendorProfileID != "" {
		serviceEvents, err = s.eventRepo.ListByAcceptedVendor(ctx, vendorProfileID)
		if err != nil {
			return nil, fmt.Errorf("list service events: %w", err)
		}
	}
	notifications, err := s.notifier.Project(ctx, userID, vendorProfileID)
	if err != nil {
		return nil, err
	}
	return &domain.Dashboard{
		Events:        events,
		ServiceEvents: serviceEvents,
		Notifications: notifications,
	}, nil
}

func checkActor(actor *domain.EventClaims, now time.Time) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}
	if actor.Expired(now) {
		return domain.ErrTokenExpired
	}
	return nil
}

func authorizeActor(actor *domain.EventClaims, required domain.Capability, now time.Time) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}
	return actor.Authorize(required, now)
}
