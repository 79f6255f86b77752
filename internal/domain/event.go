package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Event is a hosted occasion. It exclusively owns its guest roster,
// its service offers and its sub-events; none of them outlive it.
// swagger:model Event
type Event struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	HostID        string          `json:"host_id"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	Budget        float64         `json:"budget"`
	Guests        []*RosterEntry  `json:"guests"`
	ServiceOffers []*ServiceOffer `json:"service_offers"`
	SubEvents     []*SubEvent     `json:"sub_events"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// SubEvent is a constituent occasion of an event, used to scope service offers.
// swagger:model SubEvent
type SubEvent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Venue     string    `json:"venue"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// EventSummary is the roster-free projection of an event used in listings and notifications.
// swagger:model EventSummary
type EventSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	HostID    string    `json:"host_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Budget    float64   `json:"budget"`
}

// NewEvent validates its arguments and returns an event without roster entries.
// Callers are expected to SeedHost before persisting it.
func NewEvent(id, name, hostID string, start, end time.Time, budget float64, now time.Time) (*Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if hostID == "" {
		return nil, fmt.Errorf("%w: host is required", ErrValidation)
	}
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: start and end dates are required", ErrValidation)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date is before start date", ErrValidation)
	}
	if budget < 0 {
		return nil, fmt.Errorf("%w: budget must not be negative", ErrValidation)
	}
	return &Event{
		ID:            id,
		Name:          name,
		HostID:        hostID,
		StartDate:     start,
		EndDate:       end,
		Budget:        budget,
		Guests:        []*RosterEntry{},
		ServiceOffers: []*ServiceOffer{},
		SubEvents:     []*SubEvent{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Summary returns the roster-free view of e.
func (e *Event) Summary() *EventSummary {
	return &EventSummary{
		ID:        e.ID,
		Name:      e.Name,
		HostID:    e.HostID,
		StartDate: e.StartDate,
		EndDate:   e.EndDate,
		Budget:    e.Budget,
	}
}

// Clone returns a deep copy of e. Repositories hand out clones so that
// no caller holds a live reference into stored roster rows.
func (e *Event) Clone() *Event {
	out := *e
	out.Guests = make([]*RosterEntry, len(e.Guests))
	for i, g := range e.Guests {
		out.Guests[i] = g.clone()
	}
	out.ServiceOffers = make([]*ServiceOffer, len(e.ServiceOffers))
	for i, o := range e.ServiceOffers {
		out.ServiceOffers[i] = o.clone()
	}
	out.SubEvents = make([]*SubEvent, len(e.SubEvents))
	for i, s := range e.SubEvents {
		sub := *s
		out.SubEvents[i] = &sub
	}
	return &out
}

// AddSubEvent appends a sub-event owned by e.
func (e *Event) AddSubEvent(name, venue string, start, end, now time.Time) (*SubEvent, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: sub-event name is required", ErrValidation)
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return nil, fmt.Errorf("%w: sub-event end date is before start date", ErrValidation)
	}
	sub := &SubEvent{
		ID:        newID(),
		Name:      name,
		Venue:     strings.TrimSpace(venue),
		StartDate: start,
		EndDate:   end,
	}
	e.SubEvents = append(e.SubEvents, sub)
	e.UpdatedAt = now
	return sub, nil
}

func (e *Event) hasSubEvent(id string) bool {
	for _, s := range e.SubEvents {
		if s.ID == id {
			return true
		}
	}
	return false
}

// EventRepository defines the interface for event storage.
// Update applies mutate atomically against the current stored state; mutate may be
// invoked more than once when a concurrent writer wins, so it must only touch the event it is given.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, id string, mutate func(*Event) error) (*Event, error)
	Delete(ctx context.Context, id string) error
	ListByMember(ctx context.Context, userID string) ([]*EventSummary, error)
	ListByAcceptedVendor(ctx context.Context, vendorProfileID string) ([]*EventSummary, error)
	ListPendingIDs(ctx context.Context, userID, vendorProfileID string) ([]string, error)
}

// CreateEventInput carries the host-supplied fields of a new event.
type CreateEventInput struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Budget    float64
}

// AddSubEventInput carries the fields of a new sub-event.
type AddSubEventInput struct {
	Name      string
	Venue     string
	StartDate time.Time
	EndDate   time.Time
}

// Dashboard is everything a signed-in user sees on their home screen.
type Dashboard struct {
	Events        []*EventSummary `json:"events"`
	ServiceEvents []*EventSummary `json:"service_events"`
	Notifications Notifications   `json:"notifications"`
}

// EventService defines event lifecycle operations.
type EventService interface {
	CreateEvent(ctx context.Context, hostID string, in CreateEventInput) (*Event, error)
	GetEvent(ctx context.Context, actor *EventClaims) (*Event, error)
	DeleteEvent(ctx context.Context, eventID, userID string) error
	AddSubEvent(ctx context.Context, actor *EventClaims, in AddSubEventInput) (*SubEvent, error)
	ListForUser(ctx context.Context, userID, vendorProfileID string) (*Dashboard, error)
}
