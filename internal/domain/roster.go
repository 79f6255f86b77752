package domain

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a guest entry or service offer.
// Pending is the only non-terminal state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

// ParseStatus converts a stored value into a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusAccepted, StatusDeclined:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	return s != StatusPending
}

func respond(current Status, accept bool) (Status, error) {
	if current.Terminal() {
		return current, fmt.Errorf("%w: entry is already %s", ErrInvalidTransition, current)
	}
	if accept {
		return StatusAccepted, nil
	}
	return StatusDeclined, nil
}

// RosterEntry is one user's standing on an event's guest roster.
// swagger:model RosterEntry
type RosterEntry struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	Role         Role          `json:"role"`
	Capabilities CapabilitySet `json:"capabilities"`
	Status       Status        `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (r *RosterEntry) clone() *RosterEntry {
	out := *r
	out.Capabilities = r.Capabilities.Clone()
	return &out
}

// ServiceOffer is a vendor engagement for one service across a set of sub-events.
// swagger:model ServiceOffer
type ServiceOffer struct {
	ID              string    `json:"id"`
	VendorProfileID string    `json:"vendor_profile_id"`
	SubEventIDs     []string  `json:"sub_event_ids"`
	ServiceID       string    `json:"service_id"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (o *ServiceOffer) clone() *ServiceOffer {
	out := *o
	out.SubEventIDs = slices.Clone(o.SubEventIDs)
	return &out
}

var newID = uuid.NewString

// Guest returns the roster entry of userID, whatever its status.
func (e *Event) Guest(userID string) (*RosterEntry, bool) {
	for _, g := range e.Guests {
		if g.UserID == userID {
			return g, true
		}
	}
	return nil, false
}

// Offer returns the service offer with the given id.
func (e *Event) Offer(offerID string) (*ServiceOffer, bool) {
	for _, o := range e.ServiceOffers {
		if o.ID == offerID {
			return o, true
		}
	}
	return nil, false
}

// SeedHost inserts the host entry with the full capability set. It returns
// false without changing e when the host is already on the roster.
func (e *Event) SeedHost(now time.Time) bool {
	if _, ok := e.Guest(e.HostID); ok {
		return false
	}
	e.Guests = append(e.Guests, &RosterEntry{
		ID:           newID(),
		UserID:       e.HostID,
		Role:         RoleHost,
		Capabilities: AllCapabilities(),
		Status:       StatusAccepted,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return true
}

// InviteGuest appends a pending entry for userID. Whether the inviter may grant caps
// is decided by the caller; this only guards roster structure.
func (e *Event) InviteGuest(userID string, role Role, caps CapabilitySet, now time.Time) (*RosterEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user is required", ErrValidation)
	}
	if !IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	if role == RoleHost {
		return nil, fmt.Errorf("%w: role %q cannot be invited", ErrValidation, role)
	}
	if err := caps.Validate(); err != nil {
		return nil, err
	}
	if _, ok := e.Guest(userID); ok {
		return nil, fmt.Errorf("%w: user %s", ErrDuplicateMembership, userID)
	}
	entry := &RosterEntry{
		ID:           newID(),
		UserID:       userID,
		Role:         role,
		Capabilities: NewCapabilitySet(caps...),
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	e.Guests = append(e.Guests, entry)
	e.UpdatedAt = now
	return entry, nil
}

// RespondToGuestInvite moves userID's pending entry to accepted or declined.
func (e *Event) RespondToGuestInvite(userID string, accept bool, now time.Time) (*RosterEntry, error) {
	entry, ok := e.Guest(userID)
	if !ok {
		return nil, fmt.Errorf("%w: no invitation for user %s", ErrNotFound, userID)
	}
	next, err := respond(entry.Status, accept)
	if err != nil {
		return nil, err
	}
	entry.Status = next
	entry.UpdatedAt = now
	e.UpdatedAt = now
	return entry, nil
}

// UpdateGuestCapabilities replaces the capability set of userID's entry.
// The host entry is fixed at creation and cannot be changed.
func (e *Event) UpdateGuestCapabilities(userID string, caps CapabilitySet, now time.Time) (*RosterEntry, error) {
	if err := caps.Validate(); err != nil {
		return nil, err
	}
	if userID == e.HostID {
		return nil, fmt.Errorf("%w: host capabilities cannot be changed", ErrValidation)
	}
	entry, ok := e.Guest(userID)
	if !ok {
		return nil, fmt.Errorf("%w: no roster entry for user %s", ErrNotFound, userID)
	}
	entry.Capabilities = NewCapabilitySet(caps...)
	entry.UpdatedAt = now
	e.UpdatedAt = now
	return entry, nil
}

// OfferService appends a pending offer. A vendor may hold any number of offers per event.
func (e *Event) OfferService(vendorProfileID string, subEventIDs []string, serviceID string, now time.Time) (*ServiceOffer, error) {
	if strings.TrimSpace(vendorProfileID) == "" {
		return nil, fmt.Errorf("%w: vendor profile is required", ErrValidation)
	}
	if strings.TrimSpace(serviceID) == "" {
		return nil, fmt.Errorf("%w: service is required", ErrValidation)
	}
	subs := make([]string, 0, len(subEventIDs))
	for _, id := range subEventIDs {
		if !e.hasSubEvent(id) {
			return nil, fmt.Errorf("%w: sub-event %s does not belong to event %s", ErrValidation, id, e.ID)
		}
		if !slices.Contains(subs, id) {
			subs = append(subs, id)
		}
	}
	offer := &ServiceOffer{
		ID:              newID(),
		VendorProfileID: vendorProfileID,
		SubEventIDs:     subs,
		ServiceID:       serviceID,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	e.ServiceOffers = append(e.ServiceOffers, offer)
	e.UpdatedAt = now
	return offer, nil
}

// RespondToServiceOffer moves the offer to accepted or declined.
func (e *Event) RespondToServiceOffer(offerID string, accept bool, now time.Time) (*ServiceOffer, error) {
	offer, ok := e.Offer(offerID)
	if !ok {
		return nil, fmt.Errorf("%w: offer %s on event %s", ErrNotFound, offerID, e.ID)
	}
	next, err := respond(offer.Status, accept)
	if err != nil {
		return nil, err
	}
	offer.Status = next
	offer.UpdatedAt = now
	e.UpdatedAt = now
	return offer, nil
}

// InviteGuestInput carries an invitation request. A nil Capabilities means
// "use the role defaults"; an empty, non-nil set grants nothing.
type InviteGuestInput struct {
	UserID       string
	Role         Role
	Capabilities CapabilitySet
}

// OfferServiceInput carries a service offer request.
type OfferServiceInput struct {
	VendorProfileID string
	SubEventIDs     []string
	ServiceID       string
}

// RosterService defines roster mutations. Actor-scoped calls take the verified
// event claims of the caller; responses act for the authenticated user.
type RosterService interface {
	InviteGuest(ctx context.Context, actor *EventClaims, in InviteGuestInput) (*RosterEntry, error)
	UpdateGuestCapabilities(ctx context.Context, actor *EventClaims, userID string, caps CapabilitySet) (*RosterEntry, error)
	RespondToGuestInvite(ctx context.Context, eventID, userID string, accept bool) (*RosterEntry, error)
	OfferService(ctx context.Context, actor *EventClaims, in OfferServiceInput) (*ServiceOffer, error)
	RespondToServiceOffer(ctx context.Context, eventID, offerID, userID string, accept bool) (*ServiceOffer, error)
	ListGuests(ctx context.Context, actor *EventClaims) ([]*RosterEntry, error)
	ListServiceOffers(ctx context.Context, actor *EventClaims) ([]*ServiceOffer, error)
}
