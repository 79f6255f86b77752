package domain

import (
	"context"
	"fmt"
	"time"
)

// Membership is a user's effective standing in one event.
type Membership struct {
	UserID       string        `json:"user_id"`
	Role         Role          `json:"role"`
	Capabilities CapabilitySet `json:"capabilities"`
	IsHost       bool          `json:"is_host"`
}

// Resolve maps userID to its effective role and capabilities in e.
// The host always resolves to the full set, whatever the roster holds.
// Pending and declined entries give no standing.
func (e *Event) Resolve(userID string) (Membership, error) {
	if userID != "" && userID == e.HostID {
		return Membership{
			UserID:       userID,
			Role:         RoleHost,
			Capabilities: AllCapabilities(),
			IsHost:       true,
		}, nil
	}
	entry, ok := e.Guest(userID)
	if !ok || entry.Status != StatusAccepted {
		return Membership{}, fmt.Errorf("%w: user %s, event %s", ErrNotMember, userID, e.ID)
	}
	return Membership{
		UserID:       userID,
		Role:         entry.Role,
		Capabilities: entry.Capabilities.Clone(),
		IsHost:       false,
	}, nil
}

// Claims snapshots m into event token claims that expire at exp.
func (m Membership) Claims(eventID string, exp time.Time) EventClaims {
	return EventClaims{
		EventID:      eventID,
		UserID:       m.UserID,
		Role:         m.Role,
		IsHost:       m.IsHost,
		Capabilities: m.Capabilities.Clone(),
		ExpiresAt:    exp,
	}
}

// Authorizer is the only component allowed to mint event tokens.
type Authorizer interface {
	Resolve(ctx context.Context, eventID, userID string) (Membership, error)
	MintToken(ctx context.Context, eventID, userID string) (string, *EventClaims, error)
	Verify(ctx context.Context, token string) (*EventClaims, error)
	Authorize(ctx context.Context, token string, required Capability) (*EventClaims, error)
}
