package domain

import (
	"fmt"
	"time"
)

// EventClaims is the immutable content of an event token. It is a copy
// taken at mint time and never tracks later roster changes.
type EventClaims struct {
	EventID      string        `json:"event_id"`
	UserID       string        `json:"-"`
	Role         Role          `json:"role"`
	IsHost       bool          `json:"is_host"`
	Capabilities CapabilitySet `json:"capabilities"`
	ExpiresAt    time.Time     `json:"expires_at"`
}

// Expired reports whether the claims are no longer valid at now.
func (c EventClaims) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Authorize checks expiry first, then requires isHost or required in the snapshot.
func (c EventClaims) Authorize(required Capability, now time.Time) error {
	if c.Expired(now) {
		return ErrTokenExpired
	}
	if c.IsHost || c.Capabilities.Has(required) {
		return nil
	}
	return fmt.Errorf("%w: missing capability %q", ErrUnauthorized, required)
}

// CanGrant reports whether the token holder may hand caps to someone else.
func (c EventClaims) CanGrant(caps CapabilitySet) bool {
	return c.IsHost || caps.SubsetOf(c.Capabilities)
}

// EventTokenSigner turns claims into a signed string and back.
// Parse returns ErrTokenExpired for expired tokens and ErrUnauthorized for anything else invalid.
type EventTokenSigner interface {
	Sign(claims EventClaims) (string, error)
	Parse(token string) (*EventClaims, error)
}
