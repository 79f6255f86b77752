package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Role is the label of a roster entry within one event.
type Role string

const (
	RoleHost   Role = "host"
	RoleCoHost Role = "co-host"
	RoleGuest  Role = "guest"
	RoleVendor Role = "vendor"
)

var roles = []Role{RoleHost, RoleCoHost, RoleGuest, RoleVendor}

// Capability is a single fine-grained permission inside one event.
type Capability string

const (
	CapManageEvent     Capability = "manage-event"
	CapManageBudget    Capability = "manage-budget"
	CapManageSubEvents Capability = "manage-sub-events"
	CapManageChannels  Capability = "manage-channels"
	CapManageGuests    Capability = "manage-guests"
	CapInviteGuest     Capability = "invite-guest"
	CapInviteVendor    Capability = "invite-vendor"
	CapViewRoster      Capability = "view-roster"
)

var capabilities = []Capability{
	CapManageEvent,
	CapManageBudget,
	CapManageSubEvents,
	CapManageChannels,
	CapManageGuests,
	CapInviteGuest,
	CapInviteVendor,
	CapViewRoster,
}

// IsValidRole reports whether r belongs to the role registry.
func IsValidRole(r Role) bool {
	return slices.Contains(roles, r)
}

// IsValidCapability reports whether c belongs to the capability registry.
func IsValidCapability(c Capability) bool {
	return slices.Contains(capabilities, c)
}

// ParseRole converts a wire value into a Role. Unknown values return ErrValidation.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(strings.ToLower(s)))
	if !IsValidRole(r) {
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
	return r, nil
}

// ParseCapability converts a wire value into a Capability. Unknown values return ErrValidation.
func ParseCapability(s string) (Capability, error) {
	c := Capability(strings.TrimSpace(strings.ToLower(s)))
	if !IsValidCapability(c) {
		return "", fmt.Errorf("%w: unknown capability %q", ErrValidation, s)
	}
	return c, nil
}

// ParseCapabilities parses every value and returns a normalized set.
// The first unknown value aborts with ErrValidation.
func ParseCapabilities(values []string) (CapabilitySet, error) {
	caps := make([]Capability, 0, len(values))
	for _, v := range values {
		c, err := ParseCapability(v)
		if err != nil {
			return nil, err
		}
		caps = append(caps, c)
	}
	return NewCapabilitySet(caps...), nil
}

// CapabilitySet is a sorted, deduplicated list of capabilities.
// Build it with NewCapabilitySet so the ordering holds.
type CapabilitySet []Capability

// NewCapabilitySet normalizes caps into a set. It never returns nil.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, 0, len(caps))
	for _, c := range caps {
		if !slices.Contains(set, c) {
			set = append(set, c)
		}
	}
	slices.Sort(set)
	return set
}

// AllCapabilities returns a fresh copy of the full registry.
func AllCapabilities() CapabilitySet {
	return NewCapabilitySet(capabilities...)
}

// DefaultCapabilities returns the capabilities conventionally implied by role.
func DefaultCapabilities(role Role) CapabilitySet {
	switch role {
	case RoleHost:
		return AllCapabilities()
	case RoleCoHost:
		return NewCapabilitySet(CapInviteGuest, CapInviteVendor, CapManageChannels, CapManageSubEvents, CapViewRoster)
	case RoleVendor:
		return NewCapabilitySet(CapManageChannels)
	default:
		return NewCapabilitySet()
	}
}

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c Capability) bool {
	return slices.Contains(s, c)
}

// SubsetOf reports whether every capability in s is also in other.
func (s CapabilitySet) SubsetOf(other CapabilitySet) bool {
	for _, c := range s {
		if !other.Has(c) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the set.
func (s CapabilitySet) Clone() CapabilitySet {
	out := make(CapabilitySet, len(s))
	copy(out, s)
	return out
}

// Strings returns the wire values of the set.
func (s CapabilitySet) Strings() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = string(c)
	}
	return out
}

// Validate returns ErrValidation when s holds a capability outside the registry.
func (s CapabilitySet) Validate() error {
	for _, c := range s {
		if !IsValidCapability(c) {
			return fmt.Errorf("%w: unknown capability %q", ErrValidation, c)
		}
	}
	return nil
}
