package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"eventplanner/internal/domain"
)

// eventTokenClaims is the wire shape of an event token:
// {eventId, role, isHost, capabilities, exp}. Nothing else is encoded.
type eventTokenClaims struct {
	EventID      string   `json:"eventId"`
	Role         string   `json:"role"`
	IsHost       bool     `json:"isHost"`
	Capabilities []string `json:"capabilities"`
	jwt.RegisteredClaims
}

type eventTokenSigner struct {
	secret []byte
	now    func() time.Time
}

// NewEventTokenSigner returns an HS256 EventTokenSigner. A nil clock means time.Now.
func NewEventTokenSigner(secret string, now func() time.Time) domain.EventTokenSigner {
	if now == nil {
		now = time.Now
	}
	return &eventTokenSigner{secret: []byte(secret), now: now}
}

func (s *eventTokenSigner) Sign(c domain.EventClaims) (string, error) {
	if c.EventID == "" {
		return "", fmt.Errorf("%w: event id is required", domain.ErrValidation)
	}
	caps := c.Capabilities.Strings()
	claims := eventTokenClaims{
		EventID:      c.EventID,
		Role:         string(c.Role),
		IsHost:       c.IsHost,
		Capabilities: caps,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign event token: %w", err)
	}
	return signed, nil
}

func (s *eventTokenSigner) Parse(tokenString string) (*domain.EventClaims, error) {
	claims := &eventTokenClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if claims.EventID == "" {
		return nil, fmt.Errorf("%w: token has no event", domain.ErrUnauthorized)
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	caps, err := domain.ParseCapabilities(claims.Capabilities)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return &domain.EventClaims{
		EventID:      claims.EventID,
		Role:         role,
		IsHost:       claims.IsHost,
		Capabilities: caps,
		ExpiresAt:    claims.ExpiresAt.UTC(),
	}, nil
}
