package services

import (
	"context"
	"fmt"
	"time"

	"eventplanner/internal/domain"
)

type authorizer struct {
	eventRepo      domain.EventRepository
	signer         domain.EventTokenSigner
	tokenTTL       time.Duration
	contextTimeout time.Duration
	now            func() time.Time
}

// NewAuthorizer returns the Authorizer that resolves memberships from eventRepo
// and mints tokens valid for tokenTTL.
func NewAuthorizer(eventRepo domain.EventRepository, signer domain.EventTokenSigner, tokenTTL, timeout time.Duration) domain.Authorizer {
	return &authorizer{
		eventRepo:      eventRepo,
		signer:         signer,
		tokenTTL:       tokenTTL,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (a *authorizer) Resolve(ctx context.Context, eventID, userID string) (domain.Membership, error) {
	ctx, cancel := context.WithTimeout(ctx, a.contextTimeout)
	defer cancel()

	event, err := a.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return domain.Membership{}, err
	}
	return event.Resolve(userID)
}

// MintToken re-reads the roster on every call; the returned claims are a
// snapshot and do not follow later roster changes.
func (a *authorizer) MintToken(ctx context.Context, eventID, userID string) (string, *domain.EventClaims, error) {
	m, err := a.Resolve(ctx, eventID, userID)
	if err != nil {
		return "", nil, err
	}
	// exp is signed in whole seconds; the returned copy must match it.
	exp := a.now().Add(a.tokenTTL).UTC().Truncate(time.Second)
	claims := m.Claims(eventID, exp)
	token, err := a.signer.Sign(claims)
	if err != nil {
		return "", nil, fmt.Errorf("sign event token: %w", err)
	}
	return token, &claims, nil
}

func (a *authorizer) Verify(ctx context.Context, token string) (*domain.EventClaims, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.signer.Parse(token)
}

func (a *authorizer) Authorize(ctx context.Context, token string, required domain.Capability) (*domain.EventClaims, error) {
	claims, err := a.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := claims.Authorize(required, a.now()); err != nil {
		return nil, err
	}
	return claims, nil
}
