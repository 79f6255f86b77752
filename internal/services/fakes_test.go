package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"eventplanner/internal/domain"
	"eventplanner/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

var (
	testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	testNow    = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
)

func fixedClock() time.Time { return testNow }

// fakeEmailService records what would have been sent.
type fakeEmailService struct {
	mu      sync.Mutex
	guests  []*domain.GuestInvitationEmailData
	vendors []*domain.ServiceOfferEmailData
	err     error
}

func (f *fakeEmailService) SendGuestInvitation(ctx context.Context, data *domain.GuestInvitationEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guests = append(f.guests, data)
	return f.err
}

func (f *fakeEmailService) SendServiceOffer(ctx context.Context, data *domain.ServiceOfferEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vendors = append(f.vendors, data)
	return f.err
}

// fakePasswordHasher implements domain.PasswordHasher for tests.
type fakePasswordHasher struct {
	salt string
}

func (f *fakePasswordHasher) GenerateSalt() (string, error) { return f.salt, nil }
func (f *fakePasswordHasher) Hash(salt, password string) (string, error) {
	return "hash-" + salt + password, nil
}
func (f *fakePasswordHasher) Compare(hash, salt, password string) error {
	if hash != "hash-"+salt+password {
		return errors.New("mismatch")
	}
	return nil
}

// fakeTokenIssuer implements domain.TokenIssuer for tests.
type fakeTokenIssuer struct {
	err error
}

func (f *fakeTokenIssuer) Issue(userID, email string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-" + userID, nil
}

// fixture wires the services over the in-memory repositories with one event,
// ev-1, hosted by host-1.
type fixture struct {
	events  domain.EventRepository
	users   domain.UserRepository
	vendors domain.VendorProfileRepository
	email   *fakeEmailService
	roster  *rosterService
	event   *eventService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		events:  memory.NewEventRepository(),
		users:   memory.NewUserRepository(),
		vendors: memory.NewVendorProfileRepository(),
		email:   &fakeEmailService{},
	}
	for _, id := range []string{"host-1", "u1", "u2", "u3", "vendor-owner"} {
		require.NoError(t, f.users.Create(ctx, &domain.User{ID: id, Email: id + "@example.com", Name: id}))
	}
	require.NoError(t, f.vendors.Create(ctx, &domain.VendorProfile{ID: "vp-1", UserID: "vendor-owner", BusinessName: "Blooms"}))

	e, err := domain.NewEvent("ev-1", "Wedding", "host-1", testNow, testNow.Add(48*time.Hour), 5000, testNow)
	require.NoError(t, err)
	e.SeedHost(testNow)
	require.NoError(t, f.events.Create(ctx, e))

	f.roster = NewRosterService(f.events, f.users, f.vendors, f.email, testLogger, time.Second).(*rosterService)
	f.roster.now = fixedClock
	f.event = NewEventService(f.events, NewNotifier(f.events, time.Second), time.Second).(*eventService)
	f.event.now = fixedClock
	return f
}

func hostClaims() *domain.EventClaims {
	return &domain.EventClaims{
		EventID:      "ev-1",
		UserID:       "host-1",
		Role:         domain.RoleHost,
		IsHost:       true,
		Capabilities: domain.AllCapabilities(),
		ExpiresAt:    testNow.Add(time.Hour),
	}
}

func claimsWith(userID string, caps ...domain.Capability) *domain.EventClaims {
	return &domain.EventClaims{
		EventID:      "ev-1",
		UserID:       userID,
		Role:         domain.RoleCoHost,
		Capabilities: domain.NewCapabilitySet(caps...),
		ExpiresAt:    testNow.Add(time.Hour),
	}
}
