package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/delivery/http/middleware"
	"eventplanner/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// request describes one call through a ServeMux so path values resolve.
type request struct {
	method  string
	pattern string
	path    string
	body    any
	userID  string
	claims  *domain.EventClaims
}

func serve(t *testing.T, handler http.HandlerFunc, req request) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader = http.NoBody
	switch b := req.body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	r := httptest.NewRequest(req.method, req.path, body)
	ctx := r.Context()
	if req.userID != "" {
		ctx = middleware.SetUserID(ctx, req.userID)
	}
	if req.claims != nil {
		ctx = middleware.SetEventClaims(ctx, req.claims)
	}
	r = r.WithContext(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc(req.method+" "+req.pattern, handler)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, r)
	return rr
}

// decode unmarshals the envelope; data is decoded into dest when non-nil.
func decode(t *testing.T, rr *httptest.ResponseRecorder, dest any) *helpers.APIError {
	t.Helper()
	var envelope struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	if dest != nil && envelope.Error == nil {
		require.NoError(t, json.Unmarshal(envelope.Data, dest))
	}
	return envelope.Error
}

func hostClaims() *domain.EventClaims {
	return &domain.EventClaims{
		EventID:      "ev-1",
		Role:         domain.RoleHost,
		IsHost:       true,
		Capabilities: domain.AllCapabilities(),
		ExpiresAt:    testNow.Add(time.Hour),
	}
}

type fakeAuthService struct {
	user      *domain.User
	token     string
	err       error
	lastEmail string
	lastName  string
}

func (f *fakeAuthService) SignUp(_ context.Context, email, _, name string) (*domain.User, error) {
	f.lastEmail, f.lastName = email, name
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeAuthService) Login(_ context.Context, email, _ string) (string, *domain.User, error) {
	f.lastEmail = email
	if f.err != nil {
		return "", nil, f.err
	}
	return f.token, f.user, nil
}

type fakeUserService struct {
	user        *domain.User
	userErr     error
	profile     *domain.VendorProfile
	profileErr  error
	becomeErr   error
	updateErr   error
	lastName    string
	updatedName string
}

func (f *fakeUserService) GetByID(_ context.Context, _ string) (*domain.User, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	return f.user, nil
}

func (f *fakeUserService) Me(ctx context.Context, id string) (*domain.User, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeUserService) UpdateProfile(_ context.Context, id, name string) (*domain.User, error) {
	f.updatedName = name
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &domain.User{ID: id, Name: name, Status: domain.UserStatusActive}, nil
}

func (f *fakeUserService) VendorProfile(_ context.Context, _ string) (*domain.VendorProfile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if f.profile == nil {
		return nil, domain.ErrNotFound
	}
	return f.profile, nil
}

func (f *fakeUserService) BecomeVendor(_ context.Context, userID, businessName string) (*domain.VendorProfile, error) {
	f.lastName = businessName
	if f.becomeErr != nil {
		return nil, f.becomeErr
	}
	return &domain.VendorProfile{ID: "vp-new", UserID: userID, BusinessName: businessName}, nil
}

type fakeNotifier struct {
	notes      domain.Notifications
	err        error
	lastUserID string
	lastVendor string
}

func (f *fakeNotifier) Project(_ context.Context, userID, vendorProfileID string) (domain.Notifications, error) {
	f.lastUserID, f.lastVendor = userID, vendorProfileID
	return f.notes, f.err
}

type fakeEventService struct {
	err         error
	event       *domain.Event
	sub         *domain.SubEvent
	dashboard   *domain.Dashboard
	lastHostID  string
	lastInput   domain.CreateEventInput
	lastSub     domain.AddSubEventInput
	lastActor   *domain.EventClaims
	lastEventID string
	lastUserID  string
	lastVendor  string
}

func (f *fakeEventService) CreateEvent(_ context.Context, hostID string, in domain.CreateEventInput) (*domain.Event, error) {
	f.lastHostID, f.lastInput = hostID, in
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

func (f *fakeEventService) GetEvent(_ context.Context, actor *domain.EventClaims) (*domain.Event, error) {
	f.lastActor = actor
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

func (f *fakeEventService) DeleteEvent(_ context.Context, eventID, userID string) error {
	f.lastEventID, f.lastUserID = eventID, userID
	return f.err
}

func (f *fakeEventService) AddSubEvent(_ context.Context, actor *domain.EventClaims, in domain.AddSubEventInput) (*domain.SubEvent, error) {
	f.lastActor, f.lastSub = actor, in
	if f.err != nil {
		return nil, f.err
	}
	return f.sub, nil
}

func (f *fakeEventService) ListForUser(_ context.Context, userID, vendorProfileID string) (*domain.Dashboard, error) {
	f.lastUserID, f.lastVendor = userID, vendorProfileID
	if f.err != nil {
		return nil, f.err
	}
	return f.dashboard, nil
}

type fakeAuthorizer struct {
	token       string
	claims      *domain.EventClaims
	err         error
	lastEventID string
	lastUserID  string
}

func (f *fakeAuthorizer) Resolve(context.Context, string, string) (domain.Membership, error) {
	return domain.Membership{}, nil
}

func (f *fakeAuthorizer) MintToken(_ context.Context, eventID, userID string) (string, *domain.EventClaims, error) {
	f.lastEventID, f.lastUserID = eventID, userID
	if f.err != nil {
		return "", nil, f.err
	}
	return f.token, f.claims, nil
}

func (f *fakeAuthorizer) Verify(context.Context, string) (*domain.EventClaims, error) {
	return f.claims, f.err
}

func (f *fakeAuthorizer) Authorize(context.Context, string, domain.Capability) (*domain.EventClaims, error) {
	return f.claims, f.err
}

type fakeRosterService struct {
	err         error
	entry       *domain.RosterEntry
	offer       *domain.ServiceOffer
	guests      []*domain.RosterEntry
	offers      []*domain.ServiceOffer
	lastActor   *domain.EventClaims
	lastInvite  domain.InviteGuestInput
	lastOffer   domain.OfferServiceInput
	lastCaps    domain.CapabilitySet
	lastUserID  string
	lastEventID string
	lastOfferID string
	lastAccept  bool
}

func (f *fakeRosterService) InviteGuest(_ context.Context, actor *domain.EventClaims, in domain.InviteGuestInput) (*domain.RosterEntry, error) {
	f.lastActor, f.lastInvite = actor, in
	if f.err != nil {
		return nil, f.err
	}
	return f.entry, nil
}

func (f *fakeRosterService) UpdateGuestCapabilities(_ context.Context, actor *domain.EventClaims, userID string, caps domain.CapabilitySet) (*domain.RosterEntry, error) {
	f.lastActor, f.lastUserID, f.lastCaps = actor, userID, caps
	if f.err != nil {
		return nil, f.err
	}
	return f.entry, nil
}

func (f *fakeRosterService) RespondToGuestInvite(_ context.Context, eventID, userID string, accept bool) (*domain.RosterEntry, error) {
	f.lastEventID, f.lastUserID, f.lastAccept = eventID, userID, accept
	if f.err != nil {
		return nil, f.err
	}
	return f.entry, nil
}

func (f *fakeRosterService) OfferService(_ context.Context, actor *domain.EventClaims, in domain.OfferServiceInput) (*domain.ServiceOffer, error) {
	f.lastActor, f.lastOffer = actor, in
	if f.err != nil {
		return nil, f.err
	}
	return f.offer, nil
}

func (f *fakeRosterService) RespondToServiceOffer(_ context.Context, eventID, offerID, userID string, accept bool) (*domain.ServiceOffer, error) {
	f.lastEventID, f.lastOfferID, f.lastUserID, f.lastAccept = eventID, offerID, userID, accept
	if f.err != nil {
		return nil, f.err
	}
	return f.offer, nil
}

func (f *fakeRosterService) ListGuests(_ context.Context, actor *domain.EventClaims) ([]*domain.RosterEntry, error) {
	f.lastActor = actor
	return f.guests, f.err
}

func (f *fakeRosterService) ListServiceOffers(_ context.Context, actor *domain.EventClaims) ([]*domain.ServiceOffer, error) {
	f.lastActor = actor
	return f.offers, f.err
}
