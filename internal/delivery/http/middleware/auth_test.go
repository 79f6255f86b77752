package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTokenVerifier implements domain.TokenVerifier for tests.
type fakeTokenVerifier struct {
	userID string
	err    error
}

func (f *fakeTokenVerifier) Verify(_ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.userID, nil
}

// fakeAuthorizer implements domain.Authorizer; only Verify is exercised.
type fakeAuthorizer struct {
	claims *domain.EventClaims
	err    error
}

func (f *fakeAuthorizer) Resolve(context.Context, string, string) (domain.Membership, error) {
	return domain.Membership{}, errors.New("not implemented")
}

func (f *fakeAuthorizer) MintToken(context.Context, string, string) (string, *domain.EventClaims, error) {
	return "", nil, errors.New("not implemented")
}

func (f *fakeAuthorizer) Verify(_ context.Context, _ string) (*domain.EventClaims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func (f *fakeAuthorizer) Authorize(context.Context, string, domain.Capability) (*domain.EventClaims, error) {
	return nil, errors.New("not implemented")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func decodeErrorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	require.NotNil(t, envelope.Error)
	return envelope.Error.Code
}

func TestRequireAuth(t *testing.T) {
	logger := testLogger()

	tests := []struct {
		name          string
		authHeader    string
		verifier      domain.TokenVerifier
		wantStatus    int
		wantBodyCode  string
		nextCalled    bool
		wantContextID string
	}{
		{
			name:          "valid token sets context and calls next",
			authHeader:    "Bearer valid-token",
			verifier:      &fakeTokenVerifier{userID: "user-123"},
			wantStatus:    http.StatusOK,
			nextCalled:    true,
			wantContextID: "user-123",
		},
		{
			name:         "missing authorization header",
			verifier:     &fakeTokenVerifier{userID: "user-123"},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
		{
			name:         "invalid authorization format no Bearer prefix",
			authHeader:   "Basic abc",
			verifier:     &fakeTokenVerifier{userID: "user-123"},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
		{
			name:         "empty token after Bearer",
			authHeader:   "Bearer ",
			verifier:     &fakeTokenVerifier{userID: "user-123"},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
		{
			name:         "verifier returns error",
			authHeader:   "Bearer bad-token",
			verifier:     &fakeTokenVerifier{err: errors.New("invalid or expired token")},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
		{
			name:         "expired session",
			authHeader:   "Bearer old-token",
			verifier:     &fakeTokenVerifier{err: domain.ErrTokenExpired},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeTokenExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			var capturedUserID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				if id, ok := UserIDFromContext(r.Context()); ok {
					capturedUserID = id
				}
				w.WriteHeader(http.StatusOK)
			})
			handler := RequireAuth(tt.verifier, logger)(next)

			req := httptest.NewRequest(http.MethodGet, "http://test/users/me", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()

			handler(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			assert.Equal(t, tt.nextCalled, nextCalled, "next handler called")
			if tt.nextCalled {
				assert.Equal(t, tt.wantContextID, capturedUserID, "user ID in context")
			}
			if tt.wantBodyCode != "" {
				assert.Equal(t, tt.wantBodyCode, decodeErrorCode(t, rr))
			}
		})
	}
}

func TestRequireEventToken(t *testing.T) {
	logger := testLogger()
	claims := &domain.EventClaims{
		EventID:      "ev-1",
		Role:         domain.RoleCoHost,
		Capabilities: domain.NewCapabilitySet(domain.CapViewRoster),
		ExpiresAt:    time.Now().Add(time.Hour),
	}

	tests := []struct {
		name         string
		header       string
		pathEventID  string
		authorizer   *fakeAuthorizer
		wantStatus   int
		wantBodyCode string
	}{
		{
			name:        "valid token for path event",
			header:      "tok",
			pathEventID: "ev-1",
			authorizer:  &fakeAuthorizer{claims: claims},
			wantStatus:  http.StatusOK,
		},
		{
			name:         "missing header",
			pathEventID:  "ev-1",
			authorizer:   &fakeAuthorizer{claims: claims},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
		{
			name:         "token for another event",
			header:       "tok",
			pathEventID:  "ev-2",
			authorizer:   &fakeAuthorizer{claims: claims},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
		{
			name:         "expired token",
			header:       "tok",
			pathEventID:  "ev-1",
			authorizer:   &fakeAuthorizer{err: domain.ErrTokenExpired},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeTokenExpired,
		},
		{
			name:         "tampered token",
			header:       "tok",
			pathEventID:  "ev-1",
			authorizer:   &fakeAuthorizer{err: domain.ErrUnauthorized},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *domain.EventClaims
			next := func(w http.ResponseWriter, r *http.Request) {
				got, _ = EventClaimsFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}
			mux := http.NewServeMux()
			mux.HandleFunc("GET /events/{eventID}/guests", RequireEventToken(tt.authorizer, logger)(next))

			req := httptest.NewRequest(http.MethodGet, "/events/"+tt.pathEventID+"/guests", nil)
			if tt.header != "" {
				req.Header.Set(EventTokenHeader, tt.header)
			}
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				require.NotNil(t, got)
				assert.Equal(t, "ev-1", got.EventID)
				return
			}
			assert.Nil(t, got)
			assert.Equal(t, tt.wantBodyCode, decodeErrorCode(t, rr))
		})
	}
}

func TestEventClaimsFromContext_missing(t *testing.T) {
	_, ok := EventClaimsFromContext(context.Background())
	assert.False(t, ok)
	_, ok = EventClaimsFromContext(SetEventClaims(context.Background(), nil))
	assert.False(t, ok)
}
