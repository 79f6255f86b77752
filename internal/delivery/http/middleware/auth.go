package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	h "eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/domain"
)

// EventTokenHeader carries the event-scoped token on event routes.
const EventTokenHeader = "X-Event-Token"

type contextKey string

const (
	userIDKey      contextKey = "userID"
	eventClaimsKey contextKey = "eventClaims"
)

// SetUserID returns a context with the user ID set. Used by auth middleware.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user ID from the context, if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// SetEventClaims returns a context carrying verified event token claims.
func SetEventClaims(ctx context.Context, claims *domain.EventClaims) context.Context {
	return context.WithValue(ctx, eventClaimsKey, claims)
}

// EventClaimsFromContext returns the verified event claims, if present.
func EventClaimsFromContext(ctx context.Context) (*domain.EventClaims, bool) {
	c, ok := ctx.Value(eventClaimsKey).(*domain.EventClaims)
	return c, ok && c != nil
}

// RequireAuth returns a wrapper that validates the Bearer token and sets the user ID in the request context.
// If the token is missing or invalid, it responds with 401 and does not call next.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authorization header")
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid authorization format")
				return
			}
			token := strings.TrimSpace(auth[len(prefix):])
			if token == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing token")
				return
			}
			userID, err := verifier.Verify(token)
			if err != nil {
				if errors.Is(err, domain.ErrTokenExpired) {
					h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeTokenExpired, "session expired")
					return
				}
				logger.DebugContext(r.Context(), "session token rejected", "err", err)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			r = r.WithContext(SetUserID(r.Context(), userID))
			next(w, r)
		}
	}
}

// RequireEventToken verifies the X-Event-Token header and checks that the token
// was minted for the {eventID} in the path. Capability checks are left to the
// services, which receive the claims from the context.
func RequireEventToken(authorizer domain.Authorizer, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(EventTokenHeader))
			if token == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing event token")
				return
			}
			claims, err := authorizer.Verify(r.Context(), token)
			if err != nil {
				h.WriteDomainError(w, r, logger, err)
				return
			}
			if eventID := r.PathValue("eventID"); eventID != claims.EventID {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "event token was issued for another event")
				return
			}
			r = r.WithContext(SetEventClaims(r.Context(), claims))
			next(w, r)
		}
	}
}
