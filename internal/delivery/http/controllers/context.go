package controllers

import (
	"context"
	"errors"
	"net/http"

	h "eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/delivery/http/middleware"
	"eventplanner/internal/domain"
)

// sessionUser returns the authenticated user ID or writes a 401.
func sessionUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok || userID == "" {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

// eventActor returns the verified event claims or writes a 401.
func eventActor(w http.ResponseWriter, r *http.Request) (*domain.EventClaims, bool) {
	claims, ok := middleware.EventClaimsFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing event token")
		return nil, false
	}
	return claims, true
}

// vendorProfileID returns the caller's vendor profile ID, or "" when they have none.
func vendorProfileID(ctx context.Context, users domain.UserService, userID string) (string, error) {
	profile, err := users.VendorProfile(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return profile.ID, nil
}
