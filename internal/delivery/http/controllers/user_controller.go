package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	h "eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/domain"
)

// MeResponse is the response body for GET /users/me.
type MeResponse struct {
	User          *domain.User          `json:"user"`
	VendorProfile *domain.VendorProfile `json:"vendor_profile"`
}

// UpdateMeRequest is the request body for PATCH /users/me.
type UpdateMeRequest struct {
	Name string `json:"name"`
}

// Validate implements Validator.
func (u UpdateMeRequest) Validate() []string {
	if strings.TrimSpace(u.Name) == "" {
		return []string{"name is required"}
	}
	return nil
}

// BecomeVendorRequest is the request body for POST /users/me/vendor-profile.
type BecomeVendorRequest struct {
	BusinessName string `json:"business_name"`
}

// Validate implements Validator.
func (b BecomeVendorRequest) Validate() []string {
	if strings.TrimSpace(b.BusinessName) == "" {
		return []string{"business_name is required"}
	}
	return nil
}

type UserController struct {
	Logger   *slog.Logger
	Service  domain.UserService
	Notifier domain.Notifier
}

func NewUserController(logger *slog.Logger, svc domain.UserService, notifier domain.Notifier) *UserController {
	return &UserController{
		Logger:   logger,
		Service:  svc,
		Notifier: notifier,
	}
}

// GetMe godoc
// @Summary Get current user
// @Description Returns the authenticated user and their vendor profile, if any.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains user and vendor_profile"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized or user_inactive"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me [get]
func (c *UserController) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUser(w, r)
	if !ok {
		return
	}
	user, err := c.Service.Me(r.Context(), userID)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	profile, err := c.Service.VendorProfile(r.Context(), userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, MeResponse{User: user, VendorProfile: profile})
}

// UpdateMe godoc
// @Summary Update current user
// @Description Renames the authenticated user. Email and status cannot be changed here.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateMeRequest true "New name"
// @Success 200 {object} helpers.APIResponse "data contains the updated user"
// @Failure 400 {object} helpers.APIResponse "error.code: validation_error"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized or user_inactive"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me [patch]
func (c *UserController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUser(w, r)
	if !ok {
		return
	}
	var req UpdateMeRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.Service.UpdateProfile(r.Context(), userID, req.Name)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, user)
}

// BecomeVendor godoc
// @Summary Open a vendor profile
// @Description Creates the caller's vendor profile. A user holds at most one.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BecomeVendorRequest true "Business name"
// @Success 201 {object} helpers.APIResponse "data contains the vendor profile"
// @Failure 400 {object} helpers.APIResponse "error.code: validation_error"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: already_vendor"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/vendor-profile [post]
func (c *UserController) BecomeVendor(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUser(w, r)
	if !ok {
		return
	}
	var req BecomeVendorRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	profile, err := c.Service.BecomeVendor(r.Context(), userID, req.BusinessName)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, profile)
}

// Notifications godoc
// @Summary List pending notifications
// @Description Pending guest invitations for the caller, then pending service offers addressed to the caller's vendor profile.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains guests and vendors"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/notifications [get]
func (c *UserController) Notifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUser(w, r)
	if !ok {
		return
	}
	vpID, err := vendorProfileID(r.Context(), c.Service, userID)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	notes, err := c.Notifier.Project(r.Context(), userID, vpID)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, notes)
}
