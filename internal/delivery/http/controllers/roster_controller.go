package controllers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	h "eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/domain"
)

// InviteGuestRequest is the request body for POST /events/{eventID}/guests.
// Omitting capabilities grants the role's defaults; an empty list grants none.
type InviteGuestRequest struct {
	UserID       string    `json:"user_id"`
	Role         string    `json:"role"`
	Capabilities *[]string `json:"capabilities"`
}

// Validate implements Validator.
func (i InviteGuestRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(i.UserID) == "" {
		errs = append(errs, "user_id is required")
	}
	if strings.TrimSpace(i.Role) == "" {
		errs = append(errs, "role is required")
	}
	return errs
}

// UpdateGuestRequest is the request body for PATCH /events/{eventID}/guests/{userID}.
type UpdateGuestRequest struct {
	Capabilities []string `json:"capabilities"`
}

// RespondRequest is the request body for accepting or declining an invitation or offer.
type RespondRequest struct {
	Accept *bool `json:"accept"`
}

// Validate implements Validator.
func (rr RespondRequest) Validate() []string {
	if rr.Accept == nil {
		return []string{"accept is required"}
	}
	return nil
}

// OfferServiceRequest is the request body for POST /events/{eventID}/offers.
type OfferServiceRequest struct {
	VendorProfileID string   `json:"vendor_profile_id"`
	SubEventIDs     []string `json:"sub_event_ids"`
	ServiceID       string   `json:"service_id"`
}

// Validate implements Validator.
func (o OfferServiceRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(o.VendorProfileID) == "" {
		errs = append(errs, "vendor_profile_id is required")
	}
	if strings.TrimSpace(o.ServiceID) == "" {
		errs = append(errs, "service_id is required")
	}
	return errs
}

type RosterController struct {
	Logger  *slog.Logger
	Service domain.RosterService
}

func NewRosterController(logger *slog.Logger, svc domain.RosterService) *RosterController {
	return &RosterController{
		Logger:  logger,
		Service: svc,
	}
}

func parseCaps(raw []string) (domain.CapabilitySet, error) {
	caps, err := domain.ParseCapabilities(raw)
	if err != nil {
		return nil, fmt.Errorf("capabilities: %w", err)
	}
	return caps, nil
}

// ListGuests godoc
// @Summary List the guest roster
// @Description Every roster entry of the event, host first. Requires view-roster.
// @Tags roster
// @Produce json
// @Security EventToken
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the roster entries"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized or token_expired"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/guests [get]
func (c *RosterController) ListGuests(w http.ResponseWriter, r *http.Request) {
	actor, ok := eventActor(w, r)
	if !ok {
		return
	}
	guests, err := c.Service.ListGuests(r.Context(), actor)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, guests)
}

// InviteGuest godoc
// @Summary Invite a guest
// @Description Adds a pending roster entry. Requires invite-guest; granted capabilities must be a subset of the caller's own unless the caller is the host.
// @Tags roster
// @Accept json
// @Produce json
// @Security EventToken
// @Param eventID path string true "Event ID"
// @Param body body InviteGuestRequest true "Invitee, role and capabilities"
// @Success 201 {object} helpers.APIResponse "data contains the roster entry"
// @Failure 400 {object} helpers.APIResponse "error.code: validation_error"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized or token_expired"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: duplicate_membership"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/guests [post]
func (c *RosterController) InviteGuest(w http.ResponseWriter, r *http.Request) {
	actor, ok := eventActor(w, r)
	if !ok {
		return
	}
	var req InviteGuestRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	role, err := domain.ParseRole(strings.TrimSpace(req.Role))
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	var caps domain.CapabilitySet
	if req.Capabilities != nil {
		if caps, err = parseCaps(*req.Capabilities); err != nil {
			h.WriteDomainError(w, r, c.Logger, err)
			return
		}
	}
	entry, err := c.Service.InviteGuest(r.Context(), actor, domain.InviteGuestInput{
		UserID:       strings.TrimSpace(req.UserID),
		Role:         role,
		Capabilities: caps,
	})
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, entry)
}

// UpdateGuest godoc
// @Summary Replace a guest's capabilities
// @Description Replaces the capability set of a non-host roster entry. Requires manage-guests.
// @Tags roster
// @Accept json
// @Produce json
// @Security EventToken
// @Param eventID path string true "Event ID"
// @Param userID path string true "Guest user ID"
// @Param body body UpdateGuestRequest true "New capabilities"
// @Success 200 {object} helpers.APIResponse "data contains the roster entry"
// @Failure 400 {object} helpers.APIResponse "error.code: validation_error"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized or token_expired"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/guests/{userID} [patch]
func (c *RosterController) UpdateGuest(w http.ResponseWriter, r *http.Request) {
	actor, ok := eventActor(w, r)
	if !ok {
		return
	}
	var req UpdateGuestRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	caps, err := parseCaps(req.Capabilities)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	entry, err := c.Service.UpdateGuestCapabilities(r.Context(), actor, r.PathValue("userID"), caps)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, entry)
}

// RespondToInvitation godoc
// @Summary Answer a guest invitation
// @Description Accepts or declines the caller's pending invitation to the event.
// @Tags roster
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body RespondRequest true "Answer"
// @Success 200 {object} helpers.APIResponse "data contains the roster entry"
// @Failure 400 {object} helpers.APIResponse "error.code: validation_error"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/invitation [post]
func (c *RosterController) RespondToInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUser(w, r)
	if !ok {
		return
	}
	var req RespondRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	entry, err := c.Service.RespondToGuestInvite(r.Context(), r.PathValue("eventID"), userID, *req.Accept)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, entry)
}

// ListOffers godoc
// @Summary List service offers
// @Description Every service offer on the event. Requires view-roster.
// @Tags roster
// @Produce json
// @Security EventToken
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the offers"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized or token_expired"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/offers [get]
func (c *RosterController) ListOffers(w http.ResponseWriter, r *http.Request) {
	actor, ok := eventActor(w, r)
	if !ok {
		return
	}
	offers, err := c.Service.ListServiceOffers(r.Context(), actor)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, offers)
}

// OfferService godoc
// @Summary Offer a service slot to a vendor
// @Description Records a pending offer for a vendor profile, optionally scoped to sub-events. Requires invite-vendor.
// @Tags roster
// @Accept json
// @Produce json
// @Security EventToken
// @Param eventID path string true "Event ID"
// @Param body body OfferServiceRequest true "Offer"
// @Success 201 {object} helpers.APIResponse "data contains the offer"
// @Failure 400 {object} helpers.APIResponse "error.code: validation_error"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized or token_expired"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/offers [post]
func (c *RosterController) OfferService(w http.ResponseWriter, r *http.Request) {
	actor, ok := eventActor(w, r)
	if !ok {
		return
	}
	var req OfferServiceRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	offer, err := c.Service.OfferService(r.Context(), actor, domain.OfferServiceInput{
		VendorProfileID: strings.TrimSpace(req.VendorProfileID),
		SubEventIDs:     req.SubEventIDs,
		ServiceID:       strings.TrimSpace(req.ServiceID),
	})
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, offer)
}

// RespondToOffer godoc
// @Summary Answer a service offer
// @Description Accepts or declines an offer addressed to the caller's vendor profile.
// @Tags roster
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param offerID path string true "Offer ID"
// @Param body body RespondRequest true "Answer"
// @Success 200 {object} helpers.APIResponse "data contains the offer"
// @Failure 400 {object} helpers.APIResponse "error.code: validation_error"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/offers/{offerID}/response [post]
func (c *RosterController) RespondToOffer(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUser(w, r)
	if !ok {
		return
	}
	var req RespondRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	offer, err := c.Service.RespondToServiceOffer(r.Context(), r.PathValue("eventID"), r.PathValue("offerID"), userID, *req.Accept)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, offer)
}
