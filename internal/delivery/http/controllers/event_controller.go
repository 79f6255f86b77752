package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	h "eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/domain"
)

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Budget    float64   `json:"budget"`
}

// Validate implements Validator. Returns error messages for required and format rules.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if c.StartDate.IsZero() {
		errs = append(errs, "start_date is required")
	}
	if c.EndDate.IsZero() {
		errs = append(errs, "end_date is required")
	}
	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
		errs = append(errs, "end_date must not be before start_date")
	}
	if c.Budget < 0 {
		errs = append(errs, "budget must not be negative")
	}
	return errs
}

// AddSubEventRequest is the request body for POST /events/{eventID}/sub-events.
type AddSubEventRequest struct {
	Name      string    `json:"name"`
	Venue     string    `json:"venue"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Validate implements Validator.
func (a AddSubEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(a.Name) == "" {
		errs = append(errs, "name is required")
	}
	if !a.StartDate.IsZero() && !a.EndDate.IsZero() && a.EndDate.Before(a.StartDate) {
		errs = append(errs, "end_date must not be before start_date")
	}
	return errs
}

// EventTokenResponse is the response body for POST /events/{eventID}/token.
type EventTokenResponse struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expires_at"`
	Claims    *domain.EventClaims `json:"claims"`
}

// CreateEventSuccessResponse is the success response envelope for POST /events (201).
type CreateEventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *h.APIError `json:"error"`
}

type EventController struct {
	Logger     *slog.Logger
	Service    domain.EventService
	Users      domain.UserService
	Authorizer domain.Authorizer
}

func NewEventController(logger *slog.Logger, svc domain.EventService, users domain.UserService, authorizer domain.Authorizer) *EventController {
	return &EventController{
		Logger:     logger,
		Service:    svc,
		Users:      users,
		Authorizer: authorizer,
	}
}

// CreateEvent godoc
// @Summary Create a new event
// @Description Create an event. The authenticated user becomes its host with every capability. A retry with the same Idempotency-Key replays the first response with Idempotent-Replayed: true.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Client-chosen retry key"
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.CreateEventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: validation_error"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (first request with this key still running)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUser(w, r)
	if !ok {
		return
	}
	var req CreateEventRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), userID, domain.CreateEventInput{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Budget:    req.Budget,
	})
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListEvents godoc
// @Summary Dashboard
// @Description Events the caller hosts or has accepted, events their vendor profile serves, and pending notifications.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains events, service_events and notifications"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUser(w, r)
	if !ok {
		return
	}
	vpID, err := vendorProfileID(r.Context(), c.Users, userID)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	dashboard, err := c.Service.ListForUser(r.Context(), userID, vpID)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, dashboard)
}

// MintToken godoc
// @Summary Mint an event token
// @Description Resolves the caller's standing on the event and returns a signed, expiring token carrying their role and capabilities. Send it as X-Event-Token on event routes.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains token, expires_at and claims"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: not_member"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/token [post]
func (c *EventController) MintToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUser(w, r)
	if !ok {
		return
	}
	token, claims, err := c.Authorizer.MintToken(r.Context(), r.PathValue("eventID"), userID)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, EventTokenResponse{Token: token, ExpiresAt: claims.ExpiresAt, Claims: claims})
}

// GetEvent godoc
// @Summary Get an event
// @Description Returns the event with its sub-events. Guests and service offers are empty unless the token is the host's or carries view-roster.
// @Tags events
// @Produce json
// @Security EventToken
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized or token_expired"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := eventActor(w, r)
	if !ok {
		return
	}
	event, err := c.Service.GetEvent(r.Context(), actor)
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Deletes the event with its roster, offers and sub-events. Host only.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 204 "No Content"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUser(w, r)
	if !ok {
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), r.PathValue("eventID"), userID); err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddSubEvent godoc
// @Summary Add a sub-event
// @Description Adds a constituent occasion to the event. Requires manage-sub-events.
// @Tags events
// @Accept json
// @Produce json
// @Security EventToken
// @Param eventID path string true "Event ID"
// @Param body body AddSubEventRequest true "Sub-event data"
// @Success 201 {object} helpers.APIResponse "data contains the sub-event"
// @Failure 400 {object} helpers.APIResponse "error.code: validation_error"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized or token_expired"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/sub-events [post]
func (c *EventController) AddSubEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := eventActor(w, r)
	if !ok {
		return
	}
	var req AddSubEventRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	sub, err := c.Service.AddSubEvent(r.Context(), actor, domain.AddSubEventInput{
		Name:      req.Name,
		Venue:     req.Venue,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		h.WriteDomainError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, sub)
}
