package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventplanner/internal/delivery/http/controllers"
	"eventplanner/internal/delivery/http/middleware"
	"eventplanner/internal/domain"
)

// RouterDeps bundles what NewRouter wires together. Deduper may be nil.
type RouterDeps struct {
	Logger     *slog.Logger
	Verifier   domain.TokenVerifier
	Authorizer domain.Authorizer
	Deduper    domain.Deduper
	Auth       *controllers.AuthController
	Users      *controllers.UserController
	Events     *controllers.EventController
	Roster     *controllers.RosterController
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(d RouterDeps) *http.ServeMux {
	mux := http.NewServeMux()
	session := middleware.RequireAuth(d.Verifier, d.Logger)
	event := middleware.RequireEventToken(d.Authorizer, d.Logger)
	idempotent := middleware.Idempotent(d.Deduper, d.Logger)

	// Auth
	mux.HandleFunc("POST /auth/signup", d.Auth.SignUp)
	mux.HandleFunc("POST /auth/login", d.Auth.Login)

	// Users
	mux.HandleFunc("GET /users/me", session(d.Users.GetMe))
	mux.HandleFunc("PATCH /users/me", session(d.Users.UpdateMe))
	mux.HandleFunc("POST /users/me/vendor-profile", session(d.Users.BecomeVendor))
	mux.HandleFunc("GET /users/me/notifications", session(d.Users.Notifications))

	// Events (session)
	mux.HandleFunc("POST /events", session(idempotent(d.Events.CreateEvent)))
	mux.HandleFunc("GET /events", session(d.Events.ListEvents))
	mux.HandleFunc("DELETE /events/{eventID}", session(d.Events.DeleteEvent))
	mux.HandleFunc("POST /events/{eventID}/token", session(d.Events.MintToken))
	mux.HandleFunc("POST /events/{eventID}/invitation", session(d.Roster.RespondToInvitation))
	mux.HandleFunc("POST /events/{eventID}/offers/{offerID}/response", session(d.Roster.RespondToOffer))

	// Events (event token)
	mux.HandleFunc("GET /events/{eventID}", event(d.Events.GetEvent))
	mux.HandleFunc("POST /events/{eventID}/sub-events", event(d.Events.AddSubEvent))
	mux.HandleFunc("GET /events/{eventID}/guests", event(d.Roster.ListGuests))
	mux.HandleFunc("POST /events/{eventID}/guests", event(d.Roster.InviteGuest))
	mux.HandleFunc("PATCH /events/{eventID}/guests/{userID}", event(d.Roster.UpdateGuest))
	mux.HandleFunc("GET /events/{eventID}/offers", event(d.Roster.ListOffers))
	mux.HandleFunc("POST /events/{eventID}/offers", event(d.Roster.OfferService))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
