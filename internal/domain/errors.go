package domain

import "errors"

// Sentinel errors shared by services, repositories and delivery.
// Wrap them with fmt.Errorf("...: %w") to add detail; match with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrDuplicateMembership = errors.New("user is already on the event roster")
	ErrNotFound            = errors.New("not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrNotMember           = errors.New("user is not part of this event")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrTokenExpired        = errors.New("token expired")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("concurrent update conflict")
)
