package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventplanner/internal/domain"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorMappings is checked in order; the first sentinel matched with errors.Is wins.
var errorMappings = []errorMapping{
	{domain.ErrValidation, http.StatusBadRequest, ErrCodeValidation},
	{domain.ErrDuplicateMembership, http.StatusConflict, ErrCodeDuplicateMembership},
	{domain.ErrInvalidTransition, http.StatusConflict, ErrCodeInvalidTransition},
	{domain.ErrConflict, http.StatusConflict, ErrCodeConflict},
	{domain.ErrDuplicateEmail, http.StatusConflict, ErrCodeDuplicateEmail},
	{domain.ErrAlreadyVendor, http.StatusConflict, ErrCodeAlreadyVendor},
	{domain.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
	{domain.ErrUserNotFound, http.StatusNotFound, ErrCodeNotFound},
	{domain.ErrNotMember, http.StatusForbidden, ErrCodeNotMember},
	{domain.ErrForbidden, http.StatusForbidden, ErrCodeForbidden},
	{domain.ErrTokenExpired, http.StatusUnauthorized, ErrCodeTokenExpired},
	{domain.ErrUnauthorized, http.StatusUnauthorized, ErrCodeUnauthorized},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, ErrCodeUnauthorized},
	{domain.ErrUserInactive, http.StatusUnauthorized, ErrCodeUserInactive},
}

// StatusFor returns the HTTP status and error code for err.
func StatusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, ErrCodeInternalError
}

// WriteDomainError maps err onto the JSON error envelope. Unmapped errors are
// logged and reported as internal errors without leaking their text.
func WriteDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, status, code, "internal error")
		return
	}
	WriteJSONError(w, status, code, err.Error())
}
