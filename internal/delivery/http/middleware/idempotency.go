package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"

	h "eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/domain"
)

// IdempotencyKeyHeader names the client-chosen key for retried commands.
const IdempotencyKeyHeader = "Idempotency-Key"

// IdempotentReplayedHeader is set on responses replayed from an earlier request.
const IdempotentReplayedHeader = "Idempotent-Replayed"

const maxIdempotencyKeyLen = 128

// recordingWriter keeps a copy of the body so it can be replayed.
type recordingWriter struct {
	responseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.responseWriter.Write(b)
}

// Idempotent runs a command once per user and Idempotency-Key. A repeat of a
// completed request gets the first response replayed; a repeat while the first
// is still running gets 409. The key is released again when the handler does
// not succeed, so the client may retry. Requests without the header pass
// through. A nil deduper disables the check. Must run inside RequireAuth.
func Idempotent(deduper domain.Deduper, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if deduper == nil {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			if key == "" {
				next(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLen {
				h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeValidation, "idempotency key is too long")
				return
			}
			userID, _ := UserIDFromContext(r.Context())
			added, err := deduper.Add(r.Context(), userID, key)
			if err != nil {
				logger.ErrorContext(r.Context(), "idempotency check failed", "err", err)
				h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "internal error")
				return
			}
			if !added {
				replay(w, r, deduper, logger, userID, key)
				return
			}

			wrapped := &recordingWriter{responseWriter: responseWriter{ResponseWriter: w, status: http.StatusOK}}
			next(wrapped, r)
			if wrapped.status >= http.StatusBadRequest {
				if err := deduper.Remove(r.Context(), userID, key); err != nil {
					logger.WarnContext(r.Context(), "release idempotency key failed", "err", err)
				}
				return
			}
			stored := domain.StoredResponse{Status: wrapped.status, Body: wrapped.body.Bytes()}
			if err := deduper.Complete(r.Context(), userID, key, stored); err != nil {
				logger.WarnContext(r.Context(), "store idempotent response failed", "err", err)
			}
		}
	}
}

func replay(w http.ResponseWriter, r *http.Request, deduper domain.Deduper, logger *slog.Logger, userID, key string) {
	stored, err := deduper.Lookup(r.Context(), userID, key)
	if err != nil {
		logger.ErrorContext(r.Context(), "idempotency lookup failed", "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "internal error")
		return
	}
	if stored == nil {
		h.WriteJSONError(w, http.StatusConflict, h.ErrCodeConflict, "request with this idempotency key is still in progress")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(IdempotentReplayedHeader, "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(stored.Body)
}
