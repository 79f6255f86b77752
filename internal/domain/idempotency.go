package domain

import "context"

// StoredResponse is the outcome of a completed idempotent command, replayed to retries.
type StoredResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// Deduper records idempotency keys per user so a retried command is processed once.
// Lookup returns nil while the first request is still in flight.
type Deduper interface {
	Add(ctx context.Context, userID, key string) (bool, error)
	Complete(ctx context.Context, userID, key string, resp StoredResponse) error
	Lookup(ctx context.Context, userID, key string) (*StoredResponse, error)
	Remove(ctx context.Context, userID, key string) error
}
