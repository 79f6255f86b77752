// Package memory holds process-local repositories used when no database is
// configured and in tests. Stored aggregates are never handed out directly;
// callers always receive clones.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"eventplanner/internal/domain"
)

type eventRepository struct {
	mu     sync.RWMutex
	events map[string]*domain.Event
}

func NewEventRepository() domain.EventRepository {
	return &eventRepository{events: make(map[string]*domain.Event)}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[e.ID]; ok {
		return fmt.Errorf("%w: event %s already exists", domain.ErrConflict, e.ID)
	}
	if e.Version == 0 {
		e.Version = 1
	}
	r.events[e.ID] = e.Clone()
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.events[id]
	if !ok {
		return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, id)
	}
	return e.Clone(), nil
}

// Update runs mutate on a private copy under the write lock and swaps the copy
// in only when mutate succeeds.
func (r *eventRepository) Update(ctx context.Context, id string, mutate func(*domain.Event) error) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.events[id]
	if !ok {
		return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, id)
	}
	next := stored.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.Version = stored.Version + 1
	r.events[id] = next
	return next.Clone(), nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *eventRepository) ListByMember(ctx context.Context, userID string) ([]*domain.EventSummary, error) {
	return r.summaries(ctx, func(e *domain.Event) bool {
		if e.HostID == userID {
			return true
		}
		g, ok := e.Guest(userID)
		return ok && g.Status == domain.StatusAccepted
	})
}

func (r *eventRepository) ListByAcceptedVendor(ctx context.Context, vendorProfileID string) ([]*domain.EventSummary, error) {
	return r.summaries(ctx, func(e *domain.Event) bool {
		return hasOffer(e, vendorProfileID, domain.StatusAccepted)
	})
}

func (r *eventRepository) ListPendingIDs(ctx context.Context, userID, vendorProfileID string) ([]string, error) {
	list, err := r.summaries(ctx, func(e *domain.Event) bool {
		if g, ok := e.Guest(userID); ok && g.Status == domain.StatusPending {
			return true
		}
		return hasOffer(e, vendorProfileID, domain.StatusPending)
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list))
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

func (r *eventRepository) summaries(ctx context.Context, match func(*domain.Event) bool) ([]*domain.EventSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]*domain.EventSummary, 0)
	for _, e := range r.events {
		if match(e) {
			out = append(out, e.Summary())
		}
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b *domain.EventSummary) int {
		if c := a.StartDate.Compare(b.StartDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func hasOffer(e *domain.Event, vendorProfileID string, status domain.Status) bool {
	if vendorProfileID == "" {
		return false
	}
	for _, o := range e.ServiceOffers {
		if o.VendorProfileID == vendorProfileID && o.Status == status {
			return true
		}
	}
	return false
}
