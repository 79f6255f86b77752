package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"eventplanner/internal/domain"
)

// maxParallelReads bounds concurrent event reads during projection.
const maxParallelReads = 8

type notifier struct {
	eventRepo      domain.EventRepository
	contextTimeout time.Duration
}

func NewNotifier(eventRepo domain.EventRepository, timeout time.Duration) domain.Notifier {
	return &notifier{eventRepo: eventRepo, contextTimeout: timeout}
}

// Project reads every event that may carry a pending item for the user, each
// as its own snapshot, and projects them. Events deleted between listing and
// reading are skipped.
func (n *notifier) Project(ctx context.Context, userID, vendorProfileID string) (domain.Notifications, error) {
	ctx, cancel := context.WithTimeout(ctx, n.contextTimeout)
	defer cancel()

	ids, err := n.eventRepo.ListPendingIDs(ctx, userID, vendorProfileID)
	if err != nil {
		return domain.Notifications{}, fmt.Errorf("list pending events: %w", err)
	}

	events := make([]*domain.Event, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)
	for i, id := range ids {
		g.Go(func() error {
			e, err := n.eventRepo.GetByID(gctx, id)
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("get event %s: %w", id, err)
			}
			events[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Notifications{}, err
	}
	return domain.ProjectNotifications(events, userID, vendorProfileID), nil
}
