package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"eventplanner/internal/domain"
)

// maxUpdateAttempts bounds the read-modify-write retries on serialization failures.
const maxUpdateAttempts = 3

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if e.Version == 0 {
		e.Version = 1
	}
	query := `
		INSERT INTO events (id, name, host_id, start_date, end_date, budget, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := tx.ExecContext(ctx, query, e.ID, e.Name, e.HostID, e.StartDate, e.EndDate, e.Budget, e.Version, e.CreatedAt, e.UpdatedAt); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if err := saveChildren(ctx, tx, e); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID reads the event and its rosters inside one repeatable-read transaction
// so the result never mixes two writes.
func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	tx, err := r.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	e, err := loadEvent(ctx, tx, id, false)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return e, nil
}

func (r *eventRepository) Update(ctx context.Context, id string, mutate func(*domain.Event) error) (*domain.Event, error) {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		e, err := r.updateOnce(ctx, id, mutate)
		if err != nil && isRetryable(err) {
			continue
		}
		return e, err
	}
	return nil, fmt.Errorf("%w: event %s after %d attempts", domain.ErrConflict, id, maxUpdateAttempts)
}

func (r *eventRepository) updateOnce(ctx context.Context, id string, mutate func(*domain.Event) error) (*domain.Event, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	e, err := loadEvent(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if err := mutate(e); err != nil {
		return nil, err
	}
	e.Version++
	if err := saveChildren(ctx, tx, e); err != nil {
		return nil, err
	}
	query := `
		UPDATE events
		SET name = $1, start_date = $2, end_date = $3, budget = $4, version = $5, updated_at = $6
		WHERE id = $7
	`
	if _, err := tx.ExecContext(ctx, query, e.Name, e.StartDate, e.EndDate, e.Budget, e.Version, e.UpdatedAt, e.ID); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return e, nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		if pqCode(err) == codeInvalidText {
			return domain.ErrNotFound
		}
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) ListByMember(ctx context.Context, userID string) ([]*domain.EventSummary, error) {
	query := `
		SELECT e.id, e.name, e.host_id, e.start_date, e.end_date, e.budget
		FROM events e
		WHERE e.host_id = $1
		   OR EXISTS (
			SELECT 1 FROM event_guests g
			WHERE g.event_id = e.id AND g.user_id = $1 AND g.status = $2
		   )
		ORDER BY e.start_date
	`
	return r.listSummaries(ctx, query, nullString(userID), string(domain.StatusAccepted))
}

func (r *eventRepository) ListByAcceptedVendor(ctx context.Context, vendorProfileID string) ([]*domain.EventSummary, error) {
	query := `
		SELECT e.id, e.name, e.host_id, e.start_date, e.end_date, e.budget
		FROM events e
		WHERE EXISTS (
			SELECT 1 FROM event_service_offers o
			WHERE o.event_id = e.id AND o.vendor_profile_id = $1 AND o.status = $2
		)
		ORDER BY e.start_date
	`
	return r.listSummaries(ctx, query, nullString(vendorProfileID), string(domain.StatusAccepted))
}

func (r *eventRepository) ListPendingIDs(ctx context.Context, userID, vendorProfileID string) ([]string, error) {
	query := `
		SELECT e.id
		FROM events e
		WHERE EXISTS (
			SELECT 1 FROM event_guests g
			WHERE g.event_id = e.id AND g.user_id = $1 AND g.status = $3
		)
		   OR EXISTS (
			SELECT 1 FROM event_service_offers o
			WHERE o.event_id = e.id AND o.vendor_profile_id = $2 AND o.status = $3
		)
		ORDER BY e.start_date
	`
	rows, err := r.DB.QueryContext(ctx, query, nullString(userID), nullString(vendorProfileID), string(domain.StatusPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *eventRepository) listSummaries(ctx context.Context, query string, args ...any) ([]*domain.EventSummary, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.EventSummary, 0)
	for rows.Next() {
		s := &domain.EventSummary{}
		if err := rows.Scan(&s.ID, &s.Name, &s.HostID, &s.StartDate, &s.EndDate, &s.Budget); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func loadEvent(ctx context.Context, q querier, id string, forUpdate bool) (*domain.Event, error) {
	query := `
		SELECT id, name, host_id, start_date, end_date, budget, version, created_at, updated_at
		FROM events
		WHERE id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}
	e := &domain.Event{}
	err := q.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Name, &e.HostID, &e.StartDate, &e.EndDate, &e.Budget, &e.Version, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pqCode(err) == codeInvalidText {
			return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if e.SubEvents, err = loadSubEvents(ctx, q, id); err != nil {
		return nil, err
	}
	if e.Guests, err = loadGuests(ctx, q, id); err != nil {
		return nil, err
	}
	if e.ServiceOffers, err = loadOffers(ctx, q, id); err != nil {
		return nil, err
	}
	return e, nil
}

func loadSubEvents(ctx context.Context, q querier, eventID string) ([]*domain.SubEvent, error) {
	query := `
		SELECT id, name, venue, start_date, end_date
		FROM event_sub_events
		WHERE event_id = $1
		ORDER BY position
	`
	rows, err := q.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list sub-events: %w", err)
	}
	defer rows.Close()
	subs := make([]*domain.SubEvent, 0)
	for rows.Next() {
		s := &domain.SubEvent{}
		var start, end sql.NullTime
		if err := rows.Scan(&s.ID, &s.Name, &s.Venue, &start, &end); err != nil {
			return nil, err
		}
		s.StartDate = start.Time
		s.EndDate = end.Time
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func loadGuests(ctx context.Context, q querier, eventID string) ([]*domain.RosterEntry, error) {
	query := `
		SELECT id, user_id, role, capabilities, status, created_at, updated_at
		FROM event_guests
		WHERE event_id = $1
		ORDER BY position
	`
	rows, err := q.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	defer rows.Close()
	guests := make([]*domain.RosterEntry, 0)
	for rows.Next() {
		g := &domain.RosterEntry{}
		var role, status string
		var caps pq.StringArray
		if err := rows.Scan(&g.ID, &g.UserID, &role, &caps, &status, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		if g.Role, err = domain.ParseRole(role); err != nil {
			return nil, fmt.Errorf("guest %s: %w", g.ID, err)
		}
		if g.Capabilities, err = domain.ParseCapabilities(caps); err != nil {
			return nil, fmt.Errorf("guest %s: %w", g.ID, err)
		}
		if g.Status, err = domain.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("guest %s: %w", g.ID, err)
		}
		guests = append(guests, g)
	}
	return guests, rows.Err()
}

func loadOffers(ctx context.Context, q querier, eventID string) ([]*domain.ServiceOffer, error) {
	query := `
		SELECT id, vendor_profile_id, sub_event_ids, service_id, status, created_at, updated_at
		FROM event_service_offers
		WHERE event_id = $1
		ORDER BY position
	`
	rows, err := q.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list service offers: %w", err)
	}
	defer rows.Close()
	offers := make([]*domain.ServiceOffer, 0)
	for rows.Next() {
		o := &domain.ServiceOffer{}
		var subs pq.StringArray
		var status string
		if err := rows.Scan(&o.ID, &o.VendorProfileID, &subs, &o.ServiceID, &status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.SubEventIDs = append([]string{}, subs...)
		if o.Status, err = domain.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("offer %s: %w", o.ID, err)
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// saveChildren upserts every roster row and sub-event of e in slice order.
// Entries are never removed from an event, so no deletes are issued.
func saveChildren(ctx context.Context, q querier, e *domain.Event) error {
	subQuery := `
		INSERT INTO event_sub_events (id, event_id, position, name, venue, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET position = EXCLUDED.position, name = EXCLUDED.name, venue = EXCLUDED.venue,
		    start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date
	`
	for i, s := range e.SubEvents {
		if _, err := q.ExecContext(ctx, subQuery, s.ID, e.ID, i, s.Name, s.Venue, nullTime(s.StartDate), nullTime(s.EndDate)); err != nil {
			return fmt.Errorf("save sub-event: %w", err)
		}
	}

	guestQuery := `
		INSERT INTO event_guests (id, event_id, position, user_id, role, capabilities, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET position = EXCLUDED.position, role = EXCLUDED.role, capabilities = EXCLUDED.capabilities,
		    status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
	`
	for i, g := range e.Guests {
		_, err := q.ExecContext(ctx, guestQuery, g.ID, e.ID, i, g.UserID, string(g.Role), pq.Array(g.Capabilities.Strings()), string(g.Status), g.CreatedAt, g.UpdatedAt)
		if err != nil {
			if pqCode(err) == codeUniqueViolation {
				return fmt.Errorf("%w: user %s", domain.ErrDuplicateMembership, g.UserID)
			}
			return fmt.Errorf("save guest: %w", err)
		}
	}

	offerQuery := `
		INSERT INTO event_service_offers (id, event_id, position, vendor_profile_id, sub_event_ids, service_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET position = EXCLUDED.position, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
	`
	for i, o := range e.ServiceOffers {
		subs := o.SubEventIDs
		if subs == nil {
			subs = []string{}
		}
		_, err := q.ExecContext(ctx, offerQuery, o.ID, e.ID, i, o.VendorProfileID, pq.Array(subs), o.ServiceID, string(o.Status), o.CreatedAt, o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("save service offer: %w", err)
		}
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
