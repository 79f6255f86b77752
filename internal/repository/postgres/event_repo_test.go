package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"eventplanner/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0 = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	t1 = t0.Add(48 * time.Hour)

	eventColumns = []string{"id", "name", "host_id", "start_date", "end_date", "budget", "version", "created_at", "updated_at"}
	subColumns   = []string{"id", "name", "venue", "start_date", "end_date"}
	guestColumns = []string{"id", "user_id", "role", "capabilities", "status", "created_at", "updated_at"}
	offerColumns = []string{"id", "vendor_profile_id", "sub_event_ids", "service_id", "status", "created_at", "updated_at"}
)

// expectLoad queues the four reads loadEvent issues for ev-1: a host entry,
// one pending guest, one sub-event and one pending offer.
func expectLoad(mock sqlmock.Sqlmock, forUpdate bool) {
	eventQuery := `SELECT id, name, host_id, start_date, end_date, budget, version, created_at, updated_at FROM events WHERE id = \$1$`
	if forUpdate {
		eventQuery = `SELECT id, name, host_id, .* FROM events WHERE id = \$1 FOR UPDATE`
	}
	mock.ExpectQuery(eventQuery).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows(eventColumns).AddRow("ev-1", "Wedding", "host-1", t0, t1, 5000.0, int64(3), t0, t0))
	mock.ExpectQuery(`FROM event_sub_events WHERE event_id = \$1 ORDER BY position`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows(subColumns).AddRow("sub-1", "Reception", "Hall A", t0, nil))
	mock.ExpectQuery(`FROM event_guests WHERE event_id = \$1 ORDER BY position`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows(guestColumns).
			AddRow("g-host", "host-1", "host", "{"+joinCaps(domain.AllCapabilities())+"}", "accepted", t0, t0).
			AddRow("g-1", "u1", "co-host", "{invite-guest,view-roster}", "pending", t0, t0))
	mock.ExpectQuery(`FROM event_service_offers WHERE event_id = \$1 ORDER BY position`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows(offerColumns).AddRow("o-1", "vp-1", "{sub-1}", "svc-1", "pending", t0, t0))
}

func joinCaps(caps domain.CapabilitySet) string {
	out := ""
	for i, c := range caps.Strings() {
		if i > 0 {
			out += ","
		}
		out += c
	}
	return out
}

func expectSave(mock sqlmock.Sqlmock, guests int) {
	mock.ExpectExec(`INSERT INTO event_sub_events`).WillReturnResult(sqlmock.NewResult(0, 1))
	for i := 0; i < guests; i++ {
		mock.ExpectExec(`INSERT INTO event_guests`).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(`INSERT INTO event_service_offers`).WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestEventRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				expectLoad(mock, false)
				mock.ExpectCommit()
			},
		},
		{
			name: "not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`FROM events WHERE id = \$1`).
					WithArgs("ev-1").
					WillReturnError(sql.ErrNoRows)
				mock.ExpectRollback()
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "malformed id",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`FROM events WHERE id = \$1`).
					WithArgs("ev-1").
					WillReturnError(&pq.Error{Code: "22P02"})
				mock.ExpectRollback()
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "guest query error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`FROM events WHERE id = \$1`).
					WillReturnRows(sqlmock.NewRows(eventColumns).AddRow("ev-1", "Wedding", "host-1", t0, t1, 5000.0, int64(3), t0, t0))
				mock.ExpectQuery(`FROM event_sub_events`).WillReturnRows(sqlmock.NewRows(subColumns))
				mock.ExpectQuery(`FROM event_guests`).WillReturnError(sql.ErrConnDone)
				mock.ExpectRollback()
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			got, err := repo.GetByID(ctx, "ev-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, got)
				require.NoError(t, mock.ExpectationsWereMet())
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())

			assert.Equal(t, "Wedding", got.Name)
			assert.Equal(t, int64(3), got.Version)
			require.Len(t, got.SubEvents, 1)
			assert.True(t, got.SubEvents[0].EndDate.IsZero())
			require.Len(t, got.Guests, 2)
			assert.Equal(t, domain.AllCapabilities(), got.Guests[0].Capabilities)
			assert.Equal(t, domain.RoleCoHost, got.Guests[1].Role)
			assert.Equal(t, domain.CapabilitySet{domain.CapInviteGuest, domain.CapViewRoster}, got.Guests[1].Capabilities)
			assert.Equal(t, domain.StatusPending, got.Guests[1].Status)
			require.Len(t, got.ServiceOffers, 1)
			assert.Equal(t, []string{"sub-1"}, got.ServiceOffers[0].SubEventIDs)
		})
	}
}

func TestEventRepository_GetByID_rejectsUnknownCapability(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM events WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(eventColumns).AddRow("ev-1", "Wedding", "host-1", t0, t1, 5000.0, int64(1), t0, t0))
	mock.ExpectQuery(`FROM event_sub_events`).WillReturnRows(sqlmock.NewRows(subColumns))
	mock.ExpectQuery(`FROM event_guests`).
		WillReturnRows(sqlmock.NewRows(guestColumns).AddRow("g-1", "u1", "guest", "{fly}", "pending", t0, t0))
	mock.ExpectRollback()

	_, err = NewEventRepository(db).GetByID(context.Background(), "ev-1")
	require.ErrorIs(t, err, domain.ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Update(t *testing.T) {
	ctx := context.Background()
	invite := func(e *domain.Event) error {
		_, err := e.InviteGuest("u2", domain.RoleGuest, domain.NewCapabilitySet(), t0)
		return err
	}
	serialization := &pq.Error{Code: "40001"}

	tests := []struct {
		name      string
		mutate    func(*domain.Event) error
		mock      func(mock sqlmock.Sqlmock)
		wantErr   error
		wantCalls int
	}{
		{
			name:   "invite persisted",
			mutate: invite,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				expectLoad(mock, true)
				expectSave(mock, 3)
				mock.ExpectExec(`UPDATE events SET name = \$1`).
					WithArgs("Wedding", t0, t1, 5000.0, int64(4), sqlmock.AnyArg(), "ev-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			wantCalls: 1,
		},
		{
			name:   "unique violation is a duplicate membership",
			mutate: invite,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				expectLoad(mock, true)
				mock.ExpectExec(`INSERT INTO event_sub_events`).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO event_guests`).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO event_guests`).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO event_guests`).WillReturnError(&pq.Error{Code: "23505"})
				mock.ExpectRollback()
			},
			wantErr:   domain.ErrDuplicateMembership,
			wantCalls: 1,
		},
		{
			name:   "serialization failure is retried",
			mutate: invite,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				expectLoad(mock, true)
				expectSave(mock, 3)
				mock.ExpectExec(`UPDATE events`).WillReturnError(serialization)
				mock.ExpectRollback()

				mock.ExpectBegin()
				expectLoad(mock, true)
				expectSave(mock, 3)
				mock.ExpectExec(`UPDATE events`).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			wantCalls: 2,
		},
		{
			name:   "conflict after retries",
			mutate: invite,
			mock: func(mock sqlmock.Sqlmock) {
				for i := 0; i < maxUpdateAttempts; i++ {
					mock.ExpectBegin()
					mock.ExpectQuery(`FOR UPDATE`).WillReturnError(&pq.Error{Code: "40P01"})
					mock.ExpectRollback()
				}
			},
			wantErr: domain.ErrConflict,
		},
		{
			name: "mutate error rolls back",
			mutate: func(e *domain.Event) error {
				_, err := e.InviteGuest("u1", domain.RoleGuest, nil, t0)
				return err
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				expectLoad(mock, true)
				mock.ExpectRollback()
			},
			wantErr:   domain.ErrDuplicateMembership,
			wantCalls: 1,
		},
		{
			name:   "missing event",
			mutate: invite,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`FOR UPDATE`).WillReturnError(sql.ErrNoRows)
				mock.ExpectRollback()
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			calls := 0
			repo := NewEventRepository(db)
			got, err := repo.Update(ctx, "ev-1", func(e *domain.Event) error {
				calls++
				return tt.mutate(e)
			})
			require.NoError(t, mock.ExpectationsWereMet())
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(4), got.Version)
			entry, ok := got.Guest("u2")
			require.True(t, ok)
			assert.Equal(t, domain.StatusPending, entry.Status)
		})
	}
}

func TestEventRepository_Create(t *testing.T) {
	ctx := context.Background()
	e, err := domain.NewEvent("ev-1", "Wedding", "host-1", t0, t1, 5000, t0)
	require.NoError(t, err)
	e.SeedHost(t0)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr bool
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT INTO events \(id, name, host_id, start_date, end_date, budget, version, created_at, updated_at\)`).
					WithArgs("ev-1", "Wedding", "host-1", t0, t1, 5000.0, int64(1), t0, t0).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO event_guests`).
					WithArgs(sqlmock.AnyArg(), "ev-1", 0, "host-1", "host", sqlmock.AnyArg(), "accepted", t0, t0).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT INTO events`).WillReturnError(sql.ErrConnDone)
				mock.ExpectRollback()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = NewEventRepository(db).Create(ctx, e.Clone())
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).
					WithArgs("ev-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).
					WithArgs("ev-1").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM events`).WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = NewEventRepository(db).Delete(ctx, "ev-1")
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr))
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_Listings(t *testing.T) {
	ctx := context.Background()
	summaryColumns := []string{"id", "name", "host_id", "start_date", "end_date", "budget"}

	t.Run("by member", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`WHERE e.host_id = \$1 OR EXISTS`).
			WithArgs("u1", "accepted").
			WillReturnRows(sqlmock.NewRows(summaryColumns).
				AddRow("ev-1", "Wedding", "host-1", t0, t1, 5000.0).
				AddRow("ev-2", "Party", "u1", t0, t1, 0.0))

		got, err := NewEventRepository(db).ListByMember(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, []*domain.EventSummary{
			{ID: "ev-1", Name: "Wedding", HostID: "host-1", StartDate: t0, EndDate: t1, Budget: 5000},
			{ID: "ev-2", Name: "Party", HostID: "u1", StartDate: t0, EndDate: t1},
		}, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("by accepted vendor empty", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM event_service_offers o`).
			WithArgs("vp-1", "accepted").
			WillReturnRows(sqlmock.NewRows(summaryColumns))

		got, err := NewEventRepository(db).ListByAcceptedVendor(ctx, "vp-1")
		require.NoError(t, err)
		require.Equal(t, []*domain.EventSummary{}, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("pending ids without vendor profile", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT e.id FROM events e`).
			WithArgs("u1", nil, "pending").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-1").AddRow("ev-3"))

		got, err := NewEventRepository(db).ListPendingIDs(ctx, "u1", "")
		require.NoError(t, err)
		require.Equal(t, []string{"ev-1", "ev-3"}, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
