package booking

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/pgerr"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

var slotDate = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) (*Repository, *dbmetrics.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	wrapped := dbmetrics.Wrap(db, nil)
	return NewRepository(wrapped), wrapped, mock
}

func bookingRows() *sqlmock.Rows {
	return sqlmock.NewRows(bookingColumns)
}

func addBookingRow(rows *sqlmock.Rows, id int64, status domain.BookingStatus) *sqlmock.Rows {
	now := time.Date(2026, 5, 30, 8, 0, 0, 0, time.UTC)
	return rows.AddRow(id, int64(1), int64(2), slotDate, "10:00:00", 30, "video", nil, string(status), 3, nil, nil, now, now)
}

func newBooking() *domain.Booking {
	return &domain.Booking{
		ID:               7,
		RequesterID:      1,
		ProviderID:       2,
		BookingDate:      slotDate,
		StartTime:        types.TimeString("10:00"),
		DurationMinutes:  30,
		ConsultationType: domain.ConsultationVideo,
		Status:           domain.StatusScheduled,
		Version:          3,
	}
}

func TestRepository_Create(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		repo, _, mock := newRepo(t)
		now := time.Now()
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings (requester_id,provider_id,booking_date,start_time,duration_minutes,consultation_type,notes,status) VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, version, created_at, updated_at")).
			WithArgs(int64(1), int64(2), slotDate, "10:00", 30, "video", nil, "scheduled").
			WillReturnRows(sqlmock.NewRows([]string{"id", "version", "created_at", "updated_at"}).AddRow(int64(11), 1, now, now))

		b := newBooking()
		b.ID, b.Version = 0, 0
		created, err := repo.Create(context.Background(), b)
		require.NoError(t, err)
		assert.Equal(t, int64(11), created.ID)
		assert.Equal(t, int64(1), created.Version)
	})

	t.Run("active slot taken", func(t *testing.T) {
		repo, _, mock := newRepo(t)
		mock.ExpectQuery("INSERT INTO bookings").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "ux_bookings_active_slot"})

		_, err := repo.Create(context.Background(), newBooking())
		assert.ErrorIs(t, err, ErrSlotTaken)
		assert.ErrorIs(t, err, domain.ErrPersistenceConflict)
	})

	t.Run("other unique violation keeps driver error", func(t *testing.T) {
		repo, _, mock := newRepo(t)
		mock.ExpectQuery("INSERT INTO bookings").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "bookings_pkey"})

		_, err := repo.Create(context.Background(), newBooking())
		assert.ErrorIs(t, err, ErrExecQuery)
		assert.NotErrorIs(t, err, ErrSlotTaken)
		_, ok := pgerr.UniqueViolation(err)
		assert.True(t, ok)
	})
}

func TestRepository_GetByIDLocksOnlyInTransaction(t *testing.T) {
	repo, db, mock := newRepo(t)
	ctx := context.Background()

	mock.ExpectQuery(`FROM bookings WHERE id = \$1$`).
		WithArgs(int64(7)).
		WillReturnRows(addBookingRow(bookingRows(), 7, domain.StatusScheduled))

	b, err := repo.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, types.TimeString("10:00"), b.StartTime)
	assert.Equal(t, domain.StatusScheduled, b.Status)
	assert.Equal(t, int64(3), b.Version)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bookings WHERE id = \$1 FOR UPDATE$`).
		WithArgs(int64(7)).
		WillReturnRows(addBookingRow(bookingRows(), 7, domain.StatusConfirmed))
	mock.ExpectRollback()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	b, err = repo.GetByID(dbmetrics.WithTx(ctx, tx), 7)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, b.Status)
	require.NoError(t, tx.Rollback())
}

func TestRepository_GetByIDNotFound(t *testing.T) {
	repo, _, mock := newRepo(t)
	mock.ExpectQuery("FROM bookings").WillReturnRows(bookingRows())

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_Update(t *testing.T) {
	const updateSQL = `UPDATE bookings SET .*version = version \+ 1, updated_at = NOW\(\) WHERE id = \$7 AND version = \$8 RETURNING version, updated_at`

	t.Run("ok", func(t *testing.T) {
		repo, _, mock := newRepo(t)
		mock.ExpectQuery(updateSQL).
			WithArgs(slotDate, "10:00", "confirmed", nil, nil, nil, int64(7), 3).
			WillReturnRows(sqlmock.NewRows([]string{"version", "updated_at"}).AddRow(4, time.Now()))

		b := newBooking()
		b.Status = domain.StatusConfirmed
		updated, err := repo.Update(context.Background(), b)
		require.NoError(t, err)
		assert.Equal(t, int64(4), updated.Version)
	})

	t.Run("stale version", func(t *testing.T) {
		repo, _, mock := newRepo(t)
		mock.ExpectQuery(updateSQL).
			WillReturnRows(sqlmock.NewRows([]string{"version", "updated_at"}))

		_, err := repo.Update(context.Background(), newBooking())
		assert.ErrorIs(t, err, ErrVersionConflict)
		assert.ErrorIs(t, err, domain.ErrPersistenceConflict)
	})

	t.Run("rescheduled into taken slot", func(t *testing.T) {
		repo, _, mock := newRepo(t)
		mock.ExpectQuery(updateSQL).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "ux_bookings_active_slot"})

		_, err := repo.Update(context.Background(), newBooking())
		assert.ErrorIs(t, err, ErrSlotTaken)
	})

	t.Run("deadlock stays visible to the caller", func(t *testing.T) {
		repo, _, mock := newRepo(t)
		mock.ExpectQuery(updateSQL).WillReturnError(&pq.Error{Code: "40P01"})

		_, err := repo.Update(context.Background(), newBooking())
		assert.ErrorIs(t, err, ErrExecQuery)
		assert.True(t, pgerr.Retryable(err))
	})
}

func TestRepository_FindConflict(t *testing.T) {
	repo, _, mock := newRepo(t)
	exclude := int64(7)

	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE booking_date = $1 AND provider_id = $2 AND start_time = $3 AND status IN ($4,$5,$6) AND id <> $7 LIMIT 1")).
		WithArgs(slotDate, int64(2), "10:00", "scheduled", "confirmed", "in_progress", exclude).
		WillReturnRows(bookingRows())

	conflict, err := repo.FindConflict(context.Background(), 2, slotDate, types.TimeString("10:00"), &exclude)
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestRepository_ListUpcoming(t *testing.T) {
	repo, _, mock := newRepo(t)
	from := time.Date(2026, 6, 1, 10, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE requester_id = $1 AND status IN ($2,$3) AND (booking_date > $4 OR (booking_date = $5 AND start_time >= $6)) ORDER BY booking_date ASC, start_time ASC LIMIT 5")).
		WithArgs(int64(1), "scheduled", "confirmed", "2026-06-01", "2026-06-01", "10:30").
		WillReturnRows(addBookingRow(addBookingRow(bookingRows(), 8, domain.StatusConfirmed), 9, domain.StatusScheduled))

	bookings, err := repo.ListUpcoming(context.Background(), domain.UpcomingBookingsFilter{RequesterID: 1, From: from, Limit: 5})
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, int64(8), bookings[0].ID)
}

func TestRepository_CountByStatus(t *testing.T) {
	repo, _, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) FROM bookings WHERE requester_id = $1 GROUP BY status")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("scheduled", int64(2)).
			AddRow("completed", int64(5)))

	counts, err := repo.CountByStatus(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[domain.StatusScheduled])
	assert.Equal(t, int64(5), counts[domain.StatusCompleted])
	assert.Equal(t, int64(7), counts.Total())
}
