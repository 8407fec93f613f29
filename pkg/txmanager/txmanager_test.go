package txmanager

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
)

func newManager(t *testing.T) (*TransactionManager, *dbmetrics.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	wrapped := dbmetrics.Wrap(db, nil)
	return NewTransactionManager(wrapped), wrapped, mock
}

func updateBooking(db dbmetrics.DBExecutor) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := dbmetrics.GetExecutor(ctx, db).ExecContext(ctx, "UPDATE bookings SET status = 'cancelled' WHERE id = 1")
		if err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		return nil
	}
}

func TestDo_RetriesDeadlock(t *testing.T) {
	m, db, mock := newManager(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings").WillReturnError(&pq.Error{Code: "40P01"})
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, m.Do(context.Background(), updateBooking(db)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDo_GivesUpAfterMaxAttempts(t *testing.T) {
	m, db, mock := newManager(t)

	for i := 0; i < maxAttempts; i++ {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE bookings").WillReturnError(&pq.Error{Code: "40001"})
		mock.ExpectRollback()
	}

	err := m.Do(context.Background(), updateBooking(db))
	var pqErr *pq.Error
	require.ErrorAs(t, err, &pqErr)
	assert.Equal(t, "40001", string(pqErr.Code))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDo_DoesNotRetryOtherErrors(t *testing.T) {
	m, db, mock := newManager(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := m.Do(context.Background(), updateBooking(db))
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDo_NestedCallReusesTransaction(t *testing.T) {
	m, db, mock := newManager(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings").WillReturnError(&pq.Error{Code: "40P01"})
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// вложенный Do не повторяет сам, повторяется только внешняя транзакция
	inner := 0
	err := m.Do(context.Background(), func(ctx context.Context) error {
		return m.Do(ctx, func(ctx context.Context) error {
			inner++
			assert.True(t, dbmetrics.IsInTransaction(ctx))
			return updateBooking(db)(ctx)
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inner)
	assert.NoError(t, mock.ExpectationsWereMet())
}
