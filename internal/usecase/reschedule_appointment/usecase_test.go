package reschedule_appointment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-AppointmentService/internal/service/lifecycle"
	"github.com/m04kA/SMC-AppointmentService/internal/service/reconciliation"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type fixedClock struct{}

// now = 2026-05-12 10:00:00 UTC
func (fixedClock) Now() time.Time { return time.Date(2026, 5, 12, 10, 0, 0, 0, time.UTC) }

var (
	tomorrow = time.Date(2026, 5, 13, 0, 0, 0, 0, time.UTC)
	nextDay  = time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	uc    *UseCase
	store *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	machine := lifecycle.NewMachine(fixedClock{}, 2*time.Hour, time.UTC)
	engine := reconciliation.NewEngine(
		store.Bookings(), store.Payments(), store.TxManager(),
		nil, nil, nil, machine, nil, logger.NewNop(), reconciliation.Options{},
	)

	uc := NewUseCase(store.Bookings(), machine, engine, store.TxManager(), nil, (*metrics.Metrics)(nil), logger.NewNop())
	return &fixture{uc: uc, store: store}
}

func (f *fixture) book(t *testing.T, requester int64, date time.Time, start string, status domain.BookingStatus) *domain.Booking {
	t.Helper()
	b, err := f.store.Bookings().Create(context.Background(), &domain.Booking{
		RequesterID:     requester,
		ProviderID:      2,
		BookingDate:     date,
		StartTime:       types.TimeString(start),
		DurationMinutes: 30,
		Status:          status,
	})
	require.NoError(t, err)
	return b
}

func TestUseCase_Reschedule(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 1, tomorrow, "09:00", domain.StatusConfirmed)

	resp, err := f.uc.Execute(context.Background(), &Request{
		RequesterID: 1,
		BookingID:   b.ID,
		Date:        nextDay,
		StartTime:   "14:30",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, resp.Booking.Status)
	assert.False(t, resp.Reconfirmed)
	assert.Equal(t, types.TimeString("14:30"), resp.Booking.StartTime)

	// старый слот освобождён
	conflict, err := f.store.Bookings().FindConflict(context.Background(), 2, tomorrow, "09:00", nil)
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestUseCase_RescheduleCancelled(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 1, tomorrow, "09:00", domain.StatusCancelled)

	_, err := f.uc.Execute(context.Background(), &Request{
		RequesterID: 1,
		BookingID:   b.ID,
		Date:        nextDay,
		StartTime:   "10:00",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, err := f.store.Bookings().GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, tomorrow, stored.BookingDate)
	assert.Equal(t, domain.StatusCancelled, stored.Status)
}

func TestUseCase_RescheduleIntoTakenSlot(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 1, tomorrow, "09:00", domain.StatusScheduled)
	f.book(t, 2, nextDay, "10:00", domain.StatusScheduled)

	_, err := f.uc.Execute(context.Background(), &Request{
		RequesterID: 1,
		BookingID:   b.ID,
		Date:        nextDay,
		StartTime:   "10:00",
	})
	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
}

func TestUseCase_RescheduleIntoOwnSlot(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 1, tomorrow, "09:00", domain.StatusScheduled)

	_, err := f.uc.Execute(context.Background(), &Request{
		RequesterID: 1,
		BookingID:   b.ID,
		Date:        tomorrow,
		StartTime:   "09:00",
	})
	assert.NoError(t, err)
}

func TestUseCase_RescheduleForeignBooking(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 1, tomorrow, "09:00", domain.StatusScheduled)

	_, err := f.uc.Execute(context.Background(), &Request{
		RequesterID: 42,
		BookingID:   b.ID,
		Date:        nextDay,
		StartTime:   "10:00",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUseCase_RescheduleIntoPast(t *testing.T) {
	f := newFixture(t)
	b := f.book(t, 1, tomorrow, "09:00", domain.StatusScheduled)

	_, err := f.uc.Execute(context.Background(), &Request{
		RequesterID: 1,
		BookingID:   b.ID,
		Date:        time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC),
		StartTime:   "09:00",
	})
	assert.ErrorIs(t, err, domain.ErrPastAppointment)
}

func TestUseCase_ReschedulePaidBookingStaysConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, 1, tomorrow, "09:00", domain.StatusConfirmed)

	_, err := f.store.Payments().Create(ctx, &domain.PaymentRecord{
		BookingID:   b.ID,
		RequesterID: 1,
		Amount:      5000,
		Currency:    "USD",
		Method:      domain.MethodCard,
		Reference:   "APT-paid",
		Status:      domain.PaymentCompleted,
	})
	require.NoError(t, err)

	resp, err := f.uc.Execute(ctx, &Request{
		RequesterID: 1,
		BookingID:   b.ID,
		Date:        nextDay,
		StartTime:   "11:00",
	})
	require.NoError(t, err)
	assert.True(t, resp.Reconfirmed)
	assert.Equal(t, domain.StatusConfirmed, resp.Booking.Status)

	stored, err := f.store.Bookings().GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, stored.Status)
	assert.Equal(t, nextDay, stored.BookingDate)
}
