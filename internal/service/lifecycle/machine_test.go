package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

// now = 2026-05-12 10:00:01 UTC
var testNow = time.Date(2026, 5, 12, 10, 0, 1, 0, time.UTC)

func newTestMachine() *Machine {
	return NewMachine(fixedClock{now: testNow}, 2*time.Hour, time.UTC)
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func bookingAt(start time.Time, status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		ID:              7,
		RequesterID:     1,
		ProviderID:      2,
		BookingDate:     day(start),
		StartTime:       types.NewTimeString(start),
		DurationMinutes: 30,
		Status:          status,
	}
}

func TestMachine_Book(t *testing.T) {
	m := newTestMachine()

	t.Run("slot one second in the past", func(t *testing.T) {
		// 10:00 when now is 10:00:01
		_, err := m.Book(BookRequest{
			RequesterID: 1,
			ProviderID:  2,
			Date:        day(testNow),
			StartTime:   "10:00",
		})
		assert.ErrorIs(t, err, domain.ErrPastAppointment)
	})

	t.Run("slot in one hour", func(t *testing.T) {
		start := testNow.Add(time.Hour)
		b, err := m.Book(BookRequest{
			RequesterID: 1,
			ProviderID:  2,
			Date:        day(start),
			StartTime:   types.NewTimeString(start),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusScheduled, b.Status)
		assert.Equal(t, domain.DefaultDurationMinutes, b.DurationMinutes)
		assert.Equal(t, domain.ConsultationVideo, b.ConsultationType)
		assert.Equal(t, types.TimeString("11:00"), b.StartTime)
	})
}

func TestMachine_Cancel(t *testing.T) {
	m := newTestMachine()

	t.Run("starts in 90 minutes", func(t *testing.T) {
		b := bookingAt(testNow.Add(90*time.Minute), domain.StatusScheduled)
		err := m.Cancel(b, nil)
		assert.ErrorIs(t, err, domain.ErrCancellationWindowClosed)
		assert.Equal(t, domain.StatusScheduled, b.Status)
		assert.Nil(t, b.CancelledAt)
	})

	t.Run("starts in 3 hours", func(t *testing.T) {
		b := bookingAt(testNow.Add(3*time.Hour), domain.StatusConfirmed)
		err := m.Cancel(b, ptr.Ptr("changed plans"))
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, b.Status)
		require.NotNil(t, b.CancelledAt)
		assert.Equal(t, "changed plans", *b.CancellationReason)
	})

	t.Run("exactly at the grace window", func(t *testing.T) {
		clock := fixedClock{now: time.Date(2026, 5, 12, 10, 0, 0, 0, time.UTC)}
		m := NewMachine(clock, 2*time.Hour, time.UTC)
		b := bookingAt(clock.now.Add(2*time.Hour), domain.StatusScheduled)
		assert.ErrorIs(t, m.Cancel(b, nil), domain.ErrCancellationWindowClosed)
	})

	t.Run("terminal booking", func(t *testing.T) {
		for _, status := range domain.TerminalStatuses {
			b := bookingAt(testNow.Add(5*time.Hour), status)
			err := m.Cancel(b, nil)
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
			assert.Equal(t, status, b.Status)
		}
	})
}

func TestMachine_Reschedule(t *testing.T) {
	m := newTestMachine()
	newStart := testNow.Add(48 * time.Hour)

	t.Run("confirmed resets to scheduled", func(t *testing.T) {
		b := bookingAt(testNow.Add(24*time.Hour), domain.StatusConfirmed)
		require.NoError(t, m.Reschedule(b, day(newStart), types.NewTimeString(newStart)))
		assert.Equal(t, domain.StatusScheduled, b.Status)
		assert.Equal(t, day(newStart), b.BookingDate)
	})

	t.Run("cancelled booking", func(t *testing.T) {
		b := bookingAt(testNow.Add(24*time.Hour), domain.StatusCancelled)
		err := m.Reschedule(b, day(newStart), types.NewTimeString(newStart))
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Equal(t, domain.StatusCancelled, b.Status)
		assert.Equal(t, day(testNow.Add(24*time.Hour)), b.BookingDate)
	})

	t.Run("in progress booking", func(t *testing.T) {
		b := bookingAt(testNow.Add(-10*time.Minute), domain.StatusInProgress)
		err := m.Reschedule(b, day(newStart), types.NewTimeString(newStart))
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("new time in the past", func(t *testing.T) {
		original := testNow.Add(24 * time.Hour)
		b := bookingAt(original, domain.StatusScheduled)
		err := m.Reschedule(b, day(testNow), "09:00")
		assert.ErrorIs(t, err, domain.ErrPastAppointment)
		assert.Equal(t, types.NewTimeString(original), b.StartTime)
	})
}

func TestMachine_ConfirmViaPayment(t *testing.T) {
	m := newTestMachine()

	b := bookingAt(testNow.Add(24*time.Hour), domain.StatusScheduled)
	changed, err := m.ConfirmViaPayment(b)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.StatusConfirmed, b.Status)

	changed, err = m.ConfirmViaPayment(b)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, domain.StatusConfirmed, b.Status)

	cancelled := bookingAt(testNow.Add(24*time.Hour), domain.StatusCancelled)
	_, err = m.ConfirmViaPayment(cancelled)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
}

func TestMachine_StartAndComplete(t *testing.T) {
	m := newTestMachine()

	b := bookingAt(testNow, domain.StatusScheduled)
	assert.ErrorIs(t, m.Start(b), domain.ErrInvalidTransition)
	assert.ErrorIs(t, m.Complete(b), domain.ErrInvalidTransition)

	b.Status = domain.StatusConfirmed
	require.NoError(t, m.Start(b))
	assert.Equal(t, domain.StatusInProgress, b.Status)

	require.NoError(t, m.Complete(b))
	assert.Equal(t, domain.StatusCompleted, b.Status)

	assert.ErrorIs(t, m.Complete(b), domain.ErrInvalidTransition)
	assert.ErrorIs(t, m.Cancel(b, nil), domain.ErrInvalidTransition)
}
