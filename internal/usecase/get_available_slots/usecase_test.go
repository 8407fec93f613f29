package get_available_slots

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

// вторник, 10:00:01 UTC
var testNow = time.Date(2026, 5, 12, 10, 0, 1, 0, time.UTC)

var today = time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)

func newUseCase(t *testing.T) (*UseCase, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	store.Providers().Put(context.Background(), &domain.Provider{
		ID:       2,
		Name:     "Dr. Test",
		IsActive: true,
		WorkingHours: domain.WorkingHours{
			time.Tuesday: {IsOpen: true, OpenTime: "09:00", CloseTime: "12:00"},
		},
	})
	store.Providers().Put(context.Background(), &domain.Provider{ID: 3, IsActive: false})

	uc := NewUseCase(store.Bookings(), store.Providers(), Settings{SlotDurationMinutes: 30}, logger.NewNop())
	uc.timeProvider = fixedClock{now: testNow}
	return uc, store
}

func startTimes(slots []Slot) []types.TimeString {
	result := make([]types.TimeString, len(slots))
	for i, s := range slots {
		result[i] = s.StartTime
	}
	return result
}

func TestUseCase_TodaySkipsPastSlots(t *testing.T) {
	uc, store := newUseCase(t)

	_, err := store.Bookings().Create(context.Background(), &domain.Booking{
		RequesterID:     1,
		ProviderID:      2,
		BookingDate:     today,
		StartTime:       "11:00",
		DurationMinutes: 30,
		Status:          domain.StatusConfirmed,
	})
	require.NoError(t, err)

	resp, err := uc.Execute(context.Background(), &Request{ProviderID: 2, Date: today})
	require.NoError(t, err)

	assert.Equal(t, []types.TimeString{"10:30", "11:00", "11:30"}, startTimes(resp.Slots))
	assert.True(t, resp.Slots[0].Available)
	assert.False(t, resp.Slots[1].Available)
	assert.True(t, resp.Slots[2].Available)
}

func TestUseCase_CancelledBookingFreesSlot(t *testing.T) {
	uc, store := newUseCase(t)
	nextWeek := today.AddDate(0, 0, 7)

	_, err := store.Bookings().Create(context.Background(), &domain.Booking{
		ProviderID:      2,
		BookingDate:     nextWeek,
		StartTime:       "09:00",
		DurationMinutes: 30,
		Status:          domain.StatusCancelled,
	})
	require.NoError(t, err)

	resp, err := uc.Execute(context.Background(), &Request{ProviderID: 2, Date: nextWeek})
	require.NoError(t, err)
	require.Len(t, resp.Slots, 6)
	for _, slot := range resp.Slots {
		assert.True(t, slot.Available, slot.StartTime)
	}
}

func TestUseCase_DayOff(t *testing.T) {
	uc, _ := newUseCase(t)

	resp, err := uc.Execute(context.Background(), &Request{ProviderID: 2, Date: today.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
}

func TestUseCase_Errors(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	_, err := uc.Execute(ctx, &Request{ProviderID: 99, Date: today})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Execute(ctx, &Request{ProviderID: 3, Date: today})
	assert.ErrorIs(t, err, ErrProviderNotFound)

	_, err = uc.Execute(ctx, &Request{ProviderID: 2, Date: today.AddDate(0, 0, -1)})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = uc.Execute(ctx, &Request{ProviderID: 0, Date: today})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOverlapsAny_Boundaries(t *testing.T) {
	bookings := []*domain.Booking{
		{StartTime: "11:00", DurationMinutes: 30, Status: domain.StatusScheduled},
	}

	assert.False(t, overlapsAny("11:30", 30, bookings))
	assert.False(t, overlapsAny("10:30", 30, bookings))
	assert.True(t, overlapsAny("10:45", 30, bookings))
}
