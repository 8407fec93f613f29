package book_appointment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-AppointmentService/internal/service/lifecycle"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
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

var today = time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) PublishJSON(_ context.Context, key string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}

func newUseCase(t *testing.T) (*UseCase, *memory.Store, *recordingPublisher) {
	t.Helper()

	store := memory.NewStore()
	store.Providers().Put(context.Background(), &domain.Provider{ID: 2, Name: "Dr. Test", IsActive: true})
	store.Providers().Put(context.Background(), &domain.Provider{ID: 3, Name: "Retired", IsActive: false})

	publisher := &recordingPublisher{}
	machine := lifecycle.NewMachine(fixedClock{now: testNow}, 2*time.Hour, time.UTC)
	uc := NewUseCase(store.Bookings(), store.Providers(), machine, publisher, (*metrics.Metrics)(nil), logger.NewNop())
	return uc, store, publisher
}

func TestUseCase_Book(t *testing.T) {
	uc, _, publisher := newUseCase(t)

	resp, err := uc.Execute(context.Background(), &Request{
		RequesterID: 1,
		ProviderID:  2,
		Date:        today,
		StartTime:   "11:00",
	})
	require.NoError(t, err)
	assert.NotZero(t, resp.Booking.ID)
	assert.Equal(t, domain.StatusScheduled, resp.Booking.Status)
	assert.Equal(t, domain.DefaultDurationMinutes, resp.Booking.DurationMinutes)
	assert.Equal(t, []string{domain.EventBookingCreated}, publisher.keys)
}

func TestUseCase_PastSlot(t *testing.T) {
	uc, _, _ := newUseCase(t)

	// 10:00 при now = 10:00:01
	_, err := uc.Execute(context.Background(), &Request{
		RequesterID: 1,
		ProviderID:  2,
		Date:        today,
		StartTime:   "10:00",
	})
	assert.ErrorIs(t, err, domain.ErrPastAppointment)
}

func TestUseCase_SlotTaken(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	req := func(requester int64) *Request {
		return &Request{RequesterID: requester, ProviderID: 2, Date: today, StartTime: "11:00"}
	}

	_, err := uc.Execute(ctx, req(1))
	require.NoError(t, err)

	_, err = uc.Execute(ctx, req(2))
	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
}

func TestUseCase_ConcurrentBooking(t *testing.T) {
	uc, store, _ := newUseCase(t)

	const n = 32
	var wg sync.WaitGroup
	var succeeded, unavailable int32

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(requester int64) {
			defer wg.Done()
			_, err := uc.Execute(context.Background(), &Request{
				RequesterID: requester,
				ProviderID:  2,
				Date:        today,
				StartTime:   "11:00",
			})
			switch {
			case err == nil:
				atomic.AddInt32(&succeeded, 1)
			case errors.Is(err, domain.ErrSlotUnavailable):
				atomic.AddInt32(&unavailable, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded)
	assert.Equal(t, int32(n-1), unavailable)

	active, err := store.Bookings().ListNonTerminal(context.Background(), 2, today)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestUseCase_NormalizesStartTime(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	_, err := uc.Execute(ctx, &Request{RequesterID: 1, ProviderID: 2, Date: today, StartTime: "11:00:00"})
	require.NoError(t, err)

	_, err = uc.Execute(ctx, &Request{RequesterID: 2, ProviderID: 2, Date: today, StartTime: "11:00"})
	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
}

func TestUseCase_Validation(t *testing.T) {
	uc, _, _ := newUseCase(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     *Request
		wantErr error
	}{
		{"missing requester", &Request{ProviderID: 2, Date: today, StartTime: "11:00"}, ErrInvalidInput},
		{"bad time", &Request{RequesterID: 1, ProviderID: 2, Date: today, StartTime: "25:00"}, ErrInvalidInput},
		{"end of day is not a start", &Request{RequesterID: 1, ProviderID: 2, Date: today, StartTime: "24:00"}, ErrInvalidInput},
		{"duration too long", &Request{RequesterID: 1, ProviderID: 2, Date: today, StartTime: "11:00", DurationMinutes: 600}, ErrInvalidInput},
		{"unknown type", &Request{RequesterID: 1, ProviderID: 2, Date: today, StartTime: "11:00", ConsultationType: "fax"}, ErrInvalidInput},
		{"unknown provider", &Request{RequesterID: 1, ProviderID: 99, Date: today, StartTime: "11:00"}, domain.ErrNotFound},
		{"inactive provider", &Request{RequesterID: 1, ProviderID: 3, Date: today, StartTime: "11:00"}, ErrProviderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUseCase_ReleasedSlotCanBeRebooked(t *testing.T) {
	uc, store, _ := newUseCase(t)
	ctx := context.Background()

	resp, err := uc.Execute(ctx, &Request{RequesterID: 1, ProviderID: 2, Date: today, StartTime: types.TimeString("15:00")})
	require.NoError(t, err)

	cancelled := resp.Booking.Clone()
	cancelled.Status = domain.StatusCancelled
	_, err = store.Bookings().Update(ctx, cancelled)
	require.NoError(t, err)

	_, err = uc.Execute(ctx, &Request{RequesterID: 2, ProviderID: 2, Date: today, StartTime: "15:00"})
	assert.NoError(t, err)
}
