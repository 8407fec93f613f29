package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// BookingRepository хранилище слотов в памяти
type BookingRepository struct {
	store *Store
}

func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	defer r.store.lock(ctx)()
	st := r.store.state

	key := keyOf(booking)
	if booking.IsActive() {
		if _, taken := st.activeSlots[key]; taken {
			return nil, ErrSlotTaken
		}
	}

	st.nextBookingID++
	now := r.store.now()
	booking.ID = st.nextBookingID
	booking.Version = 1
	booking.CreatedAt = now
	booking.UpdatedAt = now

	st.bookings[booking.ID] = booking.Clone()
	if booking.IsActive() {
		st.activeSlots[key] = booking.ID
	}

	return booking, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	defer r.store.lock(ctx)()

	booking, ok := r.store.state.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return booking.Clone(), nil
}

func (r *BookingRepository) FindConflict(
	ctx context.Context,
	providerID int64,
	date time.Time,
	startTime types.TimeString,
	excludeID *int64,
) (*domain.Booking, error) {
	defer r.store.lock(ctx)()
	st := r.store.state

	id, ok := st.activeSlots[slotKey{
		providerID: providerID,
		date:       date.Format(domain.DateFormat),
		startTime:  startTime,
	}]
	if !ok || (excludeID != nil && id == *excludeID) {
		return nil, nil
	}
	return st.bookings[id].Clone(), nil
}

func (r *BookingRepository) ListNonTerminal(ctx context.Context, providerID int64, date time.Time) ([]*domain.Booking, error) {
	return r.ListByProvider(ctx, domain.ProviderBookingsFilter{
		ProviderID: providerID,
		Date:       &date,
	})
}

func (r *BookingRepository) ListByRequester(ctx context.Context, filter domain.RequesterBookingsFilter) ([]*domain.Booking, error) {
	defer r.store.lock(ctx)()

	result := make([]*domain.Booking, 0)
	for _, b := range r.store.state.bookings {
		if b.RequesterID != filter.RequesterID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		result = append(result, b.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartsAt(time.UTC).After(result[j].StartsAt(time.UTC))
	})

	return paginate(result, filter.Limit, filter.Offset), nil
}

func (r *BookingRepository) ListByProvider(ctx context.Context, filter domain.ProviderBookingsFilter) ([]*domain.Booking, error) {
	defer r.store.lock(ctx)()

	result := make([]*domain.Booking, 0)
	for _, b := range r.store.state.bookings {
		if b.ProviderID != filter.ProviderID {
			continue
		}
		if filter.Date != nil && b.BookingDate.Format(domain.DateFormat) != filter.Date.Format(domain.DateFormat) {
			continue
		}
		if filter.Status != nil {
			if b.Status != *filter.Status {
				continue
			}
		} else if !filter.IncludeInactive && !b.IsActive() {
			continue
		}
		result = append(result, b.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartsAt(time.UTC).Before(result[j].StartsAt(time.UTC))
	})

	return result, nil
}

func (r *BookingRepository) ListUpcoming(ctx context.Context, filter domain.UpcomingBookingsFilter) ([]*domain.Booking, error) {
	defer r.store.lock(ctx)()

	loc := filter.From.Location()
	result := make([]*domain.Booking, 0)
	for _, b := range r.store.state.bookings {
		if b.RequesterID != filter.RequesterID {
			continue
		}
		if !slices.Contains(domain.UpcomingStatuses, b.Status) {
			continue
		}
		if b.StartsAt(loc).Before(filter.From.Truncate(time.Minute)) {
			continue
		}
		result = append(result, b.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartsAt(loc).Before(result[j].StartsAt(loc))
	})

	return paginate(result, filter.Limit, 0), nil
}

func (r *BookingRepository) CountByStatus(ctx context.Context, requesterID int64) (domain.BookingStatusCounts, error) {
	defer r.store.lock(ctx)()

	counts := make(domain.BookingStatusCounts)
	for _, b := range r.store.state.bookings {
		if b.RequesterID == requesterID {
			counts[b.Status]++
		}
	}
	return counts, nil
}

func (r *BookingRepository) Update(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	defer r.store.lock(ctx)()
	st := r.store.state

	current, ok := st.bookings[booking.ID]
	if !ok || current.Version != booking.Version {
		return nil, ErrVersionConflict
	}

	oldKey, newKey := keyOf(current), keyOf(booking)
	if booking.IsActive() {
		if owner, taken := st.activeSlots[newKey]; taken && owner != booking.ID {
			return nil, ErrSlotTaken
		}
	}

	if current.IsActive() {
		delete(st.activeSlots, oldKey)
	}
	if booking.IsActive() {
		st.activeSlots[newKey] = booking.ID
	}

	booking.Version++
	booking.UpdatedAt = r.store.now()
	st.bookings[booking.ID] = booking.Clone()

	return booking, nil
}

func paginate[T any](items []T, limit, offset uint64) []T {
	if offset >= uint64(len(items)) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < uint64(len(items)) {
		items = items[:limit]
	}
	return items
}
