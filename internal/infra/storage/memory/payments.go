package memory

import (
	"context"
	"sort"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// PaymentRepository платежи в памяти
type PaymentRepository struct {
	store *Store
}

func (r *PaymentRepository) Create(ctx context.Context, record *domain.PaymentRecord) (*domain.PaymentRecord, error) {
	defer r.store.lock(ctx)()
	st := r.store.state

	if record.Status.IsActive() {
		if _, exists := st.activeByBook[record.BookingID]; exists {
			return nil, ErrActivePaymentExists
		}
	}
	if _, exists := st.byReference[record.Reference]; exists {
		return nil, ErrTransactionIDTaken
	}
	if record.ExternalTransactionID != nil {
		if _, exists := st.byExternalID[*record.ExternalTransactionID]; exists {
			return nil, ErrTransactionIDTaken
		}
	}

	st.nextPaymentID++
	now := r.store.now()
	record.ID = st.nextPaymentID
	record.CreatedAt = now
	record.UpdatedAt = now

	st.payments[record.ID] = record.Clone()
	st.byReference[record.Reference] = record.ID
	if record.ExternalTransactionID != nil {
		st.byExternalID[*record.ExternalTransactionID] = record.ID
	}
	if record.Status.IsActive() {
		st.activeByBook[record.BookingID] = record.ID
	}

	return record, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*domain.PaymentRecord, error) {
	defer r.store.lock(ctx)()
	return r.get(id)
}

func (r *PaymentRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.PaymentRecord, error) {
	defer r.store.lock(ctx)()

	id, ok := r.store.state.byExternalID[externalID]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return r.get(id)
}

func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (*domain.PaymentRecord, error) {
	defer r.store.lock(ctx)()

	id, ok := r.store.state.byReference[reference]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return r.get(id)
}

func (r *PaymentRepository) GetActiveByBookingID(ctx context.Context, bookingID int64) (*domain.PaymentRecord, error) {
	defer r.store.lock(ctx)()

	id, ok := r.store.state.activeByBook[bookingID]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return r.get(id)
}

func (r *PaymentRepository) get(id int64) (*domain.PaymentRecord, error) {
	record, ok := r.store.state.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return record.Clone(), nil
}

func (r *PaymentRepository) ListByRequester(ctx context.Context, filter domain.RequesterPaymentsFilter) ([]*domain.PaymentRecord, error) {
	defer r.store.lock(ctx)()

	result := make([]*domain.PaymentRecord, 0)
	for _, p := range r.store.state.payments {
		if p.RequesterID != filter.RequesterID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		result = append(result, p.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})

	return paginate(result, filter.Limit, filter.Offset), nil
}

func (r *PaymentRepository) ListAwaitingConfirmation(ctx context.Context, limit uint64) ([]*domain.PaymentRecord, error) {
	defer r.store.lock(ctx)()
	st := r.store.state

	result := make([]*domain.PaymentRecord, 0)
	for _, p := range st.payments {
		if p.Status != domain.PaymentCompleted {
			continue
		}
		booking, ok := st.bookings[p.BookingID]
		if !ok || booking.Status != domain.StatusScheduled {
			continue
		}
		result = append(result, p.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return paginate(result, limit, 0), nil
}

func (r *PaymentRepository) Stats(ctx context.Context, requesterID int64) (*domain.PaymentStats, error) {
	defer r.store.lock(ctx)()

	var stats domain.PaymentStats
	for _, p := range r.store.state.payments {
		if p.RequesterID != requesterID {
			continue
		}
		stats.Total++
		switch p.Status {
		case domain.PaymentCompleted:
			stats.Successful++
			stats.CompletedAmount += p.Amount
		case domain.PaymentFailed:
			stats.Failed++
		}
	}
	return &stats, nil
}

func (r *PaymentRepository) AssignExternalID(ctx context.Context, id int64, externalID string, payload []byte) error {
	defer r.store.lock(ctx)()
	st := r.store.state

	record, ok := st.payments[id]
	if !ok || record.ExternalTransactionID != nil {
		return ErrTransactionIDTaken
	}
	if _, exists := st.byExternalID[externalID]; exists {
		return ErrTransactionIDTaken
	}

	ext := externalID
	record.ExternalTransactionID = &ext
	if payload != nil {
		record.RawGatewayPayload = append([]byte(nil), payload...)
	}
	record.UpdatedAt = r.store.now()
	st.byExternalID[externalID] = id

	return nil
}

func (r *PaymentRepository) UpdateStatus(
	ctx context.Context,
	id int64,
	from, to domain.PaymentStatus,
	payload []byte,
	failureReason *string,
) error {
	defer r.store.lock(ctx)()
	st := r.store.state

	record, ok := st.payments[id]
	if !ok || record.Status != from {
		return ErrStatusChanged
	}
	if to.IsActive() && !from.IsActive() {
		if owner, exists := st.activeByBook[record.BookingID]; exists && owner != id {
			return ErrActivePaymentExists
		}
	}

	record.Status = to
	record.FailureReason = failureReason
	if payload != nil {
		record.RawGatewayPayload = append([]byte(nil), payload...)
	}
	record.UpdatedAt = r.store.now()

	if to.IsActive() {
		st.activeByBook[record.BookingID] = id
	} else if owner, exists := st.activeByBook[record.BookingID]; exists && owner == id {
		delete(st.activeByBook, record.BookingID)
	}

	return nil
}

// FlagRefund отмечает поздний захват средств по локально закрытому платежу
func (r *PaymentRepository) FlagRefund(ctx context.Context, id int64, payload []byte) error {
	defer r.store.lock(ctx)()

	record, ok := r.store.state.payments[id]
	if !ok || !record.FailedLocally() {
		return ErrStatusChanged
	}

	reason := domain.RefundFlagPrefix + *record.FailureReason
	record.FailureReason = &reason
	if payload != nil {
		record.RawGatewayPayload = append([]byte(nil), payload...)
	}
	record.UpdatedAt = r.store.now()

	return nil
}
