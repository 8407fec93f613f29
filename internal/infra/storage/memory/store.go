package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type slotKey struct {
	providerID int64
	date       string
	startTime  types.TimeString
}

func keyOf(b *domain.Booking) slotKey {
	return slotKey{
		providerID: b.ProviderID,
		date:       b.BookingDate.Format(domain.DateFormat),
		startTime:  b.StartTime,
	}
}

type state struct {
	bookings      map[int64]*domain.Booking
	activeSlots   map[slotKey]int64
	payments      map[int64]*domain.PaymentRecord
	byExternalID  map[string]int64
	byReference   map[string]int64
	activeByBook  map[int64]int64
	providers     map[int64]*domain.Provider
	nextBookingID int64
	nextPaymentID int64
}

func newState() *state {
	return &state{
		bookings:     make(map[int64]*domain.Booking),
		activeSlots:  make(map[slotKey]int64),
		payments:     make(map[int64]*domain.PaymentRecord),
		byExternalID: make(map[string]int64),
		byReference:  make(map[string]int64),
		activeByBook: make(map[int64]int64),
		providers:    make(map[int64]*domain.Provider),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, b := range s.bookings {
		c.bookings[id] = b.Clone()
	}
	for k, v := range s.activeSlots {
		c.activeSlots[k] = v
	}
	for id, p := range s.payments {
		c.payments[id] = p.Clone()
	}
	for k, v := range s.byExternalID {
		c.byExternalID[k] = v
	}
	for k, v := range s.byReference {
		c.byReference[k] = v
	}
	for k, v := range s.activeByBook {
		c.activeByBook[k] = v
	}
	for id, p := range s.providers {
		cp := *p
		c.providers[id] = &cp
	}
	c.nextBookingID = s.nextBookingID
	c.nextPaymentID = s.nextPaymentID
	return c
}

// Store хранилище в памяти с теми же гарантиями, что и Postgres:
// уникальность активного слота, один активный платеж на бронирование,
// неизменяемый external id, проверка версии.
// Все операции сериализуются одним мьютексом, транзакции откатываются снимком состояния.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		state: newState(),
		now:   time.Now,
	}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// lock захватывает мьютекс, если вызов не внутри транзакции этого же хранилища
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Bookings репозиторий бронирований поверх хранилища
func (s *Store) Bookings() *BookingRepository {
	return &BookingRepository{store: s}
}

// Payments репозиторий платежей поверх хранилища
func (s *Store) Payments() *PaymentRepository {
	return &PaymentRepository{store: s}
}

// Providers справочник провайдеров поверх хранилища
func (s *Store) Providers() *ProviderRepository {
	return &ProviderRepository{store: s}
}

// TxManager менеджер транзакций хранилища
func (s *Store) TxManager() *TxManager {
	return &TxManager{store: s}
}

// TxManager выполняет функцию атомарно: при ошибке состояние восстанавливается
type TxManager struct {
	store *Store
}

func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	s := m.store
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (m *TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.Do(ctx, fn)
}

func (m *TxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.Do(ctx, fn)
}
