package cancel_appointment

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// BookingRepository интерфейс хранилища слотов
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
}

// StateMachine машина состояний бронирования
type StateMachine interface {
	Cancel(b *domain.Booking, reason *string) error
}

// PaymentEngine движок сверки платежей
type PaymentEngine interface {
	AbandonPending(ctx context.Context, bookingID int64) (*domain.PaymentRecord, error)
	FinalizeAbandoned(ctx context.Context, record *domain.PaymentRecord)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher публикует доменные события
type EventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, v interface{}) error
}

// Metrics счётчики бронирований
type Metrics interface {
	IncBookingTransition(transition string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
