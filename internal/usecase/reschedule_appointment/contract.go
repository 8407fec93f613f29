package reschedule_appointment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// BookingRepository интерфейс хранилища слотов
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	FindConflict(ctx context.Context, providerID int64, date time.Time, startTime types.TimeString, excludeID *int64) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
}

// StateMachine машина состояний бронирования
type StateMachine interface {
	Reschedule(b *domain.Booking, date time.Time, start types.TimeString) error
}

// PaymentEngine движок сверки платежей
type PaymentEngine interface {
	ReconfirmAfterReschedule(ctx context.Context, b *domain.Booking) (bool, error)
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
	IncBookingConflict()
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
