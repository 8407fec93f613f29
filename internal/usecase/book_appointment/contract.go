package book_appointment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/lifecycle"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// BookingRepository интерфейс хранилища слотов
type BookingRepository interface {
	FindConflict(ctx context.Context, providerID int64, date time.Time, startTime types.TimeString, excludeID *int64) (*domain.Booking, error)
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
}

// ProviderRepository интерфейс справочника провайдеров
type ProviderRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Provider, error)
}

// StateMachine машина состояний бронирования
type StateMachine interface {
	Book(req lifecycle.BookRequest) (*domain.Booking, error)
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
