package bookings

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListByRequester(ctx context.Context, filter domain.RequesterBookingsFilter) ([]*domain.Booking, error)
	ListByProvider(ctx context.Context, filter domain.ProviderBookingsFilter) ([]*domain.Booking, error)
	ListUpcoming(ctx context.Context, filter domain.UpcomingBookingsFilter) ([]*domain.Booking, error)
	CountByStatus(ctx context.Context, requesterID int64) (domain.BookingStatusCounts, error)
	Update(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
}

// StateMachine переходы, доступные провайдеру
type StateMachine interface {
	Start(b *domain.Booking) error
	Complete(b *domain.Booking) error
	Now() time.Time
}

// EventPublisher публикация событий бронирования
type EventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, v interface{}) error
}

// Metrics счетчики переходов бронирований
type Metrics interface {
	IncBookingTransition(transition string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
