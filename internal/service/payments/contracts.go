package payments

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// PaymentRepository интерфейс репозитория платежей
type PaymentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.PaymentRecord, error)
	ListByRequester(ctx context.Context, filter domain.RequesterPaymentsFilter) ([]*domain.PaymentRecord, error)
	Stats(ctx context.Context, requesterID int64) (*domain.PaymentStats, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
