package get_payment_stats

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/service/payments/models"
)

type PaymentService interface {
	GetStats(ctx context.Context, requesterID int64) (*models.PaymentStatsResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
