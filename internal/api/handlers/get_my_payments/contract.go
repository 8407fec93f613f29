package get_my_payments

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/service/payments/models"
)

type PaymentService interface {
	GetRequesterPayments(ctx context.Context, req *models.GetRequesterPaymentsRequest) (*models.PaymentListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
