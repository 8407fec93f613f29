package intasend_webhook

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/intasend"
	reconcilePayment "github.com/m04kA/SMC-AppointmentService/internal/usecase/reconcile_payment"
)

// CallbackVerifier проверяет уведомление IntaSend и перечитывает статус платежа
type CallbackVerifier interface {
	VerifyCallback(ctx context.Context, cb intasend.Callback) (*domain.Notification, error)
}

type ReconcilePaymentUseCase interface {
	Execute(ctx context.Context, req *reconcilePayment.Request) (*reconcilePayment.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
