package stripe_webhook

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	reconcilePayment "github.com/m04kA/SMC-AppointmentService/internal/usecase/reconcile_payment"
)

// WebhookParser проверяет подпись и разбирает событие Stripe
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*domain.Notification, error)
}

type ReconcilePaymentUseCase interface {
	Execute(ctx context.Context, req *reconcilePayment.Request) (*reconcilePayment.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
