package reconcile_payment

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/reconciliation"
)

// PaymentEngine движок сверки платежей
type PaymentEngine interface {
	Reconcile(ctx context.Context, n domain.Notification) (*reconciliation.Result, error)
}

// NotificationCache быстрый фильтр уже применённых уведомлений
type NotificationCache interface {
	Seen(ctx context.Context, key string) (bool, error)
	Remember(ctx context.Context, key string) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
