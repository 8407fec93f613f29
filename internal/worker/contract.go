package worker

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/m04kA/SMC-AppointmentService/internal/usecase/reconcile_payment"
)

// NotificationReconciler прием уведомлений шлюзов
type NotificationReconciler interface {
	Execute(ctx context.Context, req *reconcile_payment.Request) (*reconcile_payment.Response, error)
}

// ConfirmationRedriver повторное подтверждение оплаченных бронирований
type ConfirmationRedriver interface {
	RedriveConfirmations(ctx context.Context, limit int) (int, error)
}

// DeliverySource источник сообщений очереди с ручным подтверждением
type DeliverySource interface {
	Deliveries(ctx context.Context) (<-chan amqp.Delivery, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
