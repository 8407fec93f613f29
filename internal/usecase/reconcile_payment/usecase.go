package reconcile_payment

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// UseCase use case для приёма уведомлений шлюзов (webhook, очередь, задача подтверждения)
type UseCase struct {
	engine PaymentEngine
	cache  NotificationCache
	logger Logger
}

// NewUseCase создает новый экземпляр use case. cache может быть nil.
func NewUseCase(engine PaymentEngine, cache NotificationCache, logger Logger) *UseCase {
	return &UseCase{
		engine: engine,
		cache:  cache,
		logger: logger,
	}
}

// Execute применяет уведомление.
// Кэш только экономит транзакцию на повторах: корректность обеспечивает движок,
// поэтому ошибки кэша не прерывают обработку.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	n := req.Notification
	key := n.Key()

	// 1. Быстрая проверка повтора
	if uc.cache != nil && isFinal(n.Status) {
		seen, err := uc.cache.Seen(ctx, key)
		if err != nil {
			uc.logger.Warn("ReconcilePayment: cache lookup failed for %s: %v", key, err)
		} else if seen {
			uc.logger.Info("ReconcilePayment: notification %s already applied", key)
			return &Response{Cached: true}, nil
		}
	}

	// 2. Сверка
	result, err := uc.engine.Reconcile(ctx, n)
	if err != nil {
		return nil, err
	}

	// 3. Запоминаем итоговое уведомление
	if uc.cache != nil && isFinal(n.Status) {
		if err := uc.cache.Remember(ctx, key); err != nil {
			uc.logger.Warn("ReconcilePayment: failed to remember %s: %v", key, err)
		}
	}

	return &Response{Result: result}, nil
}

func isFinal(status domain.NotificationStatus) bool {
	return status == domain.NotificationCompleted || status == domain.NotificationFailed
}
