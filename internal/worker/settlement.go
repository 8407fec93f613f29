package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/scheduler"
	"github.com/m04kA/SMC-AppointmentService/internal/usecase/reconcile_payment"
)

// SettlementHandler выполняет задачи подтверждения платежей.
// Задача подает на сверку Completed: если платеж уже завершен или отклонен, сверка ничего не меняет.
type SettlementHandler struct {
	reconciler NotificationReconciler
	logger     Logger
}

// NewSettlementHandler создает обработчик задач подтверждения
func NewSettlementHandler(reconciler NotificationReconciler, logger Logger) *SettlementHandler {
	return &SettlementHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// Register регистрирует обработчик в мультиплексоре asynq
func (h *SettlementHandler) Register(mux *asynq.ServeMux) {
	mux.Handle(scheduler.TypeSettlePayment, h)
}

// ProcessTask реализует asynq.Handler
func (h *SettlementHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := scheduler.ParseSettlementPayload(task)
	if err != nil {
		h.logger.Error("SettlementHandler: %v", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	resp, err := h.reconciler.Execute(ctx, &reconcile_payment.Request{Notification: payload.Notification()})
	if err != nil {
		if errors.Is(err, domain.ErrUnknownTransaction) {
			h.logger.Warn("SettlementHandler: payment id=%d is unknown: %v", payload.PaymentID, err)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		h.logger.Error("SettlementHandler: payment id=%d: %v", payload.PaymentID, err)
		return err
	}

	if resp.Result != nil {
		h.logger.Info("SettlementHandler: payment id=%d settled, outcome=%s", payload.PaymentID, resp.Result.Outcome)
	}
	return nil
}
