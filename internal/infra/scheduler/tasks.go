package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// TypeSettlePayment тип задачи подтверждения платежа
const TypeSettlePayment = "payment:settle"

// settleMaxRetry повторы задачи при временных ошибках сверки
const settleMaxRetry = 5

// SettlementPayload тело задачи подтверждения
type SettlementPayload struct {
	PaymentID            int64     `json:"paymentId"`
	GatewayTransactionID string    `json:"gatewayTransactionId"`
	FireAt               time.Time `json:"fireAt"`
}

// TaskID идентификатор задачи: не больше одной задачи на платеж
func TaskID(paymentID int64) string {
	return fmt.Sprintf("settle:%d", paymentID)
}

// NewSettlementTask собирает задачу подтверждения и ее опции
func NewSettlementTask(job domain.SettlementJob, queue string) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(SettlementPayload{
		PaymentID:            job.PaymentID,
		GatewayTransactionID: job.GatewayTransactionID,
		FireAt:               job.FireAt,
	})
	if err != nil {
		return nil, nil, err
	}

	task := asynq.NewTask(TypeSettlePayment, b)
	opts := []asynq.Option{
		asynq.ProcessAt(job.FireAt),
		asynq.TaskID(TaskID(job.PaymentID)),
		asynq.Queue(queue),
		asynq.MaxRetry(settleMaxRetry),
	}

	return task, opts, nil
}

// ParseSettlementPayload разбирает тело задачи подтверждения
func ParseSettlementPayload(task *asynq.Task) (*SettlementPayload, error) {
	var p SettlementPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return nil, fmt.Errorf("scheduler: invalid settlement payload: %w", err)
	}
	if p.PaymentID <= 0 || p.GatewayTransactionID == "" {
		return nil, fmt.Errorf("scheduler: settlement payload is incomplete")
	}
	return &p, nil
}

// Notification уведомление, которое задача подает на сверку
func (p *SettlementPayload) Notification() domain.Notification {
	return domain.Notification{
		GatewayTransactionID: p.GatewayTransactionID,
		Status:               domain.NotificationCompleted,
		Source:               domain.SourceSettlementJob,
	}
}
