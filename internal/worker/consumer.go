package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/reconciliation"
	"github.com/m04kA/SMC-AppointmentService/internal/usecase/reconcile_payment"
)

// NotificationRoutingKey ключ, по которому шлюзы и мосты публикуют уведомления
const NotificationRoutingKey = "payment.notification"

// NotificationMessage уведомление шлюза в очереди
type NotificationMessage struct {
	GatewayTransactionID string          `json:"gatewayTransactionId"`
	Reference            string          `json:"reference,omitempty"`
	Status               string          `json:"status"`
	Gateway              string          `json:"gateway,omitempty"`
	Payload              json.RawMessage `json:"payload,omitempty"`
}

type verdict int

const (
	verdictAck verdict = iota
	verdictRequeue
)

// NotificationConsumer читает уведомления шлюзов из RabbitMQ и передает их на сверку
type NotificationConsumer struct {
	source     DeliverySource
	reconciler NotificationReconciler
	logger     Logger
}

// NewNotificationConsumer создает потребителя уведомлений
func NewNotificationConsumer(source DeliverySource, reconciler NotificationReconciler, logger Logger) *NotificationConsumer {
	return &NotificationConsumer{
		source:     source,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Run обрабатывает сообщения до отмены ctx или закрытия канала доставки
func (c *NotificationConsumer) Run(ctx context.Context) error {
	deliveries, err := c.source.Deliveries(ctx)
	if err != nil {
		return fmt.Errorf("worker: failed to start consuming: %w", err)
	}

	c.logger.Info("NotificationConsumer: started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("NotificationConsumer: stopped")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("worker: delivery channel closed")
			}
			c.process(ctx, d)
		}
	}
}

func (c *NotificationConsumer) process(ctx context.Context, d amqp.Delivery) {
	var err error
	switch c.handle(ctx, d.Body) {
	case verdictRequeue:
		err = d.Nack(false, true)
	default:
		err = d.Ack(false)
	}
	if err != nil {
		c.logger.Error("NotificationConsumer: failed to settle delivery %d: %v", d.DeliveryTag, err)
	}
}

// handle решает судьбу сообщения: подтверждаем все, кроме временных сбоев
func (c *NotificationConsumer) handle(ctx context.Context, body []byte) verdict {
	var msg NotificationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		c.logger.Warn("NotificationConsumer: malformed message dropped: %v", err)
		return verdictAck
	}

	status, err := domain.ParseNotificationStatus(msg.Status)
	if err != nil {
		c.logger.Warn("NotificationConsumer: message for tx=%s dropped: %v", msg.GatewayTransactionID, err)
		return verdictAck
	}

	payload := []byte(msg.Payload)
	if len(payload) == 0 {
		payload = body
	}

	resp, err := c.reconciler.Execute(ctx, &reconcile_payment.Request{Notification: domain.Notification{
		GatewayTransactionID: msg.GatewayTransactionID,
		Reference:            msg.Reference,
		Status:               status,
		Payload:              payload,
		Source:               domain.SourceQueue,
	}})

	switch {
	case err == nil:
		if resp.Result != nil {
			c.logger.Info("NotificationConsumer: tx=%s %s", msg.GatewayTransactionID, resp.Result.Outcome)
		}
		return verdictAck
	case errors.Is(err, domain.ErrUnknownTransaction), errors.Is(err, reconciliation.ErrInvalidNotification):
		c.logger.Warn("NotificationConsumer: message for tx=%s dropped: %v", msg.GatewayTransactionID, err)
		return verdictAck
	default:
		c.logger.Error("NotificationConsumer: tx=%s will be redelivered: %v", msg.GatewayTransactionID, err)
		return verdictRequeue
	}
}
