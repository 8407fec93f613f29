package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// DefaultQueue очередь задач подтверждения
const DefaultQueue = "settlements"

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Scheduler хранит задачи подтверждения платежей в Redis через asynq.
// Задачи переживают перезапуск процесса и отменяются по ID платежа.
type Scheduler struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	queue     string
	logger    Logger
}

// New создает планировщик поверх подключения к Redis
func New(redisOpt asynq.RedisClientOpt, queue string, logger Logger) *Scheduler {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Scheduler{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		queue:     queue,
		logger:    logger,
	}
}

// Queue имя очереди для сервера задач
func (s *Scheduler) Queue() string {
	return s.queue
}

// ScheduleSettlement ставит задачу подтверждения на job.FireAt.
// Повторная постановка для того же платежа ничего не делает.
func (s *Scheduler) ScheduleSettlement(ctx context.Context, job domain.SettlementJob) error {
	task, opts, err := NewSettlementTask(job, s.queue)
	if err != nil {
		return fmt.Errorf("scheduler: failed to build task: %w", err)
	}

	info, err := s.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			s.logger.Info("Scheduler: settlement of payment id=%d is already scheduled", job.PaymentID)
			return nil
		}
		return fmt.Errorf("%w: failed to enqueue settlement: %v", domain.ErrGatewayUnavailable, err)
	}

	s.logger.Info("Scheduler: task %s queued in %s, process at %s", info.ID, info.Queue, info.NextProcessAt.Format(time.RFC3339))
	return nil
}

// CancelSettlement удаляет задачу подтверждения платежа, если она еще не выполнена
func (s *Scheduler) CancelSettlement(ctx context.Context, paymentID int64) error {
	err := s.inspector.DeleteTask(s.queue, TaskID(paymentID))
	if err == nil || errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return fmt.Errorf("scheduler: failed to delete task %s: %w", TaskID(paymentID), err)
}

// Close закрывает подключения к Redis
func (s *Scheduler) Close() error {
	return errors.Join(s.client.Close(), s.inspector.Close())
}
