package reconciliation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
}

// PaymentRepository интерфейс репозитория платежей
type PaymentRepository interface {
	Create(ctx context.Context, record *domain.PaymentRecord) (*domain.PaymentRecord, error)
	GetByID(ctx context.Context, id int64) (*domain.PaymentRecord, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.PaymentRecord, error)
	GetByReference(ctx context.Context, reference string) (*domain.PaymentRecord, error)
	GetActiveByBookingID(ctx context.Context, bookingID int64) (*domain.PaymentRecord, error)
	ListAwaitingConfirmation(ctx context.Context, limit uint64) ([]*domain.PaymentRecord, error)
	AssignExternalID(ctx context.Context, id int64, externalID string, payload []byte) error
	UpdateStatus(ctx context.Context, id int64, from, to domain.PaymentStatus, payload []byte, failureReason *string) error
	FlagRefund(ctx context.Context, id int64, payload []byte) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Gateway платёжный шлюз (Stripe, IntaSend, симулятор)
type Gateway interface {
	Name() string
	InitiatePayment(ctx context.Context, req domain.GatewayPaymentRequest) (*domain.GatewayPaymentResponse, error)
}

// SettlementScheduler планировщик отложенного подтверждения платежей
type SettlementScheduler interface {
	ScheduleSettlement(ctx context.Context, job domain.SettlementJob) error
	CancelSettlement(ctx context.Context, paymentID int64) error
}

// EventPublisher публикует доменные события
type EventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, v interface{}) error
}

// Metrics счётчики сверки
type Metrics interface {
	IncReconciliation(outcome string)
	IncUnknownTransaction()
	IncGatewayCall(provider, result string)
	IncSettlementJob(event string)
	IncBookingTransition(transition string)
}

// StateMachine машина состояний бронирования
type StateMachine interface {
	ConfirmViaPayment(b *domain.Booking) (changed bool, err error)
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
