package cancel_appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// maxAttempts первая попытка и один повтор после конфликта версий
const maxAttempts = 2

// UseCase use case для отмены бронирования
type UseCase struct {
	bookingRepo BookingRepository
	machine     StateMachine
	engine      PaymentEngine
	txManager   TransactionManager
	publisher   EventPublisher
	metrics     Metrics
	logger      Logger
}

// NewUseCase создает новый экземпляр use case. publisher может быть nil.
func NewUseCase(
	bookingRepo BookingRepository,
	machine StateMachine,
	engine PaymentEngine,
	txManager TransactionManager,
	publisher EventPublisher,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo: bookingRepo,
		machine:     machine,
		engine:      engine,
		txManager:   txManager,
		publisher:   publisher,
		metrics:     metrics,
		logger:      logger,
	}
}

// Execute выполняет use case отмены.
// Статус бронирования и ожидающий платёж меняются в одной транзакции.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CancelAppointment: requester=%d, booking=%d", req.RequesterID, req.BookingID)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CancelAppointment: validation failed: %v", err)
		return nil, err
	}

	var response *Response
	var err error

	// 2. Отмена в транзакции; конфликт версий повторяем один раз
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		response, err = uc.cancel(ctx, req)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrPersistenceConflict) || attempt == maxAttempts {
			return nil, err
		}
		uc.logger.Warn("CancelAppointment: conflict on booking id=%d, attempt %d/%d", req.BookingID, attempt, maxAttempts)
	}

	// 3. После фиксации снимаем задачу подтверждения и публикуем события
	uc.engine.FinalizeAbandoned(ctx, response.Payment)
	uc.metrics.IncBookingTransition("cancelled")
	uc.publish(ctx, response)

	if response.RefundRequired {
		uc.logger.Warn("CancelAppointment: booking id=%d was paid by payment id=%d, refund required",
			response.Booking.ID, response.Payment.ID)
	}
	uc.logger.Info("CancelAppointment: booking id=%d cancelled", response.Booking.ID)
	return response, nil
}

func (uc *UseCase) cancel(ctx context.Context, req *Request) (*Response, error) {
	var response *Response

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// 2.1. Бронирование пациента
		booking, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				uc.logger.Warn("CancelAppointment: booking id=%d not found", req.BookingID)
				return ErrBookingNotFound
			}
			uc.logger.Error("CancelAppointment: failed to get booking id=%d: %v", req.BookingID, err)
			return fmt.Errorf("%w: failed to get booking: %w", ErrInternal, err)
		}
		if booking.RequesterID != req.RequesterID {
			uc.logger.Warn("CancelAppointment: booking id=%d belongs to another requester", req.BookingID)
			return ErrBookingNotFound
		}

		// 2.2. Машина состояний: не терминальное и до начала больше окна отмены
		if err := uc.machine.Cancel(booking, req.Reason); err != nil {
			uc.logger.Warn("CancelAppointment: rejected: %v", err)
			return err
		}

		updated, err := uc.bookingRepo.Update(txCtx, booking)
		if err != nil {
			if errors.Is(err, domain.ErrPersistenceConflict) {
				return err
			}
			uc.logger.Error("CancelAppointment: failed to update booking id=%d: %v", booking.ID, err)
			return fmt.Errorf("%w: failed to update booking: %w", ErrInternal, err)
		}

		// 2.3. Ожидающий платёж закрывается, завершённый требует возврата
		payment, err := uc.engine.AbandonPending(txCtx, booking.ID)
		if err != nil {
			uc.logger.Error("CancelAppointment: failed to release payment of booking id=%d: %v", booking.ID, err)
			return fmt.Errorf("%w: failed to release payment: %w", ErrInternal, err)
		}

		response = &Response{
			Booking:        updated,
			Payment:        payment,
			RefundRequired: payment != nil && payment.Status == domain.PaymentCompleted,
		}
		return nil
	})

	return response, err
}

func (uc *UseCase) publish(ctx context.Context, response *Response) {
	if uc.publisher == nil {
		return
	}
	event := domain.NewBookingEvent(response.Booking, response.Booking.UpdatedAt)
	event.RefundRequired = response.RefundRequired
	if err := uc.publisher.PublishJSON(ctx, domain.EventBookingCancelled, event); err != nil {
		uc.logger.Warn("CancelAppointment: failed to publish %s for booking id=%d: %v",
			domain.EventBookingCancelled, response.Booking.ID, err)
	}
}
