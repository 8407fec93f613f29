package reschedule_appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// maxAttempts первая попытка и один повтор после конфликта хранилища
const maxAttempts = 2

// UseCase use case для переноса бронирования
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

// Execute выполняет use case переноса.
// Перенос и повторное подтверждение оплаченного бронирования сохраняются одной записью.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("RescheduleAppointment: requester=%d, booking=%d, date=%s, time=%s",
		req.RequesterID, req.BookingID, req.Date.Format(domain.DateFormat), req.StartTime)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("RescheduleAppointment: validation failed: %v", err)
		return nil, err
	}

	var response *Response
	var err error

	// 2. Перенос в транзакции; конфликт хранилища повторяем один раз
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		response, err = uc.reschedule(ctx, req)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrPersistenceConflict) {
			return nil, err
		}

		uc.metrics.IncBookingConflict()
		uc.logger.Warn("RescheduleAppointment: conflict on booking id=%d, attempt %d/%d: %v",
			req.BookingID, attempt, maxAttempts, err)
		if attempt == maxAttempts {
			return nil, fmt.Errorf("%w: booking %d: %v", domain.ErrSlotUnavailable, req.BookingID, err)
		}
	}

	uc.metrics.IncBookingTransition("rescheduled")
	uc.publish(ctx, response.Booking)

	uc.logger.Info("RescheduleAppointment: booking id=%d moved to %s %s, status=%s",
		response.Booking.ID, response.Booking.BookingDate.Format(domain.DateFormat),
		response.Booking.StartTime, response.Booking.Status)
	return response, nil
}

func (uc *UseCase) reschedule(ctx context.Context, req *Request) (*Response, error) {
	var response *Response

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// 2.1. Бронирование пациента
		booking, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				uc.logger.Warn("RescheduleAppointment: booking id=%d not found", req.BookingID)
				return ErrBookingNotFound
			}
			uc.logger.Error("RescheduleAppointment: failed to get booking id=%d: %v", req.BookingID, err)
			return fmt.Errorf("%w: failed to get booking: %w", ErrInternal, err)
		}
		if booking.RequesterID != req.RequesterID {
			uc.logger.Warn("RescheduleAppointment: booking id=%d belongs to another requester", req.BookingID)
			return ErrBookingNotFound
		}

		// 2.2. Машина состояний: статус и время в будущем
		if err := uc.machine.Reschedule(booking, req.Date, req.StartTime); err != nil {
			uc.logger.Warn("RescheduleAppointment: rejected: %v", err)
			return err
		}

		// 2.3. Новый слот не должен быть занят другим бронированием
		conflict, err := uc.bookingRepo.FindConflict(txCtx, booking.ProviderID, booking.BookingDate, booking.StartTime, &booking.ID)
		if err != nil {
			uc.logger.Error("RescheduleAppointment: failed to check conflicts: %v", err)
			return fmt.Errorf("%w: failed to check conflicts: %w", ErrInternal, err)
		}
		if conflict != nil {
			uc.logger.Warn("RescheduleAppointment: slot is held by booking id=%d", conflict.ID)
			return fmt.Errorf("%w: provider %d at %s %s", domain.ErrSlotUnavailable,
				booking.ProviderID, booking.BookingDate.Format(domain.DateFormat), booking.StartTime)
		}

		// 2.4. Оплаченное бронирование подтверждается снова в той же записи
		reconfirmed, err := uc.engine.ReconfirmAfterReschedule(txCtx, booking)
		if err != nil {
			uc.logger.Error("RescheduleAppointment: failed to check payment of booking id=%d: %v", booking.ID, err)
			return fmt.Errorf("%w: failed to check payment: %w", ErrInternal, err)
		}

		// 2.5. Сохраняем
		updated, err := uc.bookingRepo.Update(txCtx, booking)
		if err != nil {
			if errors.Is(err, domain.ErrPersistenceConflict) {
				return err
			}
			uc.logger.Error("RescheduleAppointment: failed to update booking id=%d: %v", booking.ID, err)
			return fmt.Errorf("%w: failed to update booking: %w", ErrInternal, err)
		}

		response = &Response{Booking: updated, Reconfirmed: reconfirmed}
		return nil
	})

	return response, err
}

func (uc *UseCase) publish(ctx context.Context, b *domain.Booking) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.PublishJSON(ctx, domain.EventBookingRescheduled, domain.NewBookingEvent(b, b.UpdatedAt)); err != nil {
		uc.logger.Warn("RescheduleAppointment: failed to publish %s for booking id=%d: %v",
			domain.EventBookingRescheduled, b.ID, err)
	}
}
