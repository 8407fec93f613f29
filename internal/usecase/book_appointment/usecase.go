package book_appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/lifecycle"
)

// maxCreateAttempts первая попытка и один повтор после конфликта хранилища
const maxCreateAttempts = 2

// UseCase use case для записи к провайдеру
type UseCase struct {
	bookingRepo  BookingRepository
	providerRepo ProviderRepository
	machine      StateMachine
	publisher    EventPublisher
	metrics      Metrics
	logger       Logger
}

// NewUseCase создает новый экземпляр use case. publisher может быть nil.
func NewUseCase(
	bookingRepo BookingRepository,
	providerRepo ProviderRepository,
	machine StateMachine,
	publisher EventPublisher,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		providerRepo: providerRepo,
		machine:      machine,
		publisher:    publisher,
		metrics:      metrics,
		logger:       logger,
	}
}

// Execute выполняет use case записи.
// Уникальность активного слота гарантирует хранилище: из параллельных записей
// на один слот успешна ровно одна, остальные получают ErrSlotUnavailable.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("BookAppointment: requester=%d, provider=%d, date=%s, time=%s",
		req.RequesterID, req.ProviderID, req.Date.Format(domain.DateFormat), req.StartTime)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("BookAppointment: validation failed: %v", err)
		return nil, err
	}

	// 2. Провайдер должен существовать и принимать записи
	provider, err := uc.providerRepo.GetByID(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.logger.Warn("BookAppointment: provider id=%d not found", req.ProviderID)
			return nil, ErrProviderNotFound
		}
		uc.logger.Error("BookAppointment: failed to get provider id=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to get provider: %v", ErrInternal, err)
	}
	if !provider.IsActive {
		uc.logger.Warn("BookAppointment: provider id=%d is inactive", req.ProviderID)
		return nil, ErrProviderNotFound
	}

	// 3. Машина состояний проверяет, что слот в будущем
	booking, err := uc.machine.Book(lifecycle.BookRequest{
		RequesterID:      req.RequesterID,
		ProviderID:       req.ProviderID,
		Date:             req.Date,
		StartTime:        req.StartTime,
		DurationMinutes:  req.DurationMinutes,
		ConsultationType: req.ConsultationType,
		Notes:            req.Notes,
	})
	if err != nil {
		uc.logger.Warn("BookAppointment: rejected: %v", err)
		return nil, err
	}

	// 4. Проверка конфликта и вставка; конфликт хранилища повторяем один раз
	var created *domain.Booking
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		conflict, err := uc.bookingRepo.FindConflict(ctx, booking.ProviderID, booking.BookingDate, booking.StartTime, nil)
		if err != nil {
			uc.logger.Error("BookAppointment: failed to check conflicts: %v", err)
			return nil, fmt.Errorf("%w: failed to check conflicts: %v", ErrInternal, err)
		}
		if conflict != nil {
			uc.logger.Warn("BookAppointment: slot %s %s of provider=%d is held by booking id=%d",
				booking.BookingDate.Format(domain.DateFormat), booking.StartTime, booking.ProviderID, conflict.ID)
			return nil, slotUnavailable(booking)
		}

		created, err = uc.bookingRepo.Create(ctx, booking.Clone())
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrPersistenceConflict) {
			uc.logger.Error("BookAppointment: failed to create booking: %v", err)
			return nil, fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		uc.metrics.IncBookingConflict()
		uc.logger.Warn("BookAppointment: slot taken concurrently, attempt %d/%d", attempt, maxCreateAttempts)
		if attempt == maxCreateAttempts {
			return nil, slotUnavailable(booking)
		}
	}

	uc.metrics.IncBookingTransition("created")
	uc.publish(ctx, created)

	uc.logger.Info("BookAppointment: successfully created booking id=%d", created.ID)
	return &Response{Booking: created}, nil
}

func (uc *UseCase) publish(ctx context.Context, b *domain.Booking) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.PublishJSON(ctx, domain.EventBookingCreated, domain.NewBookingEvent(b, b.CreatedAt)); err != nil {
		uc.logger.Warn("BookAppointment: failed to publish %s for booking id=%d: %v", domain.EventBookingCreated, b.ID, err)
	}
}

func slotUnavailable(b *domain.Booking) error {
	return fmt.Errorf("%w: provider %d at %s %s",
		domain.ErrSlotUnavailable, b.ProviderID, b.BookingDate.Format(domain.DateFormat), b.StartTime)
}
