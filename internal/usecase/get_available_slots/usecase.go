package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// UseCase use case для получения свободных слотов провайдера
type UseCase struct {
	bookingRepo  BookingRepository
	providerRepo ProviderRepository
	settings     Settings
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	providerRepo ProviderRepository,
	settings Settings,
	logger Logger,
) *UseCase {
	if settings.SlotDurationMinutes <= 0 {
		settings.SlotDurationMinutes = domain.DefaultDurationMinutes
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &UseCase{
		bookingRepo:  bookingRepo,
		providerRepo: providerRepo,
		settings:     settings,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case получения слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: requester=%d, provider=%d, date=%s",
		req.RequesterID, req.ProviderID, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время в часовом поясе расписания
	now := uc.timeProvider.Now().In(uc.settings.Location)
	if isDateInPast(req.Date, now) {
		uc.logger.Warn("GetAvailableSlots: date %s is in the past", req.Date.Format(domain.DateFormat))
		return nil, ErrInvalidDate
	}

	// 3. Получаем провайдера
	provider, err := uc.providerRepo.GetByID(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.logger.Warn("GetAvailableSlots: provider id=%d not found", req.ProviderID)
			return nil, ErrProviderNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get provider id=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to get provider: %v", ErrInternal, err)
	}
	if !provider.IsActive {
		uc.logger.Warn("GetAvailableSlots: provider id=%d is inactive", req.ProviderID)
		return nil, ErrProviderNotFound
	}

	response := &Response{
		Date:       req.Date,
		ProviderID: req.ProviderID,
		Slots:      []Slot{},
	}

	// 4. Получаем рабочие часы на день недели
	schedule := provider.ScheduleFor(req.Date)
	if !schedule.IsOpen {
		uc.logger.Info("GetAvailableSlots: provider id=%d does not work on %s",
			req.ProviderID, req.Date.Format(domain.DateFormat))
		return response, nil
	}

	// 5. Генерируем сетку слотов
	timeSlots, err := generateTimeSlots(
		schedule,
		uc.settings.SlotDurationMinutes,
		req.Date,
		now,
		uc.settings.MinBookingNoticeMinutes,
		uc.settings.Location,
	)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to generate time slots: %v", err)
		return nil, fmt.Errorf("%w: failed to generate time slots: %v", ErrInternal, err)
	}

	// 6. Получаем активные бронирования на дату
	bookings, err := uc.bookingRepo.ListNonTerminal(ctx, req.ProviderID, req.Date)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
	}

	// 7. Отмечаем занятые слоты
	response.Slots = markAvailability(timeSlots, uc.settings.SlotDurationMinutes, bookings)

	uc.logger.Info("GetAvailableSlots: generated %d slots for provider=%d, date=%s",
		len(response.Slots), req.ProviderID, req.Date.Format(domain.DateFormat))

	return response, nil
}

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ProviderID <= 0 {
		return fmt.Errorf("%w: providerID must be positive", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	return nil
}
