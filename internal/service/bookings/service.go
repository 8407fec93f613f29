package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
)

// Service сервис для чтения бронирований и переходов на стороне провайдера
type Service struct {
	bookingRepo BookingRepository
	machine     StateMachine
	publisher   EventPublisher
	metrics     Metrics
	logger      Logger
}

// NewService создает новый экземпляр сервиса бронирований. publisher может быть nil.
func NewService(
	bookingRepo BookingRepository,
	machine StateMachine,
	publisher EventPublisher,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		machine:     machine,
		publisher:   publisher,
		metrics:     metrics,
		logger:      logger,
	}
}

// GetByID получает бронирование по ID.
// Бронирование видят пациент и провайдер; для остальных оно не существует.
func (s *Service) GetByID(ctx context.Context, id int64, userID int64) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for user=%d", id, userID)

	booking, err := s.get(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	if booking.RequesterID != userID && booking.ProviderID != userID {
		s.logger.Warn("GetByID: access denied for user=%d to booking id=%d", userID, id)
		return nil, ErrBookingNotFound
	}

	s.logger.Info("GetByID: successfully fetched booking id=%d", id)
	return models.FromDomainBooking(booking), nil
}

// GetRequesterBookings получает бронирования пациента, новые первыми.
// Опционально фильтрует по статусу, поддерживает limit/offset.
func (s *Service) GetRequesterBookings(ctx context.Context, req *models.GetRequesterBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetRequesterBookings: fetching bookings for requester=%d, status=%v, limit=%d, offset=%d",
		req.RequesterID, req.Status, req.Limit, req.Offset)

	filter := domain.RequesterBookingsFilter{
		RequesterID: req.RequesterID,
		Limit:       normalizeLimit(req.Limit),
		Offset:      req.Offset,
	}

	if req.Status != nil {
		status, err := models.ToDomainBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetRequesterBookings: invalid status=%s for requester=%d", *req.Status, req.RequesterID)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		filter.Status = &status
	}

	bookings, err := s.bookingRepo.ListByRequester(ctx, filter)
	if err != nil {
		s.logger.Error("GetRequesterBookings: repository error for requester=%d: %v", req.RequesterID, err)
		return nil, fmt.Errorf("%w: GetRequesterBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetRequesterBookings: successfully fetched %d bookings for requester=%d", len(bookings), req.RequesterID)
	return models.FromDomainBookingList(bookings), nil
}

// GetProviderBookings получает расписание провайдера.
// Доступно только самому провайдеру.
func (s *Service) GetProviderBookings(ctx context.Context, req *models.GetProviderBookingsRequest) (*models.BookingListResponse, error) {
	logMsg := fmt.Sprintf("GetProviderBookings: fetching bookings for provider=%d, user=%d", req.ProviderID, req.UserID)
	if req.Date != nil {
		logMsg += fmt.Sprintf(", date=%s", req.Date.Format(domain.DateFormat))
	}
	if req.Status != nil {
		logMsg += fmt.Sprintf(", status=%s", *req.Status)
	}
	s.logger.Info(logMsg)

	if req.UserID != req.ProviderID {
		s.logger.Warn("GetProviderBookings: user=%d is not provider=%d", req.UserID, req.ProviderID)
		return nil, ErrAccessDenied
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("GetProviderBookings: invalid filter for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: invalid filter", ErrInvalidInput)
	}

	bookings, err := s.bookingRepo.ListByProvider(ctx, filter)
	if err != nil {
		s.logger.Error("GetProviderBookings: repository error for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: GetProviderBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetProviderBookings: successfully fetched %d bookings for provider=%d", len(bookings), req.ProviderID)
	return models.FromDomainBookingList(bookings), nil
}

// GetUpcoming получает ближайшие консультации пациента (scheduled, confirmed), ещё не начавшиеся
func (s *Service) GetUpcoming(ctx context.Context, req *models.GetDashboardBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetUpcoming: fetching upcoming bookings for requester=%d, limit=%d", req.RequesterID, req.Limit)

	bookings, err := s.bookingRepo.ListUpcoming(ctx, domain.UpcomingBookingsFilter{
		RequesterID: req.RequesterID,
		From:        s.machine.Now(),
		Limit:       dashboardLimit(req.Limit),
	})
	if err != nil {
		s.logger.Error("GetUpcoming: repository error for requester=%d: %v", req.RequesterID, err)
		return nil, fmt.Errorf("%w: GetUpcoming - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetUpcoming: successfully fetched %d bookings for requester=%d", len(bookings), req.RequesterID)
	return models.FromDomainBookingList(bookings), nil
}

// GetRecent получает последние завершённые консультации пациента, новые первыми
func (s *Service) GetRecent(ctx context.Context, req *models.GetDashboardBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetRecent: fetching recent bookings for requester=%d, limit=%d", req.RequesterID, req.Limit)

	completed := domain.StatusCompleted
	bookings, err := s.bookingRepo.ListByRequester(ctx, domain.RequesterBookingsFilter{
		RequesterID: req.RequesterID,
		Status:      &completed,
		Limit:       dashboardLimit(req.Limit),
	})
	if err != nil {
		s.logger.Error("GetRecent: repository error for requester=%d: %v", req.RequesterID, err)
		return nil, fmt.Errorf("%w: GetRecent - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetRecent: successfully fetched %d bookings for requester=%d", len(bookings), req.RequesterID)
	return models.FromDomainBookingList(bookings), nil
}

// GetStats считает консультации пациента по статусам
func (s *Service) GetStats(ctx context.Context, requesterID int64) (*models.BookingStatsResponse, error) {
	s.logger.Info("GetStats: counting bookings for requester=%d", requesterID)

	counts, err := s.bookingRepo.CountByStatus(ctx, requesterID)
	if err != nil {
		s.logger.Error("GetStats: repository error for requester=%d: %v", requesterID, err)
		return nil, fmt.Errorf("%w: GetStats - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainStatusCounts(counts), nil
}

// UpdateStatus переводит бронирование провайдера в in_progress или completed
func (s *Service) UpdateStatus(ctx context.Context, req *models.UpdateStatusRequest) (*models.BookingResponse, error) {
	s.logger.Info("UpdateStatus: booking id=%d, provider=%d, status=%s", req.BookingID, req.ProviderID, req.Status)

	if req.UserID != req.ProviderID {
		s.logger.Warn("UpdateStatus: user=%d is not provider=%d", req.UserID, req.ProviderID)
		return nil, ErrAccessDenied
	}

	status, err := models.ToDomainBookingStatus(req.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, req.Status)
	}

	switch status {
	case domain.StatusInProgress:
		return s.Start(ctx, req.BookingID, req.UserID)
	case domain.StatusCompleted:
		return s.Complete(ctx, req.BookingID, req.UserID)
	default:
		s.logger.Warn("UpdateStatus: status %s cannot be set by provider", status)
		return nil, fmt.Errorf("%w: provider can set only %s or %s", ErrInvalidStatus, domain.StatusInProgress, domain.StatusCompleted)
	}
}

// Start начинает консультацию (confirmed → in_progress)
func (s *Service) Start(ctx context.Context, id int64, providerID int64) (*models.BookingResponse, error) {
	return s.transition(ctx, "Start", id, providerID, s.machine.Start, "started", "")
}

// Complete завершает консультацию (in_progress → completed)
func (s *Service) Complete(ctx context.Context, id int64, providerID int64) (*models.BookingResponse, error) {
	return s.transition(ctx, "Complete", id, providerID, s.machine.Complete, "completed", domain.EventBookingCompleted)
}

func (s *Service) transition(
	ctx context.Context,
	op string,
	id, providerID int64,
	apply func(b *domain.Booking) error,
	metric string,
	event string,
) (*models.BookingResponse, error) {
	booking, err := s.get(ctx, op, id)
	if err != nil {
		return nil, err
	}

	if booking.ProviderID != providerID {
		s.logger.Warn("%s: booking id=%d does not belong to provider=%d", op, id, providerID)
		return nil, ErrBookingNotFound
	}

	if err := apply(booking); err != nil {
		s.logger.Warn("%s: booking id=%d: %v", op, id, err)
		return nil, err
	}

	updated, err := s.bookingRepo.Update(ctx, booking)
	if err != nil {
		if errors.Is(err, domain.ErrPersistenceConflict) {
			s.logger.Warn("%s: booking id=%d changed concurrently", op, id)
			return nil, err
		}
		s.logger.Error("%s: failed to update booking id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - update booking: %v", ErrInternal, op, err)
	}

	s.metrics.IncBookingTransition(metric)
	if event != "" && s.publisher != nil {
		if err := s.publisher.PublishJSON(ctx, event, domain.NewBookingEvent(updated, s.machine.Now())); err != nil {
			s.logger.Warn("%s: failed to publish %s for booking id=%d: %v", op, event, id, err)
		}
	}

	s.logger.Info("%s: booking id=%d is now %s", op, id, updated.Status)
	return models.FromDomainBooking(updated), nil
}

func (s *Service) get(ctx context.Context, op string, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("%s: booking id=%d not found", op, id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return booking, nil
}

func dashboardLimit(limit uint64) uint64 {
	if limit == 0 {
		return domain.DefaultDashboardLimit
	}
	return normalizeLimit(limit)
}

func normalizeLimit(limit uint64) uint64 {
	if limit == 0 {
		return domain.DefaultListLimit
	}
	if limit > domain.MaxListLimit {
		return domain.MaxListLimit
	}
	return limit
}
