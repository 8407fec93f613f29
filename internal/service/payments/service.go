package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/payments/models"
)

// Service сервис для чтения платежей пациента
type Service struct {
	paymentRepo PaymentRepository
	logger      Logger
}

// NewService создает новый экземпляр сервиса платежей
func NewService(paymentRepo PaymentRepository, logger Logger) *Service {
	return &Service{
		paymentRepo: paymentRepo,
		logger:      logger,
	}
}

// GetByID получает платеж по ID. Чужой платеж считается несуществующим.
func (s *Service) GetByID(ctx context.Context, id int64, requesterID int64) (*models.PaymentResponse, error) {
	s.logger.Info("GetByID: fetching payment id=%d for requester=%d", id, requesterID)

	record, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("GetByID: payment id=%d not found", id)
			return nil, ErrPaymentNotFound
		}
		s.logger.Error("GetByID: repository error for payment id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	if record.RequesterID != requesterID {
		s.logger.Warn("GetByID: payment id=%d belongs to another requester", id)
		return nil, ErrPaymentNotFound
	}

	return models.FromDomainPayment(record), nil
}

// GetRequesterPayments получает историю платежей пациента, новые первыми
func (s *Service) GetRequesterPayments(ctx context.Context, req *models.GetRequesterPaymentsRequest) (*models.PaymentListResponse, error) {
	s.logger.Info("GetRequesterPayments: fetching payments for requester=%d, limit=%d, offset=%d",
		req.RequesterID, req.Limit, req.Offset)

	filter := domain.RequesterPaymentsFilter{
		RequesterID: req.RequesterID,
		Limit:       req.Limit,
		Offset:      req.Offset,
	}
	if filter.Limit == 0 {
		filter.Limit = domain.DefaultListLimit
	}
	if filter.Limit > domain.MaxListLimit {
		filter.Limit = domain.MaxListLimit
	}

	if req.Status != nil {
		status := domain.PaymentStatus(*req.Status)
		if !status.IsValid() {
			s.logger.Warn("GetRequesterPayments: invalid status=%s", *req.Status)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		filter.Status = &status
	}

	records, err := s.paymentRepo.ListByRequester(ctx, filter)
	if err != nil {
		s.logger.Error("GetRequesterPayments: repository error for requester=%d: %v", req.RequesterID, err)
		return nil, fmt.Errorf("%w: GetRequesterPayments - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetRequesterPayments: successfully fetched %d payments for requester=%d", len(records), req.RequesterID)
	return models.FromDomainPaymentList(records), nil
}

// GetStats сводка по платежам пациента
func (s *Service) GetStats(ctx context.Context, requesterID int64) (*models.PaymentStatsResponse, error) {
	s.logger.Info("GetStats: counting payments for requester=%d", requesterID)

	stats, err := s.paymentRepo.Stats(ctx, requesterID)
	if err != nil {
		s.logger.Error("GetStats: repository error for requester=%d: %v", requesterID, err)
		return nil, fmt.Errorf("%w: GetStats - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainPaymentStats(stats), nil
}
