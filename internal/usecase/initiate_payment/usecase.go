package initiate_payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/reconciliation"
)

// UseCase use case для оплаты бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	providerRepo ProviderRepository
	engine       PaymentEngine
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	providerRepo ProviderRepository,
	engine PaymentEngine,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		providerRepo: providerRepo,
		engine:       engine,
		logger:       logger,
	}
}

// Execute открывает платёж на сумму стоимости консультации провайдера.
// Если шлюз сразу сообщает итог, он применяется в том же вызове
// и бронирование возвращается уже подтверждённым.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("InitiatePayment: requester=%d, booking=%d, method=%s", req.RequesterID, req.BookingID, req.Method)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("InitiatePayment: validation failed: %v", err)
		return nil, err
	}

	// 2. Бронирование пациента
	booking, err := uc.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.logger.Warn("InitiatePayment: booking id=%d not found", req.BookingID)
			return nil, ErrBookingNotFound
		}
		uc.logger.Error("InitiatePayment: failed to get booking id=%d: %v", req.BookingID, err)
		return nil, fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
	}
	if booking.RequesterID != req.RequesterID {
		uc.logger.Warn("InitiatePayment: booking id=%d belongs to another requester", req.BookingID)
		return nil, ErrBookingNotFound
	}

	// 3. Сумма равна стоимости консультации провайдера
	provider, err := uc.providerRepo.GetByID(ctx, booking.ProviderID)
	if err != nil {
		uc.logger.Error("InitiatePayment: failed to get provider id=%d: %v", booking.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to get provider: %v", ErrInternal, err)
	}

	// 4. Открываем платёж
	intent, err := uc.engine.Initiate(ctx, reconciliation.InitiateRequest{
		BookingID:   booking.ID,
		RequesterID: req.RequesterID,
		Amount:      provider.FeeOrDefault(),
		Currency:    provider.CurrencyOrDefault(),
		Method:      req.Method,
	})
	if err != nil {
		uc.logger.Warn("InitiatePayment: booking id=%d: %v", booking.ID, err)
		return nil, err
	}

	uc.logger.Info("InitiatePayment: payment id=%d for booking id=%d is %s",
		intent.PaymentID, booking.ID, intent.Status)
	return &Response{Intent: intent}, nil
}

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.RequesterID <= 0 {
		return fmt.Errorf("%w: requesterID must be positive", ErrInvalidInput)
	}

	if req.BookingID <= 0 {
		return fmt.Errorf("%w: bookingID must be positive", ErrInvalidInput)
	}

	if req.Method == "" {
		req.Method = domain.MethodCard
	}
	if !req.Method.IsValid() {
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, req.Method)
	}

	return nil
}
