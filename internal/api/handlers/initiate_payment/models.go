package initiate_payment

import (
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/payments/models"
	initiatePayment "github.com/m04kA/SMC-AppointmentService/internal/usecase/initiate_payment"
)

// InitiatePaymentRequest HTTP request model
type InitiatePaymentRequest struct {
	Method string `json:"method,omitempty"` // card | mobile_money | bank_transfer, по умолчанию card
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *InitiatePaymentRequest) ToUseCaseRequest(requesterID, bookingID int64) *initiatePayment.Request {
	return &initiatePayment.Request{
		RequesterID: requesterID,
		BookingID:   bookingID,
		Method:      domain.PaymentMethod(r.Method),
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *initiatePayment.Response) *models.IntentResponse {
	return models.FromDomainIntent(resp.Intent)
}
