package cancel_booking

import (
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
	cancelAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/cancel_appointment"
)

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	CancellationReason *string `json:"cancellationReason,omitempty"`
}

// CancelBookingResponse HTTP response model
type CancelBookingResponse struct {
	Booking *models.BookingResponse `json:"booking"`
	// RefundRequired бронирование было оплачено, деньги нужно вернуть
	RefundRequired bool `json:"refundRequired"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CancelBookingRequest) ToUseCaseRequest(requesterID, bookingID int64) *cancelAppointment.Request {
	return &cancelAppointment.Request{
		RequesterID: requesterID,
		BookingID:   bookingID,
		Reason:      r.CancellationReason,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *cancelAppointment.Response) *CancelBookingResponse {
	return &CancelBookingResponse{
		Booking:        models.FromDomainBooking(resp.Booking),
		RefundRequired: resp.RefundRequired,
	}
}
