package create_booking

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
	bookAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/book_appointment"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ProviderID       int64   `json:"providerId"`
	BookingDate      string  `json:"bookingDate"` // "2025-10-15"
	StartTime        string  `json:"startTime"`   // "10:00"
	DurationMinutes  int     `json:"durationMinutes,omitempty"`
	ConsultationType string  `json:"consultationType,omitempty"` // video | audio | chat
	Notes            *string `json:"notes,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(requesterID int64) (*bookAppointment.Request, error) {
	bookingDate, err := time.Parse(domain.DateFormat, r.BookingDate)
	if err != nil {
		return nil, errInvalidDate
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, errInvalidTime
	}

	return &bookAppointment.Request{
		RequesterID:      requesterID,
		ProviderID:       r.ProviderID,
		Date:             bookingDate,
		StartTime:        startTime,
		DurationMinutes:  r.DurationMinutes,
		ConsultationType: domain.ConsultationType(r.ConsultationType),
		Notes:            r.Notes,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *bookAppointment.Response) *models.BookingResponse {
	return models.FromDomainBooking(resp.Booking)
}
