package update_booking_status

import "github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"

// UpdateStatusRequest HTTP request model
type UpdateStatusRequest struct {
	Status string `json:"status"` // in_progress | completed
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *UpdateStatusRequest) ToServiceRequest(userID, providerID, bookingID int64) *models.UpdateStatusRequest {
	return &models.UpdateStatusRequest{
		UserID:     userID,
		ProviderID: providerID,
		BookingID:  bookingID,
		Status:     r.Status,
	}
}
