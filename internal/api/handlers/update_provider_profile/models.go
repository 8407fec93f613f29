package update_provider_profile

import "github.com/m04kA/SMC-AppointmentService/internal/service/providers/models"

// UpdateProfileRequest HTTP request model.
// Все поля опциональны - обновляются только переданные значения
type UpdateProfileRequest struct {
	Name            *string                       `json:"name,omitempty"`
	ConsultationFee *int64                        `json:"consultationFee,omitempty"`
	Currency        *string                       `json:"currency,omitempty"`
	IsActive        *bool                         `json:"isActive,omitempty"`
	WorkingHours    map[string]models.DaySchedule `json:"workingHours,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *UpdateProfileRequest) ToServiceRequest(userID, providerID int64) *models.UpdateProfileRequest {
	return &models.UpdateProfileRequest{
		UserID:          userID,
		ProviderID:      providerID,
		Name:            r.Name,
		ConsultationFee: r.ConsultationFee,
		Currency:        r.Currency,
		IsActive:        r.IsActive,
		WorkingHours:    r.WorkingHours,
	}
}
