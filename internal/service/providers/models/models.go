package models

import (
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Request модели

// DaySchedule расписание одного дня недели
type DaySchedule struct {
	IsOpen    bool   `json:"isOpen"`
	OpenTime  string `json:"openTime,omitempty"`  // "09:00"
	CloseTime string `json:"closeTime,omitempty"` // "18:00"
}

// UpdateProfileRequest запрос на обновление профиля провайдера
// Все поля опциональны - обновляются только переданные значения
type UpdateProfileRequest struct {
	UserID          int64                  `json:"userId"`
	ProviderID      int64                  `json:"providerId"`
	Name            *string                `json:"name,omitempty"`
	ConsultationFee *int64                 `json:"consultationFee,omitempty"` // В минимальных единицах валюты
	Currency        *string                `json:"currency,omitempty"`
	IsActive        *bool                  `json:"isActive,omitempty"`
	WorkingHours    map[string]DaySchedule `json:"workingHours,omitempty"` // Ключ - день недели: "monday"
}

// Response модели

// ProfileResponse ответ с профилем провайдера
type ProfileResponse struct {
	ID              int64                  `json:"id"`
	Name            string                 `json:"name"`
	ConsultationFee int64                  `json:"consultationFee"`
	Currency        string                 `json:"currency"`
	IsActive        bool                   `json:"isActive"`
	WorkingHours    map[string]DaySchedule `json:"workingHours"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// Методы конвертации

// FromDomainProvider конвертирует domain модель в DTO
func FromDomainProvider(p *domain.Provider) *ProfileResponse {
	if p == nil {
		return nil
	}

	hours := make(map[string]DaySchedule, len(p.WorkingHours))
	for weekday, day := range p.WorkingHours {
		hours[strings.ToLower(weekday.String())] = DaySchedule{
			IsOpen:    day.IsOpen,
			OpenTime:  day.OpenTime.String(),
			CloseTime: day.CloseTime.String(),
		}
	}

	return &ProfileResponse{
		ID:              p.ID,
		Name:            p.Name,
		ConsultationFee: p.FeeOrDefault(),
		Currency:        p.CurrencyOrDefault(),
		IsActive:        p.IsActive,
		WorkingHours:    hours,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
