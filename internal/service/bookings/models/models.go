package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// GetRequesterBookingsRequest запрос на получение бронирований пациента
type GetRequesterBookingsRequest struct {
	RequesterID int64   `json:"requesterId"`
	Status      *string `json:"status,omitempty"`
	Limit       uint64  `json:"limit,omitempty"`
	Offset      uint64  `json:"offset,omitempty"`
}

// GetProviderBookingsRequest запрос на получение расписания провайдера
type GetProviderBookingsRequest struct {
	UserID          int64      `json:"userId"`
	ProviderID      int64      `json:"providerId"`
	Date            *time.Time `json:"date,omitempty"`            // День расписания (опционально)
	Status          *string    `json:"status,omitempty"`          // Фильтр по статусу (опционально)
	IncludeInactive bool       `json:"includeInactive,omitempty"` // Включить завершённые и отменённые
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetProviderBookingsRequest) ToDomainFilter() (domain.ProviderBookingsFilter, error) {
	filter := domain.ProviderBookingsFilter{
		ProviderID:      r.ProviderID,
		Date:            r.Date,
		IncludeInactive: r.IncludeInactive,
	}

	if r.Status != nil {
		status, err := ToDomainBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// GetDashboardBookingsRequest запрос ближайших или последних консультаций пациента
type GetDashboardBookingsRequest struct {
	RequesterID int64  `json:"requesterId"`
	Limit       uint64 `json:"limit,omitempty"` // По умолчанию 5
}

// UpdateStatusRequest запрос провайдера на смену статуса
type UpdateStatusRequest struct {
	UserID     int64  `json:"userId"`
	ProviderID int64  `json:"providerId"`
	BookingID  int64  `json:"bookingId"`
	Status     string `json:"status"`
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID               int64   `json:"id"`
	RequesterID      int64   `json:"requesterId"`
	ProviderID       int64   `json:"providerId"`
	BookingDate      string  `json:"bookingDate"` // "2025-10-15"
	StartTime        string  `json:"startTime"`   // "10:00"
	DurationMinutes  int     `json:"durationMinutes"`
	ConsultationType string  `json:"consultationType"`
	Status           string  `json:"status"`
	Notes            *string `json:"notes,omitempty"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601 format

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// BookingStatsResponse сводка консультаций пациента по статусам
type BookingStatsResponse struct {
	Total      int64 `json:"totalConsultations"`
	Scheduled  int64 `json:"scheduledConsultations"`
	Confirmed  int64 `json:"confirmedConsultations"`
	InProgress int64 `json:"inProgressConsultations"`
	Completed  int64 `json:"completedConsultations"`
	Cancelled  int64 `json:"cancelledConsultations"`
}

// Методы конвертации

// FromDomainStatusCounts конвертирует подсчёт по статусам в DTO
func FromDomainStatusCounts(counts domain.BookingStatusCounts) *BookingStatsResponse {
	return &BookingStatsResponse{
		Total:      counts.Total(),
		Scheduled:  counts[domain.StatusScheduled],
		Confirmed:  counts[domain.StatusConfirmed],
		InProgress: counts[domain.StatusInProgress],
		Completed:  counts[domain.StatusCompleted],
		Cancelled:  counts[domain.StatusCancelled],
	}
}

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                 b.ID,
		RequesterID:        b.RequesterID,
		ProviderID:         b.ProviderID,
		BookingDate:        b.BookingDate.Format(domain.DateFormat),
		StartTime:          b.StartTime.String(),
		DurationMinutes:    b.DurationMinutes,
		ConsultationType:   string(b.ConsultationType),
		Status:             string(b.Status),
		Notes:              b.Notes,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	if b.CancelledAt != nil {
		cancelledStr := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus с валидацией
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	s := domain.BookingStatus(status)
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}
