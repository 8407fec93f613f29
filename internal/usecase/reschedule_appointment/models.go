package reschedule_appointment

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Request модель запроса на перенос
type Request struct {
	RequesterID int64            // ID пациента
	BookingID   int64            // ID бронирования
	Date        time.Time        // Новая дата
	StartTime   types.TimeString // Новое время начала
}

// Response модель ответа с перенесённым бронированием
type Response struct {
	Booking *domain.Booking
	// Reconfirmed true, если оплата уже была и бронирование снова подтверждено
	Reconfirmed bool
}
