package cancel_appointment

import "github.com/m04kA/SMC-AppointmentService/internal/domain"

// Request модель запроса на отмену
type Request struct {
	RequesterID int64   // ID пациента
	BookingID   int64   // ID бронирования
	Reason      *string // Причина отмены (опционально)
}

// Response модель ответа с отменённым бронированием
type Response struct {
	Booking *domain.Booking
	// Payment активный платёж на момент отмены (nil, если его не было)
	Payment *domain.PaymentRecord
	// RefundRequired true, если бронирование было оплачено
	RefundRequired bool
}
