package initiate_payment

import "github.com/m04kA/SMC-AppointmentService/internal/domain"

// Request модель запроса на оплату бронирования
type Request struct {
	RequesterID int64                // ID пациента
	BookingID   int64                // ID бронирования
	Method      domain.PaymentMethod // Способ оплаты, пусто - card
}

// Response модель ответа с открытым платежом
type Response struct {
	Intent *domain.PaymentIntent
}
