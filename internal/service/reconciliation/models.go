package reconciliation

import "github.com/m04kA/SMC-AppointmentService/internal/domain"

// Исходы сверки, они же значения метки outcome
const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeStale     = "stale"
	OutcomeRedriven  = "redriven"
	OutcomeUnknown   = "unknown"
	OutcomeRefund    = "refund_required"
	OutcomeError     = "error"
)

// InitiateRequest параметры открытия платежа
type InitiateRequest struct {
	BookingID   int64
	RequesterID int64
	Amount      int64
	Currency    string
	Method      domain.PaymentMethod
}

// Result результат применения уведомления
type Result struct {
	PaymentID     int64
	BookingID     int64
	PaymentStatus domain.PaymentStatus
	BookingStatus domain.BookingStatus
	Outcome       string
	// BookingConfirmed true, если это уведомление перевело бронирование в Confirmed
	BookingConfirmed bool
	// RefundRequired true, если оплата пришла по отменённому бронированию
	RefundRequired bool
}
