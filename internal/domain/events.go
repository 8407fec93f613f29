package domain

import "time"

// Routing keys of published domain events
const (
	EventBookingCreated     = "booking.created"
	EventBookingRescheduled = "booking.rescheduled"
	EventBookingCancelled   = "booking.cancelled"
	EventBookingConfirmed   = "booking.confirmed"
	EventBookingCompleted   = "booking.completed"
	EventPaymentCompleted   = "payment.completed"
	EventPaymentFailed      = "payment.failed"
)

// BookingEvent payload of booking.* events
type BookingEvent struct {
	BookingID      int64     `json:"bookingId"`
	RequesterID    int64     `json:"requesterId"`
	ProviderID     int64     `json:"providerId"`
	Date           string    `json:"date"`
	StartTime      string    `json:"startTime"`
	Status         string    `json:"status"`
	RefundRequired bool      `json:"refundRequired,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// PaymentEvent payload of payment.* events
type PaymentEvent struct {
	PaymentID            int64     `json:"paymentId"`
	BookingID            int64     `json:"bookingId"`
	Reference            string    `json:"reference"`
	GatewayTransactionID string    `json:"gatewayTransactionId"`
	Amount               int64     `json:"amount"`
	Currency             string    `json:"currency"`
	Status               string    `json:"status"`
	RefundRequired       bool      `json:"refundRequired,omitempty"`
	OccurredAt           time.Time `json:"occurredAt"`
}

// NewBookingEvent builds the event payload for b
func NewBookingEvent(b *Booking, at time.Time) BookingEvent {
	return BookingEvent{
		BookingID:   b.ID,
		RequesterID: b.RequesterID,
		ProviderID:  b.ProviderID,
		Date:        b.BookingDate.Format(DateFormat),
		StartTime:   b.StartTime.String(),
		Status:      string(b.Status),
		OccurredAt:  at,
	}
}

// NewPaymentEvent builds the event payload for p
func NewPaymentEvent(p *PaymentRecord, at time.Time) PaymentEvent {
	ev := PaymentEvent{
		PaymentID:  p.ID,
		BookingID:  p.BookingID,
		Reference:  p.Reference,
		Amount:     p.Amount,
		Currency:   p.Currency,
		Status:     string(p.Status),
		OccurredAt: at,
	}
	if p.ExternalTransactionID != nil {
		ev.GatewayTransactionID = *p.ExternalTransactionID
	}
	return ev
}
