package domain

import (
	"strings"
	"time"
)

// PaymentStatus represents the status of a payment record
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// IsValid reports whether s is a known payment status
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// IsActive returns true for statuses that block another payment for the booking
func (s PaymentStatus) IsActive() bool {
	return s == PaymentPending || s == PaymentCompleted
}

// IsTerminal returns true once the gateway outcome is known
func (s PaymentStatus) IsTerminal() bool {
	return s != PaymentPending
}

// CanTransitionTo implements the forward-only mapping Pending -> {Completed, Failed}.
// Everything else, including repeating the current status, is rejected.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return s == PaymentPending && (next == PaymentCompleted || next == PaymentFailed)
}

// PaymentMethod is how the requester pays
type PaymentMethod string

const (
	MethodCard         PaymentMethod = "card"
	MethodMobileMoney  PaymentMethod = "mobile_money"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

// IsValid reports whether m is a supported method
func (m PaymentMethod) IsValid() bool {
	return m == MethodCard || m == MethodMobileMoney || m == MethodBankTransfer
}

// PaymentRecord is a local record of one payment attempt for a booking
type PaymentRecord struct {
	ID          int64
	BookingID   int64
	RequesterID int64
	Amount      int64 // minor units
	Currency    string
	Method      PaymentMethod

	// Reference is generated locally and sent to the gateway as metadata,
	// so notifications can be matched before ExternalTransactionID is known.
	Reference string

	// ExternalTransactionID is assigned by the gateway; unique and immutable once set
	ExternalTransactionID *string

	Status            PaymentStatus
	RawGatewayPayload []byte
	FailureReason     *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the payment blocks a new attempt for the booking
func (p *PaymentRecord) IsActive() bool {
	return p.Status.IsActive()
}

// FailureReason prefixes. A failure set by this service rather than by the gateway
// can still be followed by a capture the gateway completed on its side.
const (
	LocalFailurePrefix = "local: "
	RefundFlagPrefix   = "refund required: "
)

// LocalFailureReason marks reason as a failure recorded without a gateway outcome
func LocalFailureReason(reason string) *string {
	r := LocalFailurePrefix + reason
	return &r
}

// FailedLocally reports whether the payment was failed locally and the gateway
// outcome is still unknown
func (p *PaymentRecord) FailedLocally() bool {
	return p.Status == PaymentFailed && p.FailureReason != nil &&
		strings.HasPrefix(*p.FailureReason, LocalFailurePrefix)
}

// RefundFlagged reports whether a late capture was already recorded for a locally failed payment
func (p *PaymentRecord) RefundFlagged() bool {
	return p.Status == PaymentFailed && p.FailureReason != nil &&
		strings.HasPrefix(*p.FailureReason, RefundFlagPrefix)
}

// Clone returns a copy safe to mutate
func (p *PaymentRecord) Clone() *PaymentRecord {
	c := *p
	if p.ExternalTransactionID != nil {
		id := *p.ExternalTransactionID
		c.ExternalTransactionID = &id
	}
	if p.FailureReason != nil {
		r := *p.FailureReason
		c.FailureReason = &r
	}
	if p.RawGatewayPayload != nil {
		c.RawGatewayPayload = append([]byte(nil), p.RawGatewayPayload...)
	}
	return &c
}

// PaymentIntent is returned to the requester after a payment is initiated
type PaymentIntent struct {
	PaymentID            int64
	BookingID            int64
	Reference            string
	GatewayTransactionID string
	RedirectURL          string
	Amount               int64
	Currency             string
	Method               PaymentMethod
	Status               PaymentStatus
}

// RequesterPaymentsFilter фильтр истории платежей
type RequesterPaymentsFilter struct {
	RequesterID int64
	Status      *PaymentStatus
	Limit       uint64
	Offset      uint64
}

// PaymentStats aggregates a requester's payment history.
// CompletedAmount is the sum of completed payments in minor units.
type PaymentStats struct {
	Total           int64
	Successful      int64
	Failed          int64
	CompletedAmount int64
}
