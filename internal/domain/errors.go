package domain

import "errors"

// Failures returned by the booking and payment core.
// Storage and use case errors wrap these so callers can match with errors.Is.
var (
	ErrNotFound                 = errors.New("not found")
	ErrSlotUnavailable          = errors.New("slot unavailable")
	ErrPastAppointment          = errors.New("appointment time is in the past")
	ErrCancellationWindowClosed = errors.New("cancellation window closed")
	ErrInvalidTransition        = errors.New("invalid booking transition")
	ErrInvalidBookingState      = errors.New("invalid booking state for payment")
	ErrDuplicatePayment         = errors.New("duplicate payment")
	ErrUnknownTransaction       = errors.New("unknown transaction")
	ErrGatewayTimeout           = errors.New("payment gateway timeout")
	ErrGatewayUnavailable       = errors.New("payment gateway unavailable")
	ErrPersistenceConflict      = errors.New("persistence conflict")
)

// IsRetryable reports whether the caller may retry the operation with backoff
func IsRetryable(err error) bool {
	return errors.Is(err, ErrGatewayTimeout) || errors.Is(err, ErrGatewayUnavailable)
}
