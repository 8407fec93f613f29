package domain

import "time"

// Default configuration values
const (
	DefaultDurationMinutes         = 30
	DefaultCancellationGraceWindow = 2 * time.Hour
	DefaultCurrency                = "USD"
	DefaultConsultationFee         = 5000 // minor units, 50.00
	DefaultMinBookingNoticeMinutes = 0
	DefaultListLimit               = 20
	DefaultDashboardLimit          = 5
	MaxListLimit                   = 100
)

// Business validation constants
const (
	MinDurationMinutes          = 5
	MaxDurationMinutes          = 240
	MaxNotesLength              = 1000
	MaxCancellationReasonLength = 500
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// NonTerminalStatuses statuses that hold a slot.
// The slot uniqueness constraint is scoped to these.
var NonTerminalStatuses = []BookingStatus{
	StatusScheduled,
	StatusConfirmed,
	StatusInProgress,
}

// UpcomingStatuses statuses listed as upcoming on the requester dashboard
var UpcomingStatuses = []BookingStatus{
	StatusScheduled,
	StatusConfirmed,
}

// TerminalStatuses statuses after which a booking never changes
var TerminalStatuses = []BookingStatus{
	StatusCompleted,
	StatusCancelled,
}

// ActivePaymentStatuses at most one payment per booking may be in one of these
var ActivePaymentStatuses = []PaymentStatus{
	PaymentPending,
	PaymentCompleted,
}
