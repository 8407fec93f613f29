package domain

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusScheduled  BookingStatus = "scheduled"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

// IsValid reports whether s is a known status
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true for Completed and Cancelled
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ConsultationType is the channel the appointment is held over
type ConsultationType string

const (
	ConsultationVideo ConsultationType = "video"
	ConsultationAudio ConsultationType = "audio"
	ConsultationChat  ConsultationType = "chat"
)

// IsValid reports whether t is a known consultation type
func (t ConsultationType) IsValid() bool {
	return t == ConsultationVideo || t == ConsultationAudio || t == ConsultationChat
}

// Booking is an appointment of a requester with a provider.
// (ProviderID, BookingDate, StartTime) identifies the slot.
type Booking struct {
	ID               int64
	RequesterID      int64
	ProviderID       int64
	BookingDate      time.Time
	StartTime        types.TimeString
	DurationMinutes  int
	ConsultationType ConsultationType
	Notes            *string
	Status           BookingStatus

	// Version is bumped on every update and used for optimistic concurrency
	Version int64

	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the booking holds its slot
func (b *Booking) IsActive() bool {
	return !b.Status.IsTerminal()
}

// IsTerminal returns true if no further transitions are possible
func (b *Booking) IsTerminal() bool {
	return b.Status.IsTerminal()
}

// StartsAt returns the start instant of the booking in loc
func (b *Booking) StartsAt(loc *time.Location) time.Time {
	return b.StartTime.On(b.BookingDate, loc)
}

// Clone returns a copy safe to mutate
func (b *Booking) Clone() *Booking {
	c := *b
	if b.Notes != nil {
		n := *b.Notes
		c.Notes = &n
	}
	if b.CancellationReason != nil {
		r := *b.CancellationReason
		c.CancellationReason = &r
	}
	if b.CancelledAt != nil {
		t := *b.CancelledAt
		c.CancelledAt = &t
	}
	return &c
}

// RequesterBookingsFilter фильтр для списка бронирований пациента
type RequesterBookingsFilter struct {
	RequesterID int64
	Status      *BookingStatus
	Limit       uint64
	Offset      uint64
}

// UpcomingBookingsFilter фильтр предстоящих консультаций пациента.
// From задаёт момент в часовом поясе расписания, слоты раньше него не попадают.
type UpcomingBookingsFilter struct {
	RequesterID int64
	From        time.Time
	Limit       uint64
}

// BookingStatusCounts количество бронирований по статусам
type BookingStatusCounts map[BookingStatus]int64

// Total сумма по всем статусам
func (c BookingStatusCounts) Total() int64 {
	var total int64
	for _, n := range c {
		total += n
	}
	return total
}

// ProviderBookingsFilter фильтр для расписания провайдера
type ProviderBookingsFilter struct {
	ProviderID      int64
	Date            *time.Time
	Status          *BookingStatus
	IncludeInactive bool
}
