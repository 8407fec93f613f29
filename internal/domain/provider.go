package domain

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// DaySchedule working hours of a provider on one weekday
type DaySchedule struct {
	IsOpen    bool
	OpenTime  types.TimeString
	CloseTime types.TimeString
}

// WorkingHours weekly schedule keyed by weekday
type WorkingHours map[time.Weekday]DaySchedule

// Provider is the party appointments are booked with.
// Profile data is owned elsewhere; only what booking and payment need is kept here.
type Provider struct {
	ID              int64
	Name            string
	ConsultationFee int64 // minor units
	Currency        string
	IsActive        bool
	WorkingHours    WorkingHours
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ScheduleFor returns working hours for the weekday of date
func (p *Provider) ScheduleFor(date time.Time) DaySchedule {
	if p.WorkingHours == nil {
		return DaySchedule{}
	}
	return p.WorkingHours[date.Weekday()]
}

// FeeOrDefault returns the consultation fee, falling back to DefaultConsultationFee
func (p *Provider) FeeOrDefault() int64 {
	if p.ConsultationFee <= 0 {
		return DefaultConsultationFee
	}
	return p.ConsultationFee
}

// CurrencyOrDefault returns the fee currency, falling back to DefaultCurrency
func (p *Provider) CurrencyOrDefault() string {
	if p.Currency == "" {
		return DefaultCurrency
	}
	return p.Currency
}
