package domain

import "github.com/m04kA/SMC-AppointmentService/pkg/types"

// AvailableSlot represents a time slot of a provider on a given day
type AvailableSlot struct {
	StartTime       types.TimeString
	DurationMinutes int
	Available       bool
}

// EndTime returns the time the slot ends
func (s *AvailableSlot) EndTime() (types.TimeString, error) {
	return s.StartTime.AddMinutes(s.DurationMinutes)
}
