package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// generateTimeSlots генерирует слоты рабочего дня с фиксированным шагом slotDuration.
// Слоты, начинающиеся не позже now + minBookingNoticeMinutes, отбрасываются.
func generateTimeSlots(
	schedule domain.DaySchedule,
	slotDuration int,
	date time.Time,
	now time.Time,
	minBookingNoticeMinutes int,
	loc *time.Location,
) ([]types.TimeString, error) {
	// Если провайдер не работает в этот день
	if !schedule.IsOpen || schedule.OpenTime == "" || schedule.CloseTime == "" {
		return []types.TimeString{}, nil
	}

	// Шаг 1: Генерируем ВСЕ слоты от начала работы до конца
	allSlots := make([]types.TimeString, 0)
	currentSlot := schedule.OpenTime

	for currentSlot.IsBefore(schedule.CloseTime) {
		slotEnd, err := currentSlot.AddMinutes(slotDuration)
		if err != nil {
			return nil, err
		}
		if slotEnd.IsAfter(schedule.CloseTime) {
			break
		}

		allSlots = append(allSlots, currentSlot)
		currentSlot = slotEnd
	}

	// Шаг 2: Оставляем только слоты строго в будущем с учётом минимального времени до начала
	threshold := now.Add(time.Duration(minBookingNoticeMinutes) * time.Minute)
	futureSlots := make([]types.TimeString, 0, len(allSlots))
	for _, slot := range allSlots {
		if slot.On(date, loc).After(threshold) {
			futureSlots = append(futureSlots, slot)
		}
	}

	return futureSlots, nil
}

// markAvailability помечает слоты, пересекающиеся с активными бронированиями
func markAvailability(slots []types.TimeString, slotDuration int, bookings []*domain.Booking) []Slot {
	result := make([]Slot, len(slots))

	for i, slotStart := range slots {
		result[i] = Slot{
			StartTime:       slotStart,
			DurationMinutes: slotDuration,
			Available:       !overlapsAny(slotStart, slotDuration, bookings),
		}
	}

	return result
}

// overlapsAny проверяет пересечение слота хотя бы с одним активным бронированием.
// Граничащие интервалы (конец одного равен началу другого) не пересекаются.
//
// Примеры:
// - Слот 11:30-12:00, бронирование 11:20-11:40 → ЕСТЬ пересечение
// - Слот 11:30-12:00, бронирование 11:00-11:30 → НЕТ пересечения
func overlapsAny(slotStart types.TimeString, slotDuration int, bookings []*domain.Booking) bool {
	slotEnd, err := slotStart.AddMinutes(slotDuration)
	if err != nil {
		return false
	}

	for _, booking := range bookings {
		if !booking.IsActive() {
			continue
		}

		bookingEnd, err := booking.StartTime.AddMinutes(booking.DurationMinutes)
		if err != nil {
			continue
		}

		if booking.StartTime.IsBefore(slotEnd) && bookingEnd.IsAfter(slotStart) {
			return true
		}
	}

	return false
}

// isDateInPast проверяет, что дата раньше сегодняшнего дня
func isDateInPast(date, now time.Time) bool {
	dateOnly := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	nowOnly := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return dateOnly.Before(nowOnly)
}
