package lifecycle

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Machine проверяет и применяет переходы статуса одного бронирования.
// Любой отклонённый переход оставляет бронирование без изменений:
// все проверки выполняются до первой мутации.
// Проверка конфликтов слотов выполняется вызывающим кодом через хранилище.
type Machine struct {
	clock       TimeProvider
	graceWindow time.Duration
	location    *time.Location
}

// NewMachine создает машину состояний.
// graceWindow - минимальное время до начала, при котором отмена ещё разрешена.
func NewMachine(clock TimeProvider, graceWindow time.Duration, location *time.Location) *Machine {
	if graceWindow <= 0 {
		graceWindow = domain.DefaultCancellationGraceWindow
	}
	if location == nil {
		location = time.UTC
	}
	return &Machine{
		clock:       clock,
		graceWindow: graceWindow,
		location:    location,
	}
}

// Location часовой пояс, в котором интерпретируются дата и время слота
func (m *Machine) Location() *time.Location {
	return m.location
}

// Now текущее время в часовом поясе машины
func (m *Machine) Now() time.Time {
	return m.clock.Now().In(m.location)
}

// BookRequest параметры нового бронирования
type BookRequest struct {
	RequesterID      int64
	ProviderID       int64
	Date             time.Time
	StartTime        types.TimeString
	DurationMinutes  int
	ConsultationType domain.ConsultationType
	Notes            *string
}

// Book создает бронирование в статусе Scheduled.
// Время начала должно быть строго в будущем.
func (m *Machine) Book(req BookRequest) (*domain.Booking, error) {
	if err := m.ensureFuture(req.Date, req.StartTime); err != nil {
		return nil, err
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = domain.DefaultDurationMinutes
	}
	consultationType := req.ConsultationType
	if consultationType == "" {
		consultationType = domain.ConsultationVideo
	}

	now := m.Now()
	return &domain.Booking{
		RequesterID:      req.RequesterID,
		ProviderID:       req.ProviderID,
		BookingDate:      dateOnly(req.Date),
		StartTime:        req.StartTime,
		DurationMinutes:  duration,
		ConsultationType: consultationType,
		Notes:            req.Notes,
		Status:           domain.StatusScheduled,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Reschedule переносит бронирование на новые дату и время и сбрасывает статус в Scheduled.
// Разрешено только из Scheduled и Confirmed.
func (m *Machine) Reschedule(b *domain.Booking, date time.Time, start types.TimeString) error {
	if b.Status != domain.StatusScheduled && b.Status != domain.StatusConfirmed {
		return fmt.Errorf("%w: cannot reschedule booking %d in status %s", domain.ErrInvalidTransition, b.ID, b.Status)
	}
	if err := m.ensureFuture(date, start); err != nil {
		return err
	}

	b.BookingDate = dateOnly(date)
	b.StartTime = start
	b.Status = domain.StatusScheduled
	b.UpdatedAt = m.Now()
	return nil
}

// Cancel отменяет бронирование.
// Завершённые и отменённые бронирования отменить нельзя (ErrInvalidTransition),
// до начала должно оставаться строго больше окна отмены (ErrCancellationWindowClosed).
func (m *Machine) Cancel(b *domain.Booking, reason *string) error {
	if b.IsTerminal() {
		return fmt.Errorf("%w: booking %d is already %s", domain.ErrInvalidTransition, b.ID, b.Status)
	}

	now := m.Now()
	if b.StartsAt(m.location).Sub(now) <= m.graceWindow {
		return fmt.Errorf("%w: booking %d starts at %s, cancellation requires more than %s notice",
			domain.ErrCancellationWindowClosed, b.ID, b.StartsAt(m.location).Format(time.RFC3339), m.graceWindow)
	}

	b.Status = domain.StatusCancelled
	b.CancellationReason = reason
	b.CancelledAt = &now
	b.UpdatedAt = now
	return nil
}

// ConfirmViaPayment переводит Scheduled в Confirmed после успешной оплаты.
// Повторное применение к уже подтверждённому (или начатому, завершённому) бронированию
// ничего не меняет и возвращает changed=false.
func (m *Machine) ConfirmViaPayment(b *domain.Booking) (changed bool, err error) {
	switch b.Status {
	case domain.StatusScheduled:
		b.Status = domain.StatusConfirmed
		b.UpdatedAt = m.Now()
		return true, nil
	case domain.StatusConfirmed, domain.StatusInProgress, domain.StatusCompleted:
		return false, nil
	default:
		return false, fmt.Errorf("%w: cannot confirm booking %d in status %s", domain.ErrInvalidTransition, b.ID, b.Status)
	}
}

// Start переводит Confirmed в InProgress
func (m *Machine) Start(b *domain.Booking) error {
	if b.Status != domain.StatusConfirmed {
		return fmt.Errorf("%w: cannot start booking %d in status %s", domain.ErrInvalidTransition, b.ID, b.Status)
	}
	b.Status = domain.StatusInProgress
	b.UpdatedAt = m.Now()
	return nil
}

// Complete переводит InProgress в Completed. Completed терминален.
func (m *Machine) Complete(b *domain.Booking) error {
	if b.Status != domain.StatusInProgress {
		return fmt.Errorf("%w: cannot complete booking %d in status %s", domain.ErrInvalidTransition, b.ID, b.Status)
	}
	b.Status = domain.StatusCompleted
	b.UpdatedAt = m.Now()
	return nil
}

// IsFuture сообщает, начинается ли слот строго позже текущего момента
func (m *Machine) IsFuture(date time.Time, start types.TimeString) bool {
	return start.On(date, m.location).After(m.Now())
}

func (m *Machine) ensureFuture(date time.Time, start types.TimeString) error {
	if !m.IsFuture(date, start) {
		return fmt.Errorf("%w: %s %s", domain.ErrPastAppointment, date.Format(domain.DateFormat), start)
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
