package book_appointment

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Request модель запроса на запись к провайдеру
type Request struct {
	RequesterID      int64                   // ID пациента
	ProviderID       int64                   // ID провайдера
	Date             time.Time               // Дата приёма (без времени)
	StartTime        types.TimeString        // Время начала (например, "10:00")
	DurationMinutes  int                     // Длительность, 0 - по умолчанию
	ConsultationType domain.ConsultationType // Формат приёма, пусто - video
	Notes            *string                 // Заметки (опционально)
}

// Response модель ответа с созданным бронированием
type Response struct {
	Booking *domain.Booking
}
