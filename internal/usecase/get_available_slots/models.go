package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	RequesterID int64     // ID пользователя (для логирования, не влияет на результат)
	ProviderID  int64     // ID провайдера
	Date        time.Time // Дата для получения слотов (без времени)
}

// Response модель ответа со списком слотов
type Response struct {
	Date       time.Time // Дата, на которую запрашивались слоты
	ProviderID int64     // ID провайдера
	Slots      []Slot    // Будущие слоты рабочего дня
}

// Slot модель временного слота
type Slot struct {
	StartTime       types.TimeString // Время начала слота (например, "10:00")
	DurationMinutes int              // Длительность слота в минутах
	Available       bool             // Слот не занят активным бронированием
}

// Settings параметры сетки слотов
type Settings struct {
	SlotDurationMinutes     int            // Шаг сетки и длительность слота
	MinBookingNoticeMinutes int            // Минимальное время до начала слота
	Location                *time.Location // Часовой пояс расписания
}
