package booking

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = fmt.Errorf("booking.repository: booking not found: %w", domain.ErrNotFound)

	// ErrSlotTaken возвращается, когда уникальный индекс активных слотов отклонил вставку или обновление
	ErrSlotTaken = fmt.Errorf("booking.repository: slot already taken: %w", domain.ErrPersistenceConflict)

	// ErrVersionConflict возвращается, когда бронирование изменили параллельно
	ErrVersionConflict = fmt.Errorf("booking.repository: version conflict: %w", domain.ErrPersistenceConflict)

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("booking.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("booking.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("booking.repository: failed to scan row")
)
