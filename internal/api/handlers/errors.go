package handlers

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

const (
	msgInternalError            = "внутренняя ошибка сервера"
	msgNotFound                 = "ресурс не найден"
	msgSlotUnavailable          = "выбранный временной слот недоступен"
	msgPastAppointment          = "время приёма уже прошло"
	msgCancellationWindowClosed = "отмена невозможна: до начала приёма осталось слишком мало времени"
	msgInvalidTransition        = "недопустимый переход статуса бронирования"
	msgInvalidBookingState      = "бронирование нельзя оплатить в текущем статусе"
	msgDuplicatePayment         = "по бронированию уже есть активный платёж"
	msgUnknownTransaction       = "транзакция не найдена"
	msgGatewayTimeout           = "платёжный шлюз не ответил вовремя, повторите попытку"
	msgGatewayUnavailable       = "платёжный шлюз недоступен, повторите попытку"
	msgPersistenceConflict      = "данные изменились, повторите попытку"
)

// StatusFor сопоставляет доменную ошибку HTTP статусу и сообщению.
// ok=false, если ошибка не относится к доменной таксономии.
func StatusFor(err error) (status int, message string, ok bool) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, msgNotFound, true
	case errors.Is(err, domain.ErrSlotUnavailable):
		return http.StatusConflict, msgSlotUnavailable, true
	case errors.Is(err, domain.ErrDuplicatePayment):
		return http.StatusConflict, msgDuplicatePayment, true
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, msgInvalidTransition, true
	case errors.Is(err, domain.ErrInvalidBookingState):
		return http.StatusConflict, msgInvalidBookingState, true
	case errors.Is(err, domain.ErrCancellationWindowClosed):
		return http.StatusConflict, msgCancellationWindowClosed, true
	case errors.Is(err, domain.ErrPersistenceConflict):
		return http.StatusConflict, msgPersistenceConflict, true
	case errors.Is(err, domain.ErrPastAppointment):
		return http.StatusBadRequest, msgPastAppointment, true
	case errors.Is(err, domain.ErrUnknownTransaction):
		return http.StatusNotFound, msgUnknownTransaction, true
	case errors.Is(err, domain.ErrGatewayTimeout):
		return http.StatusGatewayTimeout, msgGatewayTimeout, true
	case errors.Is(err, domain.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable, msgGatewayUnavailable, true
	default:
		return http.StatusInternalServerError, msgInternalError, false
	}
}

// RespondDomainError отправляет ответ по доменной ошибке, иначе 500
func RespondDomainError(w http.ResponseWriter, err error) {
	status, message, _ := StatusFor(err)
	RespondError(w, status, message)
}
