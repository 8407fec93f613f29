package reconciliation

import "errors"

var (
	// ErrInvalidNotification возвращается, когда уведомление нельзя сопоставить с платежом
	ErrInvalidNotification = errors.New("reconciliation: invalid notification")

	// ErrInternal возвращается при внутренних ошибках движка сверки
	ErrInternal = errors.New("reconciliation: internal error")
)
