package reconcile_payment

import (
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/reconciliation"
)

// Request модель уведомления шлюза, уже разобранного адаптером
type Request struct {
	Notification domain.Notification
}

// Response модель результата сверки
type Response struct {
	// Result nil, если уведомление отсеяно кэшем
	Result *reconciliation.Result
	// Cached true, если такое уведомление уже было применено
	Cached bool
}
