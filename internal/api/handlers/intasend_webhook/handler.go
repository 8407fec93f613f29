package intasend_webhook

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/intasend"
	"github.com/m04kA/SMC-AppointmentService/internal/service/reconciliation"
	reconcilePayment "github.com/m04kA/SMC-AppointmentService/internal/usecase/reconcile_payment"
)

const (
	msgInvalidBody     = "некорректное тело запроса"
	msgInvalidCallback = "некорректное уведомление"
	msgPaymentNotFound = "платёж не найден в шлюзе"
)

// WebhookResponse HTTP response model
type WebhookResponse struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome,omitempty"`
}

type Handler struct {
	verifier CallbackVerifier
	useCase  ReconcilePaymentUseCase
	logger   Logger
}

func NewHandler(verifier CallbackVerifier, useCase ReconcilePaymentUseCase, logger Logger) *Handler {
	return &Handler{
		verifier: verifier,
		useCase:  useCase,
		logger:   logger,
	}
}

// Handle POST /webhooks/intasend
// Тело уведомления содержит лишние поля, поэтому разбирается без строгой проверки
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := handlers.ReadBody(r)
	if err != nil {
		h.logger.Warn("POST /webhooks/intasend - Failed to read body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBody)
		return
	}

	var cb intasend.Callback
	if err := json.Unmarshal(payload, &cb); err != nil {
		h.logger.Warn("POST /webhooks/intasend - Invalid body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBody)
		return
	}

	notification, err := h.verifier.VerifyCallback(r.Context(), cb)
	if err != nil {
		switch {
		case errors.Is(err, intasend.ErrInvalidCallback):
			h.logger.Warn("POST /webhooks/intasend - Rejected callback: payment_id=%s, error=%v", cb.PaymentID, err)
			handlers.RespondBadRequest(w, msgInvalidCallback)

		case errors.Is(err, intasend.ErrPaymentNotFound):
			h.logger.Warn("POST /webhooks/intasend - Payment unknown to gateway: payment_id=%s", cb.PaymentID)
			handlers.RespondNotFound(w, msgPaymentNotFound)

		default:
			h.logger.Error("POST /webhooks/intasend - Failed to verify callback: payment_id=%s, error=%v",
				cb.PaymentID, err)
			handlers.RespondDomainError(w, err)
		}
		return
	}

	result, err := h.useCase.Execute(r.Context(), &reconcilePayment.Request{Notification: *notification})
	if err != nil {
		switch {
		case errors.Is(err, reconciliation.ErrInvalidNotification):
			h.logger.Warn("POST /webhooks/intasend - Invalid notification: payment_id=%s, error=%v", cb.PaymentID, err)
			handlers.RespondBadRequest(w, msgInvalidCallback)

		case errors.Is(err, domain.ErrUnknownTransaction):
			h.logger.Warn("POST /webhooks/intasend - Unknown transaction: payment_id=%s, reference=%s",
				cb.PaymentID, notification.Reference)
			handlers.RespondDomainError(w, err)

		default:
			h.logger.Error("POST /webhooks/intasend - Failed to reconcile: payment_id=%s, error=%v", cb.PaymentID, err)
			handlers.RespondDomainError(w, err)
		}
		return
	}

	response := &WebhookResponse{Received: true}
	switch {
	case result.Cached:
		response.Outcome = "duplicate"
	case result.Result != nil:
		response.Outcome = result.Result.Outcome
	}

	h.logger.Info("POST /webhooks/intasend - Notification processed: payment_id=%s, status=%s, outcome=%s",
		cb.PaymentID, notification.Status, response.Outcome)
	handlers.RespondJSON(w, http.StatusOK, response)
}
