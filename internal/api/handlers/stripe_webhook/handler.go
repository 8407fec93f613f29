package stripe_webhook

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/stripegateway"
	"github.com/m04kA/SMC-AppointmentService/internal/service/reconciliation"
	reconcilePayment "github.com/m04kA/SMC-AppointmentService/internal/usecase/reconcile_payment"
)

// SignatureHeader заголовок с подписью события
const SignatureHeader = "Stripe-Signature"

const (
	msgInvalidBody      = "не удалось прочитать тело запроса"
	msgInvalidSignature = "некорректная подпись"
	msgInvalidEvent     = "некорректное событие"
)

type Handler struct {
	parser  WebhookParser
	useCase ReconcilePaymentUseCase
	logger  Logger
}

func NewHandler(parser WebhookParser, useCase ReconcilePaymentUseCase, logger Logger) *Handler {
	return &Handler{
		parser:  parser,
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /webhooks/stripe
// Stripe повторяет доставку на любой ответ кроме 2xx
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := handlers.ReadBody(r)
	if err != nil {
		h.logger.Warn("POST /webhooks/stripe - Failed to read body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBody)
		return
	}

	notification, err := h.parser.ParseWebhook(payload, r.Header.Get(SignatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, stripegateway.ErrIgnoredEvent):
			h.logger.Info("POST /webhooks/stripe - Event ignored: %v", err)
			handlers.RespondJSON(w, http.StatusOK, &WebhookResponse{Received: true, Outcome: "ignored"})

		case errors.Is(err, stripegateway.ErrInvalidSignature):
			h.logger.Warn("POST /webhooks/stripe - Invalid signature: %v", err)
			handlers.RespondBadRequest(w, msgInvalidSignature)

		default:
			h.logger.Warn("POST /webhooks/stripe - Invalid event: %v", err)
			handlers.RespondBadRequest(w, msgInvalidEvent)
		}
		return
	}

	result, err := h.useCase.Execute(r.Context(), &reconcilePayment.Request{Notification: *notification})
	if err != nil {
		switch {
		case errors.Is(err, reconciliation.ErrInvalidNotification):
			h.logger.Warn("POST /webhooks/stripe - Invalid notification: tx=%s, error=%v",
				notification.GatewayTransactionID, err)
			handlers.RespondBadRequest(w, msgInvalidEvent)

		case errors.Is(err, domain.ErrUnknownTransaction):
			// 404, чтобы Stripe доставил событие повторно, когда платёж появится
			h.logger.Warn("POST /webhooks/stripe - Unknown transaction: tx=%s, reference=%s",
				notification.GatewayTransactionID, notification.Reference)
			handlers.RespondDomainError(w, err)

		default:
			h.logger.Error("POST /webhooks/stripe - Failed to reconcile: tx=%s, error=%v",
				notification.GatewayTransactionID, err)
			handlers.RespondDomainError(w, err)
		}
		return
	}

	response := FromUseCaseResponse(result)

	h.logger.Info("POST /webhooks/stripe - Notification processed: tx=%s, status=%s, outcome=%s",
		notification.GatewayTransactionID, notification.Status, response.Outcome)
	handlers.RespondJSON(w, http.StatusOK, response)
}
