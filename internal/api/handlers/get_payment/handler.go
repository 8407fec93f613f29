package get_payment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/service/payments"
)

const (
	msgInvalidPaymentID = "некорректный ID платежа"
	msgMissingUserID    = "отсутствует ID пользователя"
	msgNotFound         = "платёж не найден"
)

type Handler struct {
	service PaymentService
	logger  Logger
}

func NewHandler(service PaymentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/payments/{paymentId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	paymentID, err := handlers.PathID(r, "paymentId")
	if err != nil {
		h.logger.Warn("GET /payments/{id} - Invalid payment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidPaymentID)
		return
	}

	requesterID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /payments/{id} - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	payment, err := h.service.GetByID(r.Context(), paymentID, requesterID)
	if err != nil {
		if errors.Is(err, payments.ErrPaymentNotFound) {
			h.logger.Warn("GET /payments/{id} - Payment not found: payment_id=%d, requester_id=%d", paymentID, requesterID)
			handlers.RespondNotFound(w, msgNotFound)
			return
		}

		h.logger.Error("GET /payments/{id} - Failed to get payment: payment_id=%d, error=%v", paymentID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /payments/{id} - Payment retrieved successfully: payment_id=%d", paymentID)
	handlers.RespondJSON(w, http.StatusOK, payment)
}
