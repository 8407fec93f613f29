package get_my_payments

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/service/payments"
	"github.com/m04kA/SMC-AppointmentService/internal/service/payments/models"
)

const (
	msgMissingUserID = "отсутствует ID пользователя"
	msgInvalidParams = "некорректные параметры запроса"
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

// Handle GET /api/v1/payments
// Query params: status, limit, offset (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /payments - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	limit, err := handlers.QueryUint(r, "limit")
	if err != nil {
		h.logger.Warn("GET /payments - Invalid limit: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}
	offset, err := handlers.QueryUint(r, "offset")
	if err != nil {
		h.logger.Warn("GET /payments - Invalid offset: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	result, err := h.service.GetRequesterPayments(r.Context(), &models.GetRequesterPaymentsRequest{
		RequesterID: requesterID,
		Status:      handlers.QueryString(r, "status"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		if errors.Is(err, payments.ErrInvalidInput) {
			h.logger.Warn("GET /payments - Invalid parameters: requester_id=%d, error=%v", requesterID, err)
			handlers.RespondBadRequest(w, msgInvalidParams)
			return
		}

		h.logger.Error("GET /payments - Failed to get payments: requester_id=%d, error=%v", requesterID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /payments - Payments retrieved successfully: requester_id=%d, count=%d",
		requesterID, len(result.Payments))
	handlers.RespondJSON(w, http.StatusOK, result)
}
