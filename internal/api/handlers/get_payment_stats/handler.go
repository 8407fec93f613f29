package get_payment_stats

import (
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
)

const msgMissingUserID = "отсутствует ID пользователя"

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

// Handle GET /api/v1/payments/stats/overview
// Всего платежей, успешные, неуспешные и сумма завершённых
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /payments/stats/overview - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	result, err := h.service.GetStats(r.Context(), requesterID)
	if err != nil {
		h.logger.Error("GET /payments/stats/overview - Failed to get stats: requester_id=%d, error=%v", requesterID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /payments/stats/overview - Stats retrieved successfully: requester_id=%d, total=%d",
		requesterID, result.Total)
	handlers.RespondJSON(w, http.StatusOK, result)
}
