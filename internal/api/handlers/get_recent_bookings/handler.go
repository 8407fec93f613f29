package get_recent_bookings

import (
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
)

const (
	msgMissingUserID = "отсутствует ID пользователя"
	msgInvalidParams = "некорректные параметры запроса"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/bookings/recent
// Завершённые консультации, новые первыми. Query params: limit (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /bookings/recent - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	limit, err := handlers.QueryUint(r, "limit")
	if err != nil {
		h.logger.Warn("GET /bookings/recent - Invalid limit: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	result, err := h.service.GetRecent(r.Context(), &models.GetDashboardBookingsRequest{
		RequesterID: requesterID,
		Limit:       limit,
	})
	if err != nil {
		h.logger.Error("GET /bookings/recent - Failed to get recent bookings: requester_id=%d, error=%v", requesterID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /bookings/recent - Bookings retrieved successfully: requester_id=%d, count=%d",
		requesterID, len(result.Bookings))
	handlers.RespondJSON(w, http.StatusOK, result)
}
