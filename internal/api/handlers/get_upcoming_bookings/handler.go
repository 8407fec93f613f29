package get_upcoming_bookings

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

// Handle GET /api/v1/bookings/upcoming
// Query params: limit (опционально, по умолчанию 5)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /bookings/upcoming - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	limit, err := handlers.QueryUint(r, "limit")
	if err != nil {
		h.logger.Warn("GET /bookings/upcoming - Invalid limit: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	result, err := h.service.GetUpcoming(r.Context(), &models.GetDashboardBookingsRequest{
		RequesterID: requesterID,
		Limit:       limit,
	})
	if err != nil {
		h.logger.Error("GET /bookings/upcoming - Failed to get upcoming bookings: requester_id=%d, error=%v", requesterID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /bookings/upcoming - Bookings retrieved successfully: requester_id=%d, count=%d",
		requesterID, len(result.Bookings))
	handlers.RespondJSON(w, http.StatusOK, result)
}
