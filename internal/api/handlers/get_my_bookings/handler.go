package get_my_bookings

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings"
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

// Handle GET /api/v1/bookings
// Query params: status, limit, offset (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	limit, err := handlers.QueryUint(r, "limit")
	if err != nil {
		h.logger.Warn("GET /bookings - Invalid limit: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}
	offset, err := handlers.QueryUint(r, "offset")
	if err != nil {
		h.logger.Warn("GET /bookings - Invalid offset: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	serviceReq := &models.GetRequesterBookingsRequest{
		RequesterID: requesterID,
		Status:      handlers.QueryString(r, "status"),
		Limit:       limit,
		Offset:      offset,
	}

	result, err := h.service.GetRequesterBookings(r.Context(), serviceReq)
	if err != nil {
		if errors.Is(err, bookings.ErrInvalidInput) {
			h.logger.Warn("GET /bookings - Invalid parameters: requester_id=%d, error=%v", requesterID, err)
			handlers.RespondBadRequest(w, msgInvalidParams)
			return
		}

		h.logger.Error("GET /bookings - Failed to get bookings: requester_id=%d, error=%v", requesterID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /bookings - Bookings retrieved successfully: requester_id=%d, count=%d",
		requesterID, len(result.Bookings))
	handlers.RespondJSON(w, http.StatusOK, result)
}
