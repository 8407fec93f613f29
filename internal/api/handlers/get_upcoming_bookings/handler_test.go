package get_upcoming_bookings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/service/bookings/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

type stubService struct {
	got *models.GetDashboardBookingsRequest
	err error
}

func (s *stubService) GetUpcoming(_ context.Context, req *models.GetDashboardBookingsRequest) (*models.BookingListResponse, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.BookingListResponse{Bookings: []models.BookingResponse{{ID: 3, BookingDate: "2026-05-13", StartTime: "10:00"}}}, nil
}

func serve(svc *stubService, target string, userID int64) *httptest.ResponseRecorder {
	h := NewHandler(svc, logger.NewNop())
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if userID != 0 {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandle_OK(t *testing.T) {
	svc := &stubService{}

	rec := serve(svc, "/api/v1/bookings/upcoming?limit=3", 5)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.got)
	assert.Equal(t, int64(5), svc.got.RequesterID)
	assert.Equal(t, uint64(3), svc.got.Limit)

	var resp models.BookingListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, int64(3), resp.Bookings[0].ID)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		userID int64
		err    error
		want   int
	}{
		{name: "no user", target: "/api/v1/bookings/upcoming", want: http.StatusUnauthorized},
		{name: "bad limit", target: "/api/v1/bookings/upcoming?limit=-1", userID: 5, want: http.StatusBadRequest},
		{name: "service failure", target: "/api/v1/bookings/upcoming", userID: 5, err: errors.New("db down"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(&stubService{err: tt.err}, tt.target, tt.userID)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
