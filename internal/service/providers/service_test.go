package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-AppointmentService/internal/service/providers/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

func newService(t *testing.T) *Service {
	t.Helper()
	store := memory.NewStore()
	store.Providers().Put(context.Background(), &domain.Provider{
		ID:       5,
		Name:     "Dr. Mwangi",
		IsActive: true,
		WorkingHours: domain.WorkingHours{
			time.Monday: {IsOpen: true, OpenTime: "09:00", CloseTime: "17:00"},
		},
	})
	return NewService(store.Providers(), logger.NewNop())
}

func TestService_GetProfileDefaults(t *testing.T) {
	svc := newService(t)

	resp, err := svc.GetProfile(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(domain.DefaultConsultationFee), resp.ConsultationFee)
	assert.Equal(t, domain.DefaultCurrency, resp.Currency)
	assert.Equal(t, "09:00", resp.WorkingHours["monday"].OpenTime)

	_, err = svc.GetProfile(context.Background(), 6)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_UpdateProfile(t *testing.T) {
	svc := newService(t)

	resp, err := svc.UpdateProfile(context.Background(), &models.UpdateProfileRequest{
		UserID:          5,
		ProviderID:      5,
		ConsultationFee: ptr.Ptr(int64(250000)),
		Currency:        ptr.Ptr("kes"),
		WorkingHours: map[string]models.DaySchedule{
			"Tuesday": {IsOpen: true, OpenTime: "08:00:00", CloseTime: "12:00"},
			"sunday":  {IsOpen: false},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(250000), resp.ConsultationFee)
	assert.Equal(t, "KES", resp.Currency)
	assert.Equal(t, "Dr. Mwangi", resp.Name)
	assert.Equal(t, "08:00", resp.WorkingHours["tuesday"].OpenTime)
	assert.NotContains(t, resp.WorkingHours, "monday")
	assert.Equal(t, types.TimeString("12:00").String(), resp.WorkingHours["tuesday"].CloseTime)
}

func TestService_UpdateProfileErrors(t *testing.T) {
	svc := newService(t)

	tests := []struct {
		name    string
		req     *models.UpdateProfileRequest
		wantErr error
	}{
		{
			name:    "other user",
			req:     &models.UpdateProfileRequest{UserID: 1, ProviderID: 5},
			wantErr: ErrAccessDenied,
		},
		{
			name:    "unknown provider",
			req:     &models.UpdateProfileRequest{UserID: 9, ProviderID: 9},
			wantErr: ErrProviderNotFound,
		},
		{
			name:    "zero fee",
			req:     &models.UpdateProfileRequest{UserID: 5, ProviderID: 5, ConsultationFee: ptr.Ptr(int64(0))},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "bad currency",
			req:     &models.UpdateProfileRequest{UserID: 5, ProviderID: 5, Currency: ptr.Ptr("shilling")},
			wantErr: ErrInvalidInput,
		},
		{
			name: "inverted hours",
			req: &models.UpdateProfileRequest{UserID: 5, ProviderID: 5, WorkingHours: map[string]models.DaySchedule{
				"monday": {IsOpen: true, OpenTime: "18:00", CloseTime: "09:00"},
			}},
			wantErr: ErrInvalidInput,
		},
		{
			name: "unknown weekday",
			req: &models.UpdateProfileRequest{UserID: 5, ProviderID: 5, WorkingHours: map[string]models.DaySchedule{
				"someday": {IsOpen: false},
			}},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateProfile(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
