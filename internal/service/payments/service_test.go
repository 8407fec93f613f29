package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-AppointmentService/internal/service/payments/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
)

func seedPayments(t *testing.T) (*Service, []*domain.PaymentRecord) {
	t.Helper()
	store := memory.NewStore()
	repo := store.Payments()

	var records []*domain.PaymentRecord
	for i, status := range []domain.PaymentStatus{domain.PaymentFailed, domain.PaymentFailed, domain.PaymentCompleted} {
		record, err := repo.Create(context.Background(), &domain.PaymentRecord{
			BookingID:   10,
			RequesterID: 1,
			Amount:      5000,
			Currency:    "USD",
			Method:      domain.MethodCard,
			Reference:   "ref-" + string(rune('a'+i)),
			Status:      status,
		})
		require.NoError(t, err)
		records = append(records, record)
	}

	return NewService(repo, logger.NewNop()), records
}

func TestService_GetByID(t *testing.T) {
	svc, records := seedPayments(t)

	resp, err := svc.GetByID(context.Background(), records[2].ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, "ref-c", resp.Reference)

	_, err = svc.GetByID(context.Background(), records[2].ID, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetByID(context.Background(), 999, 1)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestService_GetRequesterPayments(t *testing.T) {
	svc, records := seedPayments(t)

	resp, err := svc.GetRequesterPayments(context.Background(), &models.GetRequesterPaymentsRequest{RequesterID: 1})
	require.NoError(t, err)
	require.Len(t, resp.Payments, 3)
	assert.Equal(t, records[2].ID, resp.Payments[0].ID)

	resp, err = svc.GetRequesterPayments(context.Background(), &models.GetRequesterPaymentsRequest{
		RequesterID: 1,
		Status:      ptr.Ptr("failed"),
		Limit:       1,
	})
	require.NoError(t, err)
	require.Len(t, resp.Payments, 1)
	assert.Equal(t, records[1].ID, resp.Payments[0].ID)

	resp, err = svc.GetRequesterPayments(context.Background(), &models.GetRequesterPaymentsRequest{RequesterID: 2})
	require.NoError(t, err)
	assert.Empty(t, resp.Payments)

	_, err = svc.GetRequesterPayments(context.Background(), &models.GetRequesterPaymentsRequest{
		RequesterID: 1,
		Status:      ptr.Ptr("lost"),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_GetStats(t *testing.T) {
	svc, _ := seedPayments(t)

	resp, err := svc.GetStats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Total)
	assert.Equal(t, int64(1), resp.Successful)
	assert.Equal(t, int64(2), resp.Failed)
	assert.Equal(t, int64(5000), resp.CompletedAmount)

	resp, err = svc.GetStats(context.Background(), 2)
	require.NoError(t, err)
	assert.Zero(t, resp.Total)
}
