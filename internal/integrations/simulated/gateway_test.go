package simulated

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

func TestGateway_InitiatePayment(t *testing.T) {
	gw := New(0, "https://pay.local/checkout")

	first, err := gw.InitiatePayment(context.Background(), domain.GatewayPaymentRequest{Reference: "APT-1", Method: domain.MethodMobileMoney})
	require.NoError(t, err)
	second, err := gw.InitiatePayment(context.Background(), domain.GatewayPaymentRequest{Reference: "APT-2"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first.TransactionID, "SIM_"))
	assert.NotEqual(t, first.TransactionID, second.TransactionID)
	assert.Equal(t, domain.NotificationPending, first.Status)
	assert.Equal(t, DefaultSettleAfter, first.AutoSettleAfter)
	assert.Equal(t, "https://pay.local/checkout?reference=APT-1", first.RedirectURL)
	assert.Contains(t, string(first.Payload), "APT-1")
}

func TestGateway_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(time.Second, "").InitiatePayment(ctx, domain.GatewayPaymentRequest{Reference: "APT-1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGateway_PayloadDescribesTransaction(t *testing.T) {
	resp, err := New(time.Second, "").InitiatePayment(context.Background(), domain.GatewayPaymentRequest{
		Reference: "APT-3",
		Method:    domain.MethodMobileMoney,
	})
	require.NoError(t, err)

	var payload settlementPayload
	require.NoError(t, json.Unmarshal(resp.Payload, &payload))
	assert.Equal(t, resp.TransactionID, payload.TransactionID)
	assert.Equal(t, "APT-3", payload.Reference)
	assert.Equal(t, "mobile_money", payload.Method)
	assert.Equal(t, Name, payload.Provider)
}
