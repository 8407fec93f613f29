package intasend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL:     srv.URL,
		APIKey:      "secret-key",
		CallbackURL: "https://api.example/webhooks/intasend",
		Challenge:   "shared",
		Timeout:     time.Second,
	}, logger.NewNop())
}

func TestClient_InitiatePayment(t *testing.T) {
	var got initiateRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payment/initiate/", r.URL.Path)
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"payment_id":"IS-42","checkout_url":"https://pay.intasend.com/IS-42","state":"PENDING"}`))
	})

	resp, err := client.InitiatePayment(context.Background(), domain.GatewayPaymentRequest{
		Amount:    12550,
		Currency:  "KES",
		Reference: "APT-1",
		Method:    domain.MethodMobileMoney,
	})
	require.NoError(t, err)

	assert.Equal(t, "IS-42", resp.TransactionID)
	assert.Equal(t, "https://pay.intasend.com/IS-42", resp.RedirectURL)
	assert.Equal(t, domain.NotificationPending, resp.Status)
	assert.NotEmpty(t, resp.Payload)

	assert.InDelta(t, 125.50, got.Amount, 0.001)
	assert.Equal(t, "M-PESA", got.PaymentMethod)
	assert.Equal(t, "APT-1", got.PaymentReference)
	assert.Equal(t, "https://api.example/webhooks/intasend", got.CallbackURL)
}

func TestClient_InitiatePaymentServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.InitiatePayment(context.Background(), domain.GatewayPaymentRequest{Amount: 100, Currency: "KES", Reference: "APT-2"})
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
}

func TestClient_InitiatePaymentTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	client.httpClient.Timeout = 20 * time.Millisecond

	_, err := client.InitiatePayment(context.Background(), domain.GatewayPaymentRequest{Amount: 100, Currency: "KES", Reference: "APT-3"})
	assert.ErrorIs(t, err, domain.ErrGatewayTimeout)
}

func TestClient_VerifyCallback(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/payment/status/IS-42/", r.URL.Path)
		_, _ = w.Write([]byte(`{"payment_id":"IS-42","state":"COMPLETE","payment_reference":"APT-1"}`))
	})

	// состояние из тела уведомления игнорируется
	n, err := client.VerifyCallback(context.Background(), Callback{PaymentID: "IS-42", State: "FAILED", Challenge: "shared"})
	require.NoError(t, err)

	assert.Equal(t, "IS-42", n.GatewayTransactionID)
	assert.Equal(t, "APT-1", n.Reference)
	assert.Equal(t, domain.NotificationCompleted, n.Status)
	assert.Equal(t, Name, n.Source)
}

func TestClient_VerifyCallbackRejects(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"payment_id":"IS-42","state":"REVERSED"}`))
	})

	_, err := client.VerifyCallback(context.Background(), Callback{PaymentID: "IS-42", Challenge: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCallback)

	_, err = client.VerifyCallback(context.Background(), Callback{Challenge: "shared"})
	assert.ErrorIs(t, err, ErrInvalidCallback)

	_, err = client.VerifyCallback(context.Background(), Callback{PaymentID: "IS-42", Challenge: "shared"})
	assert.ErrorIs(t, err, ErrInvalidResponse)
}
