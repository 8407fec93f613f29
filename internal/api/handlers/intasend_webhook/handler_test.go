package intasend_webhook

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/intasend"
	reconcilePayment "github.com/m04kA/SMC-AppointmentService/internal/usecase/reconcile_payment"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

type stubVerifier struct {
	got intasend.Callback
	err error
}

func (v *stubVerifier) VerifyCallback(_ context.Context, cb intasend.Callback) (*domain.Notification, error) {
	v.got = cb
	if v.err != nil {
		return nil, v.err
	}
	return &domain.Notification{
		GatewayTransactionID: cb.PaymentID,
		Status:               domain.NotificationCompleted,
		Source:               intasend.Name,
	}, nil
}

type stubReconciler struct {
	got *reconcilePayment.Request
	err error
}

func (s *stubReconciler) Execute(_ context.Context, req *reconcilePayment.Request) (*reconcilePayment.Response, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &reconcilePayment.Response{Cached: true}, nil
}

const callback = `{"payment_id":"INT-1","invoice_id":"INV-9","state":"COMPLETE","challenge":"secret","extra":"ignored"}`

func post(h *Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodPost, "/webhooks/intasend", strings.NewReader(body)))
	return rec
}

func TestHandle_Reconciles(t *testing.T) {
	verifier := &stubVerifier{}
	uc := &stubReconciler{}

	rec := post(NewHandler(verifier, uc, logger.NewNop()), callback)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "INT-1", verifier.got.PaymentID)
	assert.Equal(t, "secret", verifier.got.Challenge)
	require.NotNil(t, uc.got)
	assert.Equal(t, "INT-1", uc.got.Notification.GatewayTransactionID)
	assert.JSONEq(t, `{"received":true,"outcome":"duplicate"}`, rec.Body.String())
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		verifyErr error
		useCase   error
		status    int
	}{
		{name: "not json", body: `payment_id=1`, status: http.StatusBadRequest},
		{name: "challenge mismatch", verifyErr: fmt.Errorf("%w: challenge mismatch", intasend.ErrInvalidCallback), status: http.StatusBadRequest},
		{name: "unknown to gateway", verifyErr: intasend.ErrPaymentNotFound, status: http.StatusNotFound},
		{name: "gateway down", verifyErr: domain.ErrGatewayUnavailable, status: http.StatusServiceUnavailable},
		{name: "unknown transaction", useCase: domain.ErrUnknownTransaction, status: http.StatusNotFound},
		{name: "gateway timeout", useCase: domain.ErrGatewayTimeout, status: http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			if body == "" {
				body = callback
			}

			rec := post(NewHandler(&stubVerifier{err: tt.verifyErr}, &stubReconciler{err: tt.useCase}, logger.NewNop()), body)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
