package simulated

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Name имя шлюза в метриках и логах
const Name = "simulated"

// DefaultSettleAfter задержка автоматического подтверждения
const DefaultSettleAfter = 5 * time.Second

// settlementPayload сырой ответ симулятора, сохраняется в платеже
type settlementPayload struct {
	TransactionID string `json:"transaction_id"`
	Reference     string `json:"reference"`
	Method        string `json:"method"`
	Provider      string `json:"provider"`
}

// Gateway имитация мобильного платежа: платеж открывается сразу,
// а подтверждается задачей подтверждения через SettleAfter.
type Gateway struct {
	settleAfter time.Duration
	redirectURL string
}

// New создает симулятор. settleAfter <= 0 заменяется на DefaultSettleAfter.
func New(settleAfter time.Duration, redirectURL string) *Gateway {
	if settleAfter <= 0 {
		settleAfter = DefaultSettleAfter
	}
	return &Gateway{
		settleAfter: settleAfter,
		redirectURL: redirectURL,
	}
}

// Name имя шлюза
func (g *Gateway) Name() string {
	return Name
}

// InitiatePayment выдает идентификатор транзакции и просит запланировать подтверждение
func (g *Gateway) InitiatePayment(ctx context.Context, req domain.GatewayPaymentRequest) (*domain.GatewayPaymentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txID := "SIM_" + uuid.NewString()
	payload, err := json.Marshal(settlementPayload{
		TransactionID: txID,
		Reference:     req.Reference,
		Method:        string(req.Method),
		Provider:      Name,
	})
	if err != nil {
		return nil, fmt.Errorf("simulated: marshal payload: %w", err)
	}

	resp := &domain.GatewayPaymentResponse{
		TransactionID:   txID,
		Status:          domain.NotificationPending,
		Payload:         payload,
		AutoSettleAfter: g.settleAfter,
	}
	if g.redirectURL != "" {
		resp.RedirectURL = g.redirectURL + "?reference=" + req.Reference
	}

	return resp, nil
}
