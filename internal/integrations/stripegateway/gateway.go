package stripegateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Name имя шлюза в метриках и логах
const Name = "stripe"

// metadataReference ключ metadata, в котором Stripe возвращает нашу ссылку на платеж
const metadataReference = "reference"

// PaymentIntentCreator часть API Stripe, используемая шлюзом
type PaymentIntentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// Config настройки шлюза Stripe
type Config struct {
	SecretKey     string
	WebhookSecret string
}

// Gateway адаптер Stripe PaymentIntents
type Gateway struct {
	intents       PaymentIntentCreator
	webhookSecret string
}

// New создает шлюз поверх клиента Stripe
func New(cfg Config) *Gateway {
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)
	return NewWithClient(sc.PaymentIntents, cfg.WebhookSecret)
}

// NewWithClient создает шлюз с переданным клиентом PaymentIntents
func NewWithClient(intents PaymentIntentCreator, webhookSecret string) *Gateway {
	return &Gateway{
		intents:       intents,
		webhookSecret: webhookSecret,
	}
}

// Name имя шлюза
func (g *Gateway) Name() string {
	return Name
}

// InitiatePayment создает PaymentIntent на сумму платежа
func (g *Gateway) InitiatePayment(ctx context.Context, req domain.GatewayPaymentRequest) (*domain.GatewayPaymentResponse, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String("Consultation " + req.Reference),
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.Reference)
	params.AddMetadata(metadataReference, req.Reference)
	params.AddMetadata("method", string(req.Method))
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	intent, err := g.intents.New(params)
	if err != nil {
		return nil, classify(err)
	}

	resp := &domain.GatewayPaymentResponse{
		TransactionID: intent.ID,
		Status:        intentStatus(intent.Status),
	}
	if intent.NextAction != nil && intent.NextAction.RedirectToURL != nil {
		resp.RedirectURL = intent.NextAction.RedirectToURL.URL
	}
	if intent.LastResponse != nil {
		resp.Payload = intent.LastResponse.RawJSON
	}

	return resp, nil
}

// ParseWebhook проверяет подпись и превращает событие Stripe в уведомление о платеже.
// События, не меняющие статус платежа, возвращают ErrIgnoredEvent.
func (g *Gateway) ParseWebhook(payload []byte, signature string) (*domain.Notification, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var status domain.NotificationStatus
	switch string(event.Type) {
	case "payment_intent.succeeded":
		status = domain.NotificationCompleted
	case "payment_intent.canceled":
		status = domain.NotificationFailed
	case "payment_intent.processing", "payment_intent.payment_failed":
		// после неудачной попытки PaymentIntent ждёт новый способ оплаты и ещё может завершиться
		status = domain.NotificationPending
	default:
		return nil, fmt.Errorf("%w: %s", ErrIgnoredEvent, event.Type)
	}

	if event.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", ErrInvalidEvent, event.ID)
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if intent.ID == "" {
		return nil, fmt.Errorf("%w: payment intent id is empty", ErrInvalidEvent)
	}

	return &domain.Notification{
		GatewayTransactionID: intent.ID,
		Reference:            intent.Metadata[metadataReference],
		Status:               status,
		Payload:              payload,
		Source:               Name,
	}, nil
}

func intentStatus(status stripe.PaymentIntentStatus) domain.NotificationStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return domain.NotificationCompleted
	case stripe.PaymentIntentStatusCanceled:
		return domain.NotificationFailed
	default:
		return domain.NotificationPending
	}
}

func classify(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrGatewayTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
}
