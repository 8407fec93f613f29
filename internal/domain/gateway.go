package domain

import "time"

// GatewayPaymentRequest is sent to a payment gateway to open a payment
type GatewayPaymentRequest struct {
	Amount    int64 // minor units
	Currency  string
	Reference string
	Method    PaymentMethod
	Metadata  map[string]string
}

// GatewayPaymentResponse is what a gateway returns when a payment is opened
type GatewayPaymentResponse struct {
	TransactionID string
	RedirectURL   string
	// Status is the outcome known right away; Pending for asynchronous gateways
	Status  NotificationStatus
	Payload []byte
	// AutoSettleAfter is set by gateways that settle on their own after a delay
	AutoSettleAfter time.Duration
}

// SettlementJob is a persisted delayed settlement of a payment
type SettlementJob struct {
	PaymentID            int64
	GatewayTransactionID string
	FireAt               time.Time
}

// Notification sources
const (
	SourceWebhook       = "webhook"
	SourceQueue         = "amqp"
	SourceSettlementJob = "settlement_job"
	SourceGateway       = "gateway_response"
)
