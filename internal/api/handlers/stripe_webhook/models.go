package stripe_webhook

import reconcilePayment "github.com/m04kA/SMC-AppointmentService/internal/usecase/reconcile_payment"

// WebhookResponse HTTP response model
type WebhookResponse struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome,omitempty"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *reconcilePayment.Response) *WebhookResponse {
	out := &WebhookResponse{Received: true}
	switch {
	case resp.Cached:
		out.Outcome = "duplicate"
	case resp.Result != nil:
		out.Outcome = resp.Result.Outcome
	}
	return out
}
