package intasend

// initiateRequest тело запроса /payment/initiate/
type initiateRequest struct {
	Amount           float64           `json:"amount"`
	Currency         string            `json:"currency"`
	PaymentMethod    string            `json:"payment_method"`
	PaymentReference string            `json:"payment_reference"`
	CallbackURL      string            `json:"callback_url,omitempty"`
	SuccessURL       string            `json:"success_url,omitempty"`
	FailURL          string            `json:"fail_url,omitempty"`
	PhoneNumber      string            `json:"phone_number,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// initiateResponse ответ /payment/initiate/
type initiateResponse struct {
	PaymentID   string `json:"payment_id"`
	CheckoutURL string `json:"checkout_url"`
	State       string `json:"state"`
}

// statusResponse ответ /payment/status/{id}/
type statusResponse struct {
	PaymentID        string            `json:"payment_id"`
	InvoiceID        string            `json:"invoice_id"`
	State            string            `json:"state"` // PENDING, PROCESSING, COMPLETE, FAILED
	PaymentReference string            `json:"payment_reference"`
	FailedReason     string            `json:"failed_reason"`
	Metadata         map[string]string `json:"metadata"`
}

// Callback тело уведомления IntaSend о смене состояния платежа
type Callback struct {
	PaymentID string `json:"payment_id"`
	InvoiceID string `json:"invoice_id"`
	State     string `json:"state"`
	Challenge string `json:"challenge"`
}

// ErrorResponse модель ошибки от IntaSend
type ErrorResponse struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}
