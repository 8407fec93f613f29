package intasend

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Name имя шлюза в метриках и логах
const Name = "intasend"

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Config настройки клиента IntaSend
type Config struct {
	BaseURL     string
	APIKey      string
	CallbackURL string
	SuccessURL  string
	FailURL     string
	// Challenge общий секрет, который IntaSend присылает в каждом уведомлении
	Challenge string
	Timeout   time.Duration
}

// Client клиент для работы с IntaSend
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента IntaSend
func NewClient(cfg Config, log Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log,
	}
}

// Name имя шлюза
func (c *Client) Name() string {
	return Name
}

// InitiatePayment открывает платеж в IntaSend и возвращает ссылку на checkout
func (c *Client) InitiatePayment(ctx context.Context, req domain.GatewayPaymentRequest) (*domain.GatewayPaymentResponse, error) {
	body := initiateRequest{
		Amount:           float64(req.Amount) / 100,
		Currency:         req.Currency,
		PaymentMethod:    toIntaSendMethod(req.Method),
		PaymentReference: req.Reference,
		CallbackURL:      c.cfg.CallbackURL,
		SuccessURL:       c.cfg.SuccessURL,
		FailURL:          c.cfg.FailURL,
		PhoneNumber:      req.Metadata["phone_number"],
		Metadata:         req.Metadata,
	}

	raw, err := c.do(ctx, http.MethodPost, "/payment/initiate/", body)
	if err != nil {
		return nil, err
	}

	var resp initiateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}
	if resp.PaymentID == "" {
		return nil, fmt.Errorf("%w: payment_id is empty", ErrInvalidResponse)
	}

	status := domain.NotificationPending
	if resp.State != "" {
		if parsed, err := domain.ParseNotificationStatus(resp.State); err == nil {
			status = parsed
		}
	}

	c.log.Info("IntaSend: payment %s opened for reference %s", resp.PaymentID, req.Reference)
	return &domain.GatewayPaymentResponse{
		TransactionID: resp.PaymentID,
		RedirectURL:   resp.CheckoutURL,
		Status:        status,
		Payload:       raw,
	}, nil
}

// VerifyCallback проверяет уведомление и перечитывает состояние платежа у IntaSend.
// Состоянию из тела уведомления не доверяем.
func (c *Client) VerifyCallback(ctx context.Context, cb Callback) (*domain.Notification, error) {
	if cb.PaymentID == "" {
		return nil, fmt.Errorf("%w: payment_id is required", ErrInvalidCallback)
	}
	if c.cfg.Challenge != "" && subtle.ConstantTimeCompare([]byte(cb.Challenge), []byte(c.cfg.Challenge)) != 1 {
		return nil, fmt.Errorf("%w: challenge mismatch", ErrInvalidCallback)
	}

	raw, err := c.do(ctx, http.MethodGet, "/payment/status/"+cb.PaymentID+"/", nil)
	if err != nil {
		return nil, err
	}

	var st statusResponse
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("%w: failed to decode status: %v", ErrInvalidResponse, err)
	}

	status, err := domain.ParseNotificationStatus(st.State)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	reference := st.PaymentReference
	if reference == "" {
		reference = st.Metadata["reference"]
	}

	return &domain.Notification{
		GatewayTransactionID: cb.PaymentID,
		Reference:            reference,
		Status:               status,
		Payload:              raw,
		Source:               Name,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to encode request: %v", ErrInternal, err)
		}
		body = bytes.NewReader(encoded)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %v", domain.ErrGatewayTimeout, err)
		}
		return nil, fmt.Errorf("%w: failed to execute request: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrGatewayUnavailable, err)
	}

	// Обработка статус-кодов
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrPaymentNotFound
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: intasend status %d", domain.ErrGatewayUnavailable, resp.StatusCode)
	default:
		var apiErr ErrorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Detail != "" {
			return nil, fmt.Errorf("%w: status %d: %s", ErrInvalidResponse, resp.StatusCode, apiErr.Detail)
		}
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(raw))
	}
}

func toIntaSendMethod(m domain.PaymentMethod) string {
	switch m {
	case domain.MethodMobileMoney:
		return "M-PESA"
	case domain.MethodBankTransfer:
		return "BANK-ACH"
	default:
		return "CARD-PAYMENT"
	}
}
