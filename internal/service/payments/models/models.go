package models

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// GetRequesterPaymentsRequest запрос на получение истории платежей
type GetRequesterPaymentsRequest struct {
	RequesterID int64   `json:"requesterId"`
	Status      *string `json:"status,omitempty"`
	Limit       uint64  `json:"limit,omitempty"`
	Offset      uint64  `json:"offset,omitempty"`
}

// PaymentResponse ответ с данными платежа.
// Сырой ответ шлюза наружу не отдаётся.
type PaymentResponse struct {
	ID                   int64     `json:"id"`
	BookingID            int64     `json:"bookingId"`
	Amount               int64     `json:"amount"` // В минимальных единицах валюты
	Currency             string    `json:"currency"`
	Method               string    `json:"method"`
	Reference            string    `json:"reference"`
	GatewayTransactionID *string   `json:"gatewayTransactionId,omitempty"`
	Status               string    `json:"status"`
	FailureReason        *string   `json:"failureReason,omitempty"`
	RefundRequired       bool      `json:"refundRequired,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// PaymentListResponse ответ со списком платежей
type PaymentListResponse struct {
	Payments []PaymentResponse `json:"payments"`
}

// IntentResponse ответ на открытие платежа
type IntentResponse struct {
	PaymentID            int64  `json:"paymentId"`
	BookingID            int64  `json:"bookingId"`
	Reference            string `json:"reference"`
	GatewayTransactionID string `json:"gatewayTransactionId,omitempty"`
	RedirectURL          string `json:"redirectUrl,omitempty"`
	Amount               int64  `json:"amount"`
	Currency             string `json:"currency"`
	Method               string `json:"method"`
	Status               string `json:"status"`
}

// PaymentStatsResponse сводка платежей пациента
type PaymentStatsResponse struct {
	Total           int64 `json:"totalPayments"`
	Successful      int64 `json:"successfulPayments"`
	Failed          int64 `json:"failedPayments"`
	CompletedAmount int64 `json:"totalAmount"` // В минимальных единицах валюты
}

// FromDomainPaymentStats конвертирует сводку в DTO
func FromDomainPaymentStats(s *domain.PaymentStats) *PaymentStatsResponse {
	return &PaymentStatsResponse{
		Total:           s.Total,
		Successful:      s.Successful,
		Failed:          s.Failed,
		CompletedAmount: s.CompletedAmount,
	}
}

// FromDomainPayment конвертирует domain модель в DTO
func FromDomainPayment(p *domain.PaymentRecord) *PaymentResponse {
	if p == nil {
		return nil
	}

	return &PaymentResponse{
		ID:                   p.ID,
		BookingID:            p.BookingID,
		Amount:               p.Amount,
		Currency:             p.Currency,
		Method:               string(p.Method),
		Reference:            p.Reference,
		GatewayTransactionID: p.ExternalTransactionID,
		Status:               string(p.Status),
		FailureReason:        p.FailureReason,
		RefundRequired:       p.RefundFlagged(),
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

// FromDomainPaymentList конвертирует список domain моделей в DTO
func FromDomainPaymentList(records []*domain.PaymentRecord) *PaymentListResponse {
	resp := &PaymentListResponse{
		Payments: make([]PaymentResponse, 0, len(records)),
	}

	for _, record := range records {
		if paymentResp := FromDomainPayment(record); paymentResp != nil {
			resp.Payments = append(resp.Payments, *paymentResp)
		}
	}

	return resp
}

// FromDomainIntent конвертирует открытый платеж в DTO
func FromDomainIntent(i *domain.PaymentIntent) *IntentResponse {
	if i == nil {
		return nil
	}

	return &IntentResponse{
		PaymentID:            i.PaymentID,
		BookingID:            i.BookingID,
		Reference:            i.Reference,
		GatewayTransactionID: i.GatewayTransactionID,
		RedirectURL:          i.RedirectURL,
		Amount:               i.Amount,
		Currency:             i.Currency,
		Method:               string(i.Method),
		Status:               string(i.Status),
	}
}
