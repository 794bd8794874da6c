package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePaymentRequest asks the backend to open a payment session for the cart
type CreatePaymentRequest struct {
	Amount      float64    `json:"amount"`
	PhoneNumber string     `json:"phone_number"`
	Items       []CartLine `json:"items"`
}

// CreatePaymentResponse carries the gateway session and the backend order id
type CreatePaymentResponse struct {
	Success          bool   `json:"success"`
	PaymentSessionID string `json:"payment_session_id,omitempty"`
	OrderID          string `json:"order_id,omitempty"`
	Message          string `json:"message,omitempty"`
}

// VerifyPaymentResponse is the server-authoritative payment status of an order
type VerifyPaymentResponse struct {
	Success bool   `json:"success"`
	IsPaid  bool   `json:"is_paid"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// PaymentSession correlates one payment attempt with its backend order.
// It is a handle only; the gateway and the backend own the outcome.
type PaymentSession struct {
	OrderID          string          `json:"order_id"`
	PaymentSessionID string          `json:"payment_session_id"`
	Amount           decimal.Decimal `json:"amount"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ErrorResponse is the generic failure body returned by the backend
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
