package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ashendes/smart-dining/internal/models"
)

// CreatePayment opens a payment session for the given amount and items.
// A body with success=false is returned as a RejectionError.
func (c *Client) CreatePayment(ctx context.Context, req models.CreatePaymentRequest) (*models.CreatePaymentResponse, error) {
	var resp models.CreatePaymentResponse
	err := c.doJSON(ctx, call{
		group:     GroupPayment,
		operation: "create payment",
		method:    http.MethodPost,
		path:      "/create-payment",
		body:      req,
		auth:      true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.PaymentSessionID == "" || resp.OrderID == "" {
		return nil, rejected("create payment", resp.Message, "Payment failed! Try again.")
	}
	return &resp, nil
}

// VerifyPayment asks the backend for the authoritative status of an order.
// A 2xx body is returned as-is, including success=false answers.
func (c *Client) VerifyPayment(ctx context.Context, orderID string) (*models.VerifyPaymentResponse, error) {
	var resp models.VerifyPaymentResponse
	err := c.doJSON(ctx, call{
		group:     GroupPayment,
		operation: "verify payment",
		method:    http.MethodGet,
		path:      "/verify-payment/" + url.PathEscape(orderID),
		auth:      true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
