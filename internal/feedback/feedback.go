// Package feedback collects the post-purchase rating of a paid order.
package feedback

import (
	"context"
	"strings"

	"github.com/ashendes/smart-dining/internal/apperr"
	"github.com/ashendes/smart-dining/internal/models"
	log "github.com/sirupsen/logrus"
)

// Rating bounds
const (
	MinRating = 1
	MaxRating = 5
)

// API submits feedback to the backend
type API interface {
	SubmitFeedback(ctx context.Context, req models.FeedbackRequest) (string, error)
}

// Collector validates feedback before it reaches the backend
type Collector struct {
	api API
}

// NewCollector creates a Collector
func NewCollector(api API) *Collector {
	return &Collector{api: api}
}

// Submit sends a rating and an optional comment for orderID and returns the
// server message
func (c *Collector) Submit(ctx context.Context, orderID string, rating int, comment string) (string, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return "", apperr.Invalid("order_id", "Missing order id")
	}
	if rating < MinRating || rating > MaxRating {
		return "", apperr.Invalid("rating", "Please choose a rating between 1 and 5")
	}

	msg, err := c.api.SubmitFeedback(ctx, models.FeedbackRequest{
		OrderID:  orderID,
		Rating:   rating,
		Feedback: strings.TrimSpace(comment),
	})
	if err != nil {
		return "", err
	}
	log.WithFields(log.Fields{
		"order_id": orderID,
		"rating":   rating,
	}).Info("Feedback submitted")
	return msg, nil
}
