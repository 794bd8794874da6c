package mockbackend

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ashendes/smart-dining/internal/metrics"
	"github.com/ashendes/smart-dining/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

func (b *Backend) listFoodItems(c *gin.Context) {
	b.mu.RLock()
	items := make([]models.FoodItem, len(b.foodItems))
	copy(items, b.foodItems)
	b.mu.RUnlock()

	c.JSON(http.StatusOK, items)
}

func (b *Backend) addFoodItem(c *gin.Context) {
	var req models.AddFoodItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, "Price must be a valid number")
		return
	}
	if req.Name == "" || req.Price <= 0 || req.ImageURL == "" {
		invalid(c, "Name, valid price, and image URL are required")
		return
	}

	b.mu.Lock()
	nextID := 1
	for _, item := range b.foodItems {
		if item.ID >= nextID {
			nextID = item.ID + 1
		}
	}
	b.foodItems = append(b.foodItems, models.FoodItem{
		ID:          nextID,
		Name:        req.Name,
		Price:       decimal.NewFromFloat(req.Price),
		ImageURL:    req.ImageURL,
		Description: req.Description,
		CreatedAt:   models.Timestamp{Time: b.clock.Now().UTC()},
	})
	b.mu.Unlock()

	c.JSON(http.StatusCreated, models.MessageResponse{
		Success: true,
		Message: fmt.Sprintf("Food item '%s' added successfully", req.Name),
	})
}

func (b *Backend) removeFoodItem(c *gin.Context) {
	var req models.RemoveFoodItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID <= 0 {
		invalid(c, "Valid food item ID is required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, item := range b.foodItems {
		if item.ID == req.ID {
			b.foodItems = append(b.foodItems[:i], b.foodItems[i+1:]...)
			c.JSON(http.StatusOK, models.MessageResponse{
				Success: true,
				Message: fmt.Sprintf("Food item with ID %d removed successfully", req.ID),
			})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Food item not found"})
}

func (b *Backend) createPayment(c *gin.Context) {
	var req models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, "Invalid request: "+err.Error())
		return
	}
	if req.Amount <= 0 {
		invalid(c, "Amount must be a positive number")
		return
	}
	if !models.IsPhoneNumber(req.PhoneNumber) {
		invalid(c, "Phone number must be 10 digits")
		return
	}
	if len(req.Items) == 0 {
		invalid(c, "No items provided")
		return
	}

	now := b.clock.Now().UTC()
	orderID := fmt.Sprintf("ORDER_%s_%d", strings.ToUpper(uuid.New().String()[:8]), now.Unix())
	sessionID := "session_" + uuid.New().String()

	b.mu.Lock()
	b.orders[orderID] = &models.Order{
		OrderID:     orderID,
		Items:       req.Items,
		Amount:      req.Amount,
		PhoneNumber: req.PhoneNumber,
		Status:      models.OrderRecordPending,
		Email:       c.GetString(ctxEmail),
		CreatedAt:   models.Timestamp{Time: now},
	}
	b.sessions[sessionID] = orderID
	b.mu.Unlock()

	metrics.OrdersTotal.WithLabelValues(models.OrderRecordPending).Inc()
	metrics.PaymentAmount.Observe(req.Amount)

	log.WithFields(log.Fields{
		"order_id": orderID,
		"amount":   req.Amount,
		"items":    len(req.Items),
	}).Info("Payment session created")

	c.JSON(http.StatusOK, models.CreatePaymentResponse{
		Success:          true,
		PaymentSessionID: sessionID,
		OrderID:          orderID,
	})
}

func (b *Backend) verifyPayment(c *gin.Context) {
	orderID := c.Param("orderId")

	b.mu.RLock()
	order, ok := b.orders[orderID]
	var status string
	if ok {
		status = order.Status
		ok = order.Email == c.GetString(ctxEmail)
	}
	b.mu.RUnlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Order not found or unauthorized"})
		return
	}

	c.JSON(http.StatusOK, models.VerifyPaymentResponse{
		Success: true,
		Status:  status,
		IsPaid:  status == models.OrderRecordPaid,
	})
}

// sandboxCheckout completes a hosted checkout. The outcome query parameter
// selects paid (default), failed or pending.
func (b *Backend) sandboxCheckout(c *gin.Context) {
	sessionID := c.Param("sessionId")

	b.mu.RLock()
	orderID, ok := b.sessions[sessionID]
	b.mu.RUnlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Payment session not found"})
		return
	}

	switch c.DefaultQuery("outcome", "paid") {
	case "paid":
		_ = b.SetOrderStatus(orderID, models.OrderRecordPaid)
	case "failed":
		_ = b.SetOrderStatus(orderID, models.OrderRecordFailed)
	case "pending":
	default:
		invalid(c, "outcome must be paid, failed or pending")
		return
	}

	order, _ := b.Order(orderID)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"order_id": orderID,
		"status":   order.Status,
	})
}

func (b *Backend) submitFeedback(c *gin.Context) {
	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == "" || req.Rating == 0 {
		invalid(c, "Order ID and rating are required")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		invalid(c, "Rating must be between 1 and 5")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[req.OrderID]
	if !ok || order.Email != c.GetString(ctxEmail) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Order not found or unauthorized"})
		return
	}
	if order.Status != models.OrderRecordPaid {
		invalid(c, "Order payment not confirmed")
		return
	}
	if _, done := b.feedback[req.OrderID]; done {
		invalid(c, "Feedback already submitted for this order")
		return
	}
	b.feedback[req.OrderID] = req

	c.JSON(http.StatusOK, models.MessageResponse{Success: true, Message: "Feedback submitted successfully"})
}

func (b *Backend) listOrders(c *gin.Context) {
	b.mu.RLock()
	orders := b.sortedOrders()
	b.mu.RUnlock()

	c.JSON(http.StatusOK, orders)
}
