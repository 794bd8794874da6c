package web

import (
	"net/http"
	"strconv"

	"github.com/ashendes/smart-dining/internal/apperr"
	"github.com/ashendes/smart-dining/internal/models"
	"github.com/ashendes/smart-dining/internal/payment"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type cartView struct {
	Items     []models.CartLine `json:"items"`
	Total     decimal.Decimal   `json:"total"`
	ItemCount int               `json:"item_count"`
}

type addToCartRequest struct {
	ID int `json:"id" binding:"required"`
}

type feedbackForm struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

type orderStatusView struct {
	OrderID string             `json:"order_id"`
	Status  models.OrderStatus `json:"status"`
	Message string             `json:"message,omitempty"`
	Next    string             `json:"next,omitempty"`
}

func (a *App) getMenu(c *gin.Context) {
	items, err := a.Backend.FoodItems(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (a *App) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, a.cartView())
}

func (a *App) reloadCart(c *gin.Context) {
	if err := a.Cart.Reload(); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a.cartView())
}

func (a *App) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Invalid("id", "A food item id is required"))
		return
	}

	items, err := a.Backend.FoodItems(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	for _, item := range items {
		if item.ID != req.ID {
			continue
		}
		if err := a.Cart.Add(item); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, a.cartView())
		return
	}
	c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Food item not found"})
}

func (a *App) increaseLine(c *gin.Context) {
	a.mutateLine(c, a.Cart.Increase)
}

func (a *App) decreaseLine(c *gin.Context) {
	a.mutateLine(c, a.Cart.Decrease)
}

func (a *App) removeLine(c *gin.Context) {
	a.mutateLine(c, a.Cart.Remove)
}

func (a *App) mutateLine(c *gin.Context, mutate func(int) error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		fail(c, apperr.Invalid("id", "Food item id must be a number"))
		return
	}
	if err := mutate(id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a.cartView())
}

func (a *App) clearCart(c *gin.Context) {
	if err := a.Cart.Clear(); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a.cartView())
}

// pay blocks until the hosted checkout hands control back
func (a *App) pay(c *gin.Context) {
	attempt, err := a.Payments.Pay(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"order_id":           attempt.OrderID,
		"payment_session_id": attempt.PaymentSessionID,
		"amount":             attempt.Amount,
		"status":             a.Reconciler.Status(attempt.OrderID),
	})
}

// orderSummary is where the gateway returns. An order_id triggers one
// reconciliation; a paid order is redirected to its feedback step.
func (a *App) orderSummary(c *gin.Context) {
	orderID := c.Query("order_id")
	if orderID == "" {
		c.JSON(http.StatusOK, a.cartView())
		return
	}

	status, err := a.Payments.HandleRedirect(c.Request.Context(), orderID)
	if target, ok := a.Navigator.Take(orderID); ok {
		c.Redirect(http.StatusSeeOther, target)
		return
	}
	if status == models.OrderStatusPaid {
		c.Redirect(http.StatusSeeOther, FeedbackPath(orderID))
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	a.writeStatus(c, orderID, status)
}

// paymentStatus is how a client learns of an order confirmed by polling.
// A pending feedback navigation is handed over as next.
func (a *App) paymentStatus(c *gin.Context) {
	orderID := c.Param("orderId")
	status := a.Reconciler.Status(orderID)
	next, _ := a.Navigator.Take(orderID)
	a.writeView(c, orderID, status, next)
}

func (a *App) writeStatus(c *gin.Context, orderID string, status models.OrderStatus) {
	a.writeView(c, orderID, status, "")
}

func (a *App) writeView(c *gin.Context, orderID string, status models.OrderStatus, next string) {
	view := orderStatusView{OrderID: orderID, Status: status, Next: next}
	switch status {
	case models.OrderStatusPending:
		view.Message = payment.NotConfirmedMessage
	case models.OrderStatusUnknown:
		view.Message = payment.UnresolvedMessage
	}
	c.JSON(http.StatusOK, view)
}

func (a *App) getFeedback(c *gin.Context) {
	orderID := c.Param("orderId")
	// Reaching the feedback step fulfils any pending navigation
	a.Navigator.Take(orderID)
	c.JSON(http.StatusOK, gin.H{
		"order_id": orderID,
		"status":   a.Reconciler.Status(orderID),
	})
}

func (a *App) submitFeedback(c *gin.Context) {
	var form feedbackForm
	if err := c.ShouldBindJSON(&form); err != nil {
		fail(c, apperr.Invalid("rating", "Rating must be a number"))
		return
	}

	msg, err := a.Feedback.Submit(c.Request.Context(), c.Param("orderId"), form.Rating, form.Feedback)
	if err != nil {
		fail(c, err)
		return
	}
	succeed(c, msg)
}

func (a *App) cartView() cartView {
	items := a.Cart.Lines()
	if items == nil {
		items = []models.CartLine{}
	}
	return cartView{
		Items:     items,
		Total:     a.Cart.Total(),
		ItemCount: a.Cart.ItemCount(),
	}
}
