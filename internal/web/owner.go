package web

import (
	"net/http"
	"strconv"

	"github.com/ashendes/smart-dining/internal/apperr"
	"github.com/ashendes/smart-dining/internal/models"
	"github.com/gin-gonic/gin"
)

func (a *App) login(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil || creds.Email == "" || creds.Password == "" {
		fail(c, apperr.Invalid("email", "Email and password are required"))
		return
	}
	if err := a.Backend.Login(c.Request.Context(), creds); err != nil {
		fail(c, err)
		return
	}
	succeed(c, "Logged in")
}

func (a *App) logout(c *gin.Context) {
	a.Tables.Cancel()
	if err := a.Backend.Logout(); err != nil {
		fail(c, err)
		return
	}
	succeed(c, "Logged out")
}

func (a *App) signup(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil || creds.Email == "" || creds.Password == "" {
		fail(c, apperr.Invalid("email", "Email and password are required"))
		return
	}
	msg, err := a.Backend.Signup(c.Request.Context(), creds)
	if err != nil {
		fail(c, err)
		return
	}
	succeed(c, msg)
}

func (a *App) requestPasswordReset(c *gin.Context) {
	var req models.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		fail(c, apperr.Invalid("email", "Email is required"))
		return
	}
	msg, err := a.Backend.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		fail(c, err)
		return
	}
	succeed(c, msg)
}

func (a *App) resetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Token == "" || req.NewPassword == "" {
		fail(c, apperr.Invalid("new_password", "Email, token, and new password are required"))
		return
	}
	msg, err := a.Backend.ResetPassword(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	succeed(c, msg)
}

func (a *App) getOwnerOrders(c *gin.Context) {
	orders, err := a.Owner.Orders.AllOrders(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	a.writeOrders(c, orders)
}

// clearOwnerOrders hides the current orders from the dashboard. Backend
// records are untouched.
func (a *App) clearOwnerOrders(c *gin.Context) {
	if err := a.Owner.Orders.Clear(); err != nil {
		fail(c, err)
		return
	}
	a.writeOrders(c, []models.Order{})
}

func (a *App) restoreOwnerOrders(c *gin.Context) {
	orders, err := a.Owner.Orders.Restore(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	a.writeOrders(c, orders)
}

func (a *App) writeOrders(c *gin.Context, orders []models.Order) {
	since, err := a.Owner.Orders.ClearedSince()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders":        orders,
		"cleared_since": since,
	})
}

func (a *App) getOwnerReservations(c *gin.Context) {
	reservations, err := a.Owner.Reservations(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reservations)
}

func (a *App) unreserveTable(c *gin.Context) {
	table, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		fail(c, apperr.Invalid("table_number", "Table number must be a number"))
		return
	}
	msg, err := a.Owner.Unreserve(c.Request.Context(), table)
	if err != nil {
		fail(c, err)
		return
	}
	succeed(c, msg)
}

func (a *App) getOwnerFoodItems(c *gin.Context) {
	items, err := a.Owner.FoodItems(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (a *App) addFoodItem(c *gin.Context) {
	var req models.AddFoodItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Invalid("price", "Price must be a valid number"))
		return
	}
	msg, err := a.Owner.AddFoodItem(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.MessageResponse{Success: true, Message: msg})
}

func (a *App) removeFoodItem(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		fail(c, apperr.Invalid("id", "Valid food item ID is required"))
		return
	}
	msg, err := a.Owner.RemoveFoodItem(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	succeed(c, msg)
}
