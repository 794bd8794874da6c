// Package web exposes the client core over HTTP: the cart, the payment
// attempt and its redirect-return route, table reservation and the owner
// dashboard.
package web

import (
	"errors"
	"net/http"

	"github.com/ashendes/smart-dining/internal/apperr"
	"github.com/ashendes/smart-dining/internal/backend"
	"github.com/ashendes/smart-dining/internal/cart"
	"github.com/ashendes/smart-dining/internal/feedback"
	"github.com/ashendes/smart-dining/internal/metrics"
	"github.com/ashendes/smart-dining/internal/models"
	"github.com/ashendes/smart-dining/internal/notice"
	"github.com/ashendes/smart-dining/internal/otp"
	"github.com/ashendes/smart-dining/internal/owner"
	"github.com/ashendes/smart-dining/internal/payment"
	"github.com/ashendes/smart-dining/internal/reservation"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// ServiceName labels this app's HTTP metrics
const ServiceName = "dining-client"

// Deps are the components the app serves
type Deps struct {
	Backend    *backend.Client
	Cart       *cart.Store
	Payments   *payment.Controller
	Reconciler *payment.Reconciler
	Navigator  *Navigator
	Notices    *notice.Board
	Tables     *reservation.Coordinator
	OTP        *otp.Controller
	Owner      *owner.Dashboard
	Feedback   *feedback.Collector
}

// App holds the HTTP handlers
type App struct {
	Deps
}

// NewApp creates an App
func NewApp(deps Deps) *App {
	return &App{Deps: deps}
}

// Router builds the gin engine
func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Add Prometheus middleware
	router.Use(metrics.PrometheusMiddleware(ServiceName))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/circuit-status", a.getCircuitStatus)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/notice", a.getNotice)
	router.DELETE("/notice", a.dismissNotice)

	auth := router.Group("/auth")
	auth.POST("/login", a.login)
	auth.POST("/logout", a.logout)
	auth.POST("/signup", a.signup)
	auth.POST("/request-password-reset", a.requestPasswordReset)
	auth.POST("/reset-password", a.resetPassword)

	// Ordering
	router.GET("/menu", a.getMenu)
	router.GET("/cart", a.getCart)
	router.POST("/cart/reload", a.reloadCart)
	router.POST("/cart/items", a.addToCart)
	router.POST("/cart/items/:id/increase", a.increaseLine)
	router.POST("/cart/items/:id/decrease", a.decreaseLine)
	router.DELETE("/cart/items/:id", a.removeLine)
	router.DELETE("/cart", a.clearCart)

	// Payment and its redirect-return channel
	router.POST("/pay", a.pay)
	router.GET(payment.OrderSummaryPath, a.orderSummary)
	router.GET("/payment/status/:orderId", a.paymentStatus)
	router.GET("/feedback/:orderId", a.getFeedback)
	router.POST("/feedback/:orderId", a.submitFeedback)

	// Reservation
	router.GET("/tables", a.getTables)
	router.POST("/tables/:number/select", a.selectTable)
	router.POST("/otp/resend", a.resendOTP)
	router.POST("/otp/verify", a.verifyOTP)
	router.DELETE("/otp", a.cancelOTP)

	// Owner dashboard
	ownerGroup := router.Group("/owner")
	ownerGroup.GET("/orders", a.getOwnerOrders)
	ownerGroup.POST("/orders/clear", a.clearOwnerOrders)
	ownerGroup.POST("/orders/restore", a.restoreOwnerOrders)
	ownerGroup.GET("/reservations", a.getOwnerReservations)
	ownerGroup.POST("/tables/:number/unreserve", a.unreserveTable)
	ownerGroup.GET("/food-items", a.getOwnerFoodItems)
	ownerGroup.POST("/food-items", a.addFoodItem)
	ownerGroup.DELETE("/food-items/:id", a.removeFoodItem)

	return router
}

func (a *App) getCircuitStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"circuits": a.Backend.CircuitStates()})
}

func (a *App) getNotice(c *gin.Context) {
	n, ok := a.Notices.Current()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (a *App) dismissNotice(c *gin.Context) {
	a.Notices.Dismiss()
	c.Status(http.StatusNoContent)
}

// fail writes err with the status code matching its class
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var rejection *apperr.RejectionError

	switch {
	case apperr.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.As(err, &rejection):
		status = rejection.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusUnprocessableEntity
		}
	case apperr.IsTransient(err):
		status = http.StatusServiceUnavailable
	case errors.Is(err, payment.ErrPaymentInProgress),
		errors.Is(err, otp.ErrFlowInProgress),
		errors.Is(err, otp.ErrNoActiveChallenge),
		errors.Is(err, reservation.ErrNotVerified):
		status = http.StatusConflict
	case errors.Is(err, cart.ErrLineNotFound):
		status = http.StatusNotFound
	}

	if status >= http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"path":  c.FullPath(),
			"error": err.Error(),
		}).Error("Request failed")
	}
	c.JSON(status, models.ErrorResponse{Success: false, Message: apperr.Message(err)})
}

func succeed(c *gin.Context, message string) {
	c.JSON(http.StatusOK, models.MessageResponse{Success: true, Message: message})
}
