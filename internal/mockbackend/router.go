package mockbackend

import (
	"net/http"
	"strings"

	"github.com/ashendes/smart-dining/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const ctxEmail = "email"

// Router builds the HTTP surface. Backend routes live under /api.
func (b *Backend) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Add Prometheus middleware
	router.Use(metrics.PrometheusMiddleware(serviceName))

	// Health check endpoints
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/status", b.getStatus)

	// Chaos engineering endpoints
	router.POST("/chaos/enable", b.enableChaos)
	router.POST("/chaos/disable", b.disableChaos)
	router.POST("/chaos/slow", b.enableSlowMode)
	router.POST("/chaos/slow/disable", b.disableSlowMode)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api", b.chaosMiddleware())

	// Auth lifecycle
	api.POST("/login", b.login)
	api.POST("/signup", b.signup)
	api.POST("/request-password-reset", b.requestPasswordReset)
	api.POST("/reset-password", b.resetPassword)

	// OTP lifecycle
	api.POST("/send-otp", b.sendOTP)
	api.POST("/verify-otp", b.verifyOTP)

	// Hosted checkout sandbox, reached by the gateway rather than the user
	api.GET("/sandbox/checkout/:sessionId", b.sandboxCheckout)

	authed := api.Group("", b.tokenRequired())
	authed.GET("/food-items", b.listFoodItems)
	authed.POST("/create-payment", b.createPayment)
	authed.GET("/verify-payment/:orderId", b.verifyPayment)
	authed.GET("/tables", b.listTables)
	authed.POST("/reserve", b.reserve)
	authed.POST("/unreserve", b.unreserve)
	authed.POST("/submit-feedback", b.submitFeedback)
	authed.GET("/all-orders", b.listOrders)
	authed.GET("/all-reservations", b.listReservations)

	admin := authed.Group("", b.adminRequired())
	admin.POST("/add-food-item", b.addFoodItem)
	admin.POST("/remove-food-item", b.removeFoodItem)

	return router
}

func (b *Backend) tokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Token is missing"})
			return
		}

		b.mu.RLock()
		email, ok := b.tokens[token]
		b.mu.RUnlock()
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token"})
			return
		}

		c.Set(ctxEmail, email)
		c.Next()
	}
}

func (b *Backend) adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		b.mu.RLock()
		u := b.users[c.GetString(ctxEmail)]
		b.mu.RUnlock()
		if !u.admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Admin access required"})
			return
		}
		c.Next()
	}
}

func invalid(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}
