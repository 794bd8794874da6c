package mockbackend

import (
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/ashendes/smart-dining/internal/metrics"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const serviceName = "mock-backend"

var errChaos = errors.New("simulated failure")

// SetChaos toggles random 503 answers
func (b *Backend) SetChaos(enabled bool) {
	b.chaosMutex.Lock()
	defer b.chaosMutex.Unlock()
	b.chaosEnabled = enabled
	if enabled {
		metrics.ChaosFailureRate.WithLabelValues(serviceName).Set(1)
	} else {
		metrics.ChaosFailureRate.WithLabelValues(serviceName).Set(0)
	}
}

// SetFailureRate sets the share of requests failing while chaos is enabled
func (b *Backend) SetFailureRate(rate float32) {
	b.chaosMutex.Lock()
	defer b.chaosMutex.Unlock()
	b.failureRate = rate
}

// SetSlowMode toggles 2-5 second response delays
func (b *Backend) SetSlowMode(enabled bool) {
	b.chaosMutex.Lock()
	defer b.chaosMutex.Unlock()
	b.chaosSlowMode = enabled
	if enabled {
		metrics.ChaosSlowMode.WithLabelValues(serviceName).Set(1)
	} else {
		metrics.ChaosSlowMode.WithLabelValues(serviceName).Set(0)
	}
}

func (b *Backend) chaosState() (enabled, slow bool, rate float32) {
	b.chaosMutex.RLock()
	defer b.chaosMutex.RUnlock()
	return b.chaosEnabled, b.chaosSlowMode, b.failureRate
}

func (b *Backend) simulateChaos() error {
	enabled, slow, rate := b.chaosState()

	if slow {
		delay := time.Duration(2000+rand.Intn(3000)) * time.Millisecond
		log.WithField("delay_ms", delay.Milliseconds()).Debug("Chaos: Simulating slow response")
		time.Sleep(delay)
	}

	if enabled && rand.Float32() < rate {
		return errChaos
	}
	return nil
}

// chaosMiddleware fails requests according to the chaos settings
func (b *Backend) chaosMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := b.simulateChaos(); err != nil {
			log.WithField("path", c.FullPath()).Warn("Chaos: Simulated failure")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"message": "Service temporarily unavailable: " + err.Error(),
			})
			return
		}
		c.Next()
	}
}

func (b *Backend) enableChaos(c *gin.Context) {
	b.SetChaos(true)
	log.Info("Chaos mode ENABLED for mock backend")
	_, _, rate := b.chaosState()
	c.JSON(http.StatusOK, gin.H{
		"message":      "Chaos mode enabled",
		"failure_rate": rate,
	})
}

func (b *Backend) disableChaos(c *gin.Context) {
	b.SetChaos(false)
	b.SetSlowMode(false)
	log.Info("Chaos mode DISABLED for mock backend")
	c.JSON(http.StatusOK, gin.H{"message": "Chaos mode disabled"})
}

func (b *Backend) enableSlowMode(c *gin.Context) {
	b.SetSlowMode(true)
	log.Info("Slow mode ENABLED for mock backend")
	c.JSON(http.StatusOK, gin.H{
		"message": "Slow mode enabled",
		"info":    "Requests will have 2-5 second delays",
	})
}

func (b *Backend) disableSlowMode(c *gin.Context) {
	b.SetSlowMode(false)
	log.Info("Slow mode DISABLED for mock backend")
	c.JSON(http.StatusOK, gin.H{"message": "Slow mode disabled"})
}

func (b *Backend) getStatus(c *gin.Context) {
	enabled, slow, rate := b.chaosState()
	c.JSON(http.StatusOK, gin.H{
		"service":         serviceName,
		"status":          "healthy",
		"chaos_enabled":   enabled,
		"chaos_slow_mode": slow,
		"failure_rate":    rate,
		"timestamp":       time.Now().Format(time.RFC3339),
	})
}
