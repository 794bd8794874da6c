// Package reservation maps a verified OTP challenge to a table lock and keeps
// the cached availability snapshot.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ashendes/smart-dining/internal/apperr"
	"github.com/ashendes/smart-dining/internal/metrics"
	"github.com/ashendes/smart-dining/internal/models"
	"github.com/ashendes/smart-dining/internal/otp"
	log "github.com/sirupsen/logrus"
)

// ErrNotVerified is returned when a reservation is attempted without a
// verified challenge
var ErrNotVerified = errors.New("phone number has not been verified")

// API is the part of the backend the coordinator needs
type API interface {
	Tables(ctx context.Context) (map[int]models.TableStatus, error)
	Reserve(ctx context.Context, req models.ReserveRequest) (string, error)
}

// Coordinator couples table selection to the OTP challenge
type Coordinator struct {
	mu       sync.RWMutex
	api      API
	otp      *otp.Controller
	snapshot map[int]models.TableStatus
}

// NewCoordinator creates a Coordinator with an empty snapshot
func NewCoordinator(api API, challenge *otp.Controller) *Coordinator {
	return &Coordinator{
		api:      api,
		otp:      challenge,
		snapshot: make(map[int]models.TableStatus),
	}
}

// Refresh refetches the availability snapshot
func (c *Coordinator) Refresh(ctx context.Context) error {
	tables, err := c.api.Tables(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.snapshot = tables
	c.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the cached availability
func (c *Coordinator) Snapshot() map[int]models.TableStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[int]models.TableStatus, len(c.snapshot))
	for n, status := range c.snapshot {
		out[n] = status
	}
	return out
}

// Select starts the OTP challenge for table. It reports false without doing
// anything when the table is already reserved or a challenge is active.
func (c *Coordinator) Select(ctx context.Context, table int, guestName, phone string) (bool, error) {
	if !models.ValidTable(table) {
		return false, apperr.Invalid("table_number", fmt.Sprintf("Table must be between %d and %d", models.MinTableNumber, models.MaxTableNumber))
	}

	c.mu.RLock()
	reserved := c.snapshot[table] == models.TableReserved
	c.mu.RUnlock()
	if reserved || c.otp.Active() {
		return false, nil
	}

	if err := c.otp.Request(ctx, guestName, phone, table); err != nil {
		if errors.Is(err, otp.ErrFlowInProgress) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Confirm verifies code and, once verified, reserves the selected table.
// It returns the server-supplied message.
func (c *Coordinator) Confirm(ctx context.Context, phone, code string) (string, error) {
	if _, err := c.otp.Verify(ctx, phone, code); err != nil {
		return "", err
	}
	return c.reserve(ctx)
}

// Cancel abandons the selection, as navigating away does
func (c *Coordinator) Cancel() {
	c.otp.Reset()
}

func (c *Coordinator) reserve(ctx context.Context) (string, error) {
	sess, ok := c.otp.Session()
	if !ok || !sess.Verified || c.otp.State() != otp.Verified {
		return "", ErrNotVerified
	}

	message, err := c.api.Reserve(ctx, models.ReserveRequest{
		TableNumber: sess.TableNumber,
		UserName:    sess.GuestName,
		PhoneNumber: sess.PhoneNumber,
	})
	// The challenge is spent either way
	c.otp.Reset()
	if err != nil {
		metrics.ReservationsTotal.WithLabelValues("failed").Inc()
		log.WithFields(log.Fields{
			"table_number": sess.TableNumber,
			"error":        err.Error(),
		}).Warn("Reservation failed")
		c.refreshQuietly(ctx)
		return "", err
	}

	metrics.ReservationsTotal.WithLabelValues("reserved").Inc()
	log.WithField("table_number", sess.TableNumber).Info("Table reserved")

	c.mu.Lock()
	c.snapshot[sess.TableNumber] = models.TableReserved
	c.mu.Unlock()

	c.refreshQuietly(ctx)
	return message, nil
}

// refreshQuietly keeps the optimistic snapshot when the refetch fails
func (c *Coordinator) refreshQuietly(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		log.WithField("error", err.Error()).Warn("Failed to refresh table snapshot")
	}
}
