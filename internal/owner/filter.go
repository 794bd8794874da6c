// Package owner serves the owner dashboard: the order list behind a local
// display filter, reservations and the menu.
package owner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ashendes/smart-dining/internal/clock"
	"github.com/ashendes/smart-dining/internal/models"
	"github.com/ashendes/smart-dining/internal/session"
	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// epoch is the boundary after Restore. At the epoch, orders without a
// creation time are shown too.
var epoch = time.Unix(0, 0)

// OrderSource lists order records
type OrderSource interface {
	AllOrders(ctx context.Context) ([]models.Order, error)
}

// ClearedSinceFilter decorates an OrderSource and hides orders created at or
// before the persisted cleared-since timestamp. It only changes what is
// shown: backend order records are never modified or deleted.
//
// On the first fetch of each local calendar day the filter rolls over to
// the current time, so the dashboard starts every day empty.
type ClearedSinceFilter struct {
	mu    sync.Mutex
	src   OrderSource
	kv    session.Store
	clock clock.Clock
}

// NewClearedSinceFilter wraps src
func NewClearedSinceFilter(src OrderSource, kv session.Store, clk clock.Clock) *ClearedSinceFilter {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &ClearedSinceFilter{src: src, kv: kv, clock: clk}
}

// AllOrders implements OrderSource with the display filter applied
func (f *ClearedSinceFilter) AllOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := f.src.AllOrders(ctx)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.clock.Now()
	since, err := f.clearedSinceLocked(now)
	if err != nil {
		return nil, err
	}

	today := now.Format(dateLayout)
	last, _, err := f.kv.Get(session.KeyLastClearedDate)
	if err != nil {
		return nil, fmt.Errorf("failed to read last cleared date: %w", err)
	}
	if last != today {
		if err := f.kv.Set(session.KeyLastClearedDate, today); err != nil {
			return nil, fmt.Errorf("failed to store last cleared date: %w", err)
		}
		if err := f.setLocked(now); err != nil {
			return nil, err
		}
		log.WithField("date", today).Info("Owner order view rolled over to a new day")
		return []models.Order{}, nil
	}

	visible := make([]models.Order, 0, len(orders))
	for _, order := range orders {
		if order.CreatedAt.After(since) || (order.CreatedAt.IsZero() && since.Equal(epoch)) {
			visible = append(visible, order)
		}
	}
	return visible, nil
}

// ClearedSince returns the current filter boundary
func (f *ClearedSinceFilter) ClearedSince() (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clearedSinceLocked(f.clock.Now())
}

// Clear hides every order created up to now
func (f *ClearedSinceFilter) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setLocked(f.clock.Now())
}

// Restore resets the boundary to the epoch and refetches. It also marks
// today as rolled over, so a restore on a new day is not undone by the
// daily rollover.
func (f *ClearedSinceFilter) Restore(ctx context.Context) ([]models.Order, error) {
	f.mu.Lock()
	err := f.kv.Set(session.KeyLastClearedDate, f.clock.Now().Format(dateLayout))
	if err != nil {
		err = fmt.Errorf("failed to store last cleared date: %w", err)
	} else {
		err = f.setLocked(epoch)
	}
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.AllOrders(ctx)
}

// clearedSinceLocked reads the boundary, initialising it to now when unset
func (f *ClearedSinceFilter) clearedSinceLocked(now time.Time) (time.Time, error) {
	raw, ok, err := f.kv.Get(session.KeyLastClearedTimestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read cleared-since: %w", err)
	}
	if ok && raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return t, nil
		}
		log.WithField("value", raw).Warn("Ignoring unparsable cleared-since timestamp")
	}
	if err := f.setLocked(now); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

func (f *ClearedSinceFilter) setLocked(t time.Time) error {
	if err := f.kv.Set(session.KeyLastClearedTimestamp, t.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to store cleared-since: %w", err)
	}
	return nil
}
