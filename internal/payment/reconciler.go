// Package payment turns the cart into a payment attempt and reconciles its
// outcome from two channels: the redirect back from hosted checkout and a
// bounded poll of the backend.
package payment

import (
	"context"
	"sync"

	"github.com/ashendes/smart-dining/internal/apperr"
	"github.com/ashendes/smart-dining/internal/metrics"
	"github.com/ashendes/smart-dining/internal/models"
	"github.com/ashendes/smart-dining/internal/notice"
	log "github.com/sirupsen/logrus"
)

// Channel names the source of a verify call
type Channel string

// Channel constants
const (
	ChannelPoll     Channel = "poll"
	ChannelRedirect Channel = "redirect"
)

// Pending and unresolved notices
const (
	NotConfirmedMessage = "Payment not yet confirmed. Please wait a moment."
	UnresolvedMessage   = "We could not confirm your payment yet. It may still complete, check the order status shortly."
)

// StatusAPI probes the server-authoritative payment status
type StatusAPI interface {
	VerifyPayment(ctx context.Context, orderID string) (*models.VerifyPaymentResponse, error)
}

// CartClearer empties the cart once an order is paid
type CartClearer interface {
	Clear() error
}

// Navigator moves the user to the post-purchase feedback step
type Navigator interface {
	ToFeedback(orderID string)
}

// Notifier shows user-visible notices
type Notifier interface {
	Show(kind notice.Kind, text string)
	ShowError(err error)
}

// Reconciler is the single consumer of both channels. The paid side effects
// run at most once per order, guarded by the resolved flag.
type Reconciler struct {
	mu       sync.Mutex
	api      StatusAPI
	cart     CartClearer
	nav      Navigator
	notices  Notifier
	resolved map[string]bool
	statuses map[string]models.OrderStatus
	pollers  map[string][]context.CancelFunc
	// pendingShown marks orders whose pending notice is already up. Poll
	// ticks do not repeat it; a redirect return always shows it.
	pendingShown map[string]bool
}

// NewReconciler creates a Reconciler
func NewReconciler(api StatusAPI, cart CartClearer, nav Navigator, notices Notifier) *Reconciler {
	return &Reconciler{
		api:      api,
		cart:     cart,
		nav:      nav,
		notices:  notices,
		resolved: make(map[string]bool),
		statuses: make(map[string]models.OrderStatus),
		pollers:  make(map[string][]context.CancelFunc),

		pendingShown: make(map[string]bool),
	}
}

// Status returns the locally derived status of orderID. Orders never seen
// are unknown.
func (r *Reconciler) Status(orderID string) models.OrderStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if status, ok := r.statuses[orderID]; ok {
		return status
	}
	return models.OrderStatusUnknown
}

// Track records a freshly created order as pending
func (r *Reconciler) Track(orderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.statuses[orderID]; !ok {
		r.statuses[orderID] = models.OrderStatusPending
	}
}

// Forget drops an order whose checkout never started
func (r *Reconciler) Forget(orderID string) {
	r.mu.Lock()
	cancels := r.pollers[orderID]
	delete(r.pollers, orderID)
	delete(r.pendingShown, orderID)
	if !r.resolved[orderID] {
		delete(r.statuses, orderID)
	}
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Register attaches a poller's cancel handle to orderID. If the order is
// already terminal the poller is cancelled at once.
func (r *Reconciler) Register(orderID string, cancel context.CancelFunc) {
	r.mu.Lock()
	if !r.statuses[orderID].Terminal() {
		r.pollers[orderID] = append(r.pollers[orderID], cancel)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	cancel()
}

// Stop cancels every poller of orderID
func (r *Reconciler) Stop(orderID string) {
	r.mu.Lock()
	cancels := r.pollers[orderID]
	delete(r.pollers, orderID)
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// StopAll cancels every poller
func (r *Reconciler) StopAll() {
	r.mu.Lock()
	var cancels []context.CancelFunc
	for orderID, list := range r.pollers {
		cancels = append(cancels, list...)
		delete(r.pollers, orderID)
	}
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Expire marks an order whose polling window ran out. A terminal order is
// left alone; anything else becomes unknown, which is not a failure.
func (r *Reconciler) Expire(orderID string) {
	r.mu.Lock()
	status := r.statuses[orderID]
	if status.Terminal() {
		r.mu.Unlock()
		return
	}
	r.statuses[orderID] = models.OrderStatusUnknown
	delete(r.pollers, orderID)
	delete(r.pendingShown, orderID)
	r.mu.Unlock()

	metrics.PollWindowsExpired.Inc()
	log.WithField("order_id", orderID).Info("Payment polling window expired unresolved")
	r.notices.Show(notice.KindUnresolved, UnresolvedMessage)
}

// Verify queries the backend for orderID and applies the outcome:
//
//   - paid: clear the cart, navigate to feedback and stop pollers, once
//   - not paid: pending, with a non-fatal notice
//   - explicit failure or declined payment: failed, pollers stopped, cart intact
//   - transport error: returned as is, status and pollers untouched
func (r *Reconciler) Verify(ctx context.Context, orderID string, channel Channel) (models.OrderStatus, error) {
	if r.isResolved(orderID) {
		return models.OrderStatusPaid, nil
	}

	resp, err := r.api.VerifyPayment(ctx, orderID)
	switch {
	case err != nil && apperr.IsTransient(err):
		metrics.ReconciliationsTotal.WithLabelValues(string(channel), "transient").Inc()
		log.WithFields(log.Fields{
			"order_id": orderID,
			"channel":  channel,
			"error":    err.Error(),
		}).Warn("Payment status check failed, will retry")
		if channel == ChannelRedirect {
			r.notices.ShowError(err)
		}
		return r.Status(orderID), err
	case err != nil:
		return r.fail(orderID, channel, err)
	case !resp.Success:
		msg := resp.Message
		if msg == "" {
			msg = "Payment verification failed"
		}
		return r.fail(orderID, channel, &apperr.RejectionError{Op: "verify payment", StatusCode: 200, Message: msg})
	case resp.IsPaid:
		return r.paid(orderID, channel)
	case resp.Status == models.OrderRecordFailed:
		msg := resp.Message
		if msg == "" {
			msg = "Payment failed! Try again."
		}
		return r.fail(orderID, channel, &apperr.RejectionError{Op: "verify payment", StatusCode: 200, Message: msg})
	}

	r.mu.Lock()
	if r.statuses[orderID].Terminal() {
		status := r.statuses[orderID]
		r.mu.Unlock()
		return status, nil
	}
	r.statuses[orderID] = models.OrderStatusPending
	show := channel == ChannelRedirect || !r.pendingShown[orderID]
	r.pendingShown[orderID] = true
	r.mu.Unlock()

	metrics.ReconciliationsTotal.WithLabelValues(string(channel), string(models.OrderStatusPending)).Inc()
	if show {
		r.notices.Show(notice.KindPending, NotConfirmedMessage)
	}
	return models.OrderStatusPending, nil
}

func (r *Reconciler) isResolved(orderID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolved[orderID]
}

func (r *Reconciler) paid(orderID string, channel Channel) (models.OrderStatus, error) {
	r.mu.Lock()
	if r.resolved[orderID] {
		r.mu.Unlock()
		return models.OrderStatusPaid, nil
	}
	r.resolved[orderID] = true
	r.statuses[orderID] = models.OrderStatusPaid
	cancels := r.pollers[orderID]
	delete(r.pollers, orderID)
	delete(r.pendingShown, orderID)
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}

	metrics.ReconciliationsTotal.WithLabelValues(string(channel), string(models.OrderStatusPaid)).Inc()
	log.WithFields(log.Fields{
		"order_id": orderID,
		"channel":  channel,
	}).Info("Payment confirmed")

	if err := r.cart.Clear(); err != nil {
		log.WithFields(log.Fields{
			"order_id": orderID,
			"error":    err.Error(),
		}).Error("Failed to clear cart after payment")
		r.notices.ShowError(err)
	}
	r.nav.ToFeedback(orderID)
	return models.OrderStatusPaid, nil
}

func (r *Reconciler) fail(orderID string, channel Channel, err error) (models.OrderStatus, error) {
	r.mu.Lock()
	if r.resolved[orderID] {
		r.mu.Unlock()
		return models.OrderStatusPaid, nil
	}
	r.statuses[orderID] = models.OrderStatusFailed
	cancels := r.pollers[orderID]
	delete(r.pollers, orderID)
	delete(r.pendingShown, orderID)
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}

	metrics.ReconciliationsTotal.WithLabelValues(string(channel), string(models.OrderStatusFailed)).Inc()
	log.WithFields(log.Fields{
		"order_id": orderID,
		"channel":  channel,
		"error":    err.Error(),
	}).Warn("Payment verification rejected")
	r.notices.ShowError(err)
	return models.OrderStatusFailed, err
}
