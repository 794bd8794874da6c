package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ashendes/smart-dining/internal/apperr"
	"github.com/ashendes/smart-dining/internal/metrics"
	"github.com/ashendes/smart-dining/internal/models"
	"github.com/ashendes/smart-dining/internal/patterns"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// ErrPaymentInProgress is returned while an earlier Pay is still creating
// the session or handing it off
var ErrPaymentInProgress = errors.New("a payment is already in progress")

// Default polling bounds
const (
	DefaultPollInterval = 3 * time.Second
	DefaultPollWindow   = 60 * time.Second
)

// OrderSummaryPath is the route the gateway returns to
const OrderSummaryPath = "/order-summary"

// API is the part of the backend the controller needs
type API interface {
	StatusAPI
	CreatePayment(ctx context.Context, req models.CreatePaymentRequest) (*models.CreatePaymentResponse, error)
}

// Cart is the amount and items source
type Cart interface {
	Lines() []models.CartLine
	Total() decimal.Decimal
}

// Params wires a Controller
type Params struct {
	API           API
	Cart          Cart
	Checkout      Checkout
	Reconciler    *Reconciler
	Notices       Notifier
	CustomerPhone string
	ReturnURLBase string
	PollInterval  time.Duration
	PollWindow    time.Duration
}

// Controller turns the cart into one payment attempt per Pay call and
// drives it to a terminal outcome
type Controller struct {
	api        API
	cart       Cart
	checkout   Checkout
	rec        *Reconciler
	notices    Notifier
	phone      string
	returnBase string
	interval   time.Duration
	window     time.Duration

	mu      sync.Mutex
	busy    bool
	current string
	wg      sync.WaitGroup
}

// NewController creates a Controller
func NewController(p Params) *Controller {
	c := &Controller{
		api:        p.API,
		cart:       p.Cart,
		checkout:   p.Checkout,
		rec:        p.Reconciler,
		notices:    p.Notices,
		phone:      p.CustomerPhone,
		returnBase: strings.TrimRight(p.ReturnURLBase, "/"),
		interval:   p.PollInterval,
		window:     p.PollWindow,
	}
	if c.interval <= 0 {
		c.interval = DefaultPollInterval
	}
	if c.window <= 0 {
		c.window = DefaultPollWindow
	}
	return c
}

// Busy reports whether a Pay call is creating or handing off a session
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Current returns the order id of the latest attempt
func (c *Controller) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Pay creates a payment session for the cart, hands it to the hosted
// checkout and starts polling once the handoff returns.
func (c *Controller) Pay(ctx context.Context) (*models.PaymentSession, error) {
	amount := c.cart.Total()
	if !amount.IsPositive() {
		metrics.PaymentAttemptsTotal.WithLabelValues("invalid").Inc()
		return nil, apperr.Invalid("amount", "Your cart is empty")
	}
	if !models.IsPhoneNumber(c.phone) {
		metrics.PaymentAttemptsTotal.WithLabelValues("invalid").Inc()
		return nil, apperr.Invalid("phone_number", "Phone number must be exactly 10 digits")
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrPaymentInProgress
	}
	c.busy = true
	previous := c.current
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	// A new attempt makes the previous poller stale
	if previous != "" {
		c.rec.Stop(previous)
	}

	created, err := c.api.CreatePayment(ctx, models.CreatePaymentRequest{
		Amount:      amount.InexactFloat64(),
		PhoneNumber: c.phone,
		Items:       c.cart.Lines(),
	})
	if err != nil {
		metrics.PaymentAttemptsTotal.WithLabelValues("create_failed").Inc()
		c.notices.ShowError(err)
		return nil, err
	}

	session := &models.PaymentSession{
		OrderID:          created.OrderID,
		PaymentSessionID: created.PaymentSessionID,
		Amount:           amount,
		CreatedAt:        time.Now(),
	}
	c.rec.Track(session.OrderID)

	c.mu.Lock()
	c.current = session.OrderID
	c.mu.Unlock()

	log.WithFields(log.Fields{
		"order_id": session.OrderID,
		"amount":   amount.String(),
	}).Info("Payment session created")

	handoffCtx, cancel := patterns.WithTimeout(ctx, patterns.CheckoutTimeout)
	defer cancel()

	err = c.checkout.Checkout(handoffCtx, HostedCheckout{
		SessionID: session.PaymentSessionID,
		OrderID:   session.OrderID,
		ReturnURL: c.ReturnURL(session.OrderID),
	})
	if err != nil {
		metrics.PaymentAttemptsTotal.WithLabelValues("handoff_failed").Inc()
		c.rec.Forget(session.OrderID)
		err = fmt.Errorf("failed to start checkout: %w", err)
		c.notices.ShowError(err)
		return nil, err
	}

	metrics.PaymentAttemptsTotal.WithLabelValues("handed_off").Inc()
	metrics.PaymentAmount.Observe(amount.InexactFloat64())
	c.startPolling(session.OrderID)
	return session, nil
}

// HandleRedirect is the redirect-return channel: one reconciliation for the
// order id carried by the return URL.
func (c *Controller) HandleRedirect(ctx context.Context, orderID string) (models.OrderStatus, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return models.OrderStatusUnknown, apperr.Invalid("order_id", "Missing order id")
	}
	c.rec.Track(orderID)
	return c.rec.Verify(ctx, orderID, ChannelRedirect)
}

// ReturnURL is where the gateway sends the user back for orderID
func (c *Controller) ReturnURL(orderID string) string {
	return c.returnBase + OrderSummaryPath + "?order_id=" + url.QueryEscape(orderID)
}

// Close cancels every poller and waits for them to exit
func (c *Controller) Close() {
	c.rec.StopAll()
	c.wg.Wait()
}

func (c *Controller) startPolling(orderID string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.window)
	c.rec.Register(orderID, cancel)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		c.poll(ctx, orderID)
	}()
}

// poll verifies orderID every interval until a terminal status, a cancel
// or the end of the window
func (c *Controller) poll(ctx context.Context, orderID string) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	logger := log.WithField("order_id", orderID)
	logger.Debug("Payment polling started")

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				c.rec.Expire(orderID)
				return
			}
			logger.Debug("Payment polling cancelled")
			return
		case <-ticker.C:
			status, err := c.rec.Verify(ctx, orderID, ChannelPoll)
			if err == nil && status.Terminal() {
				return
			}
			if err != nil && !apperr.IsTransient(err) {
				return
			}
		}
	}
}
