// Package mockbackend is an in-memory dining backend. It serves the same REST
// surface as the real one, settles payments through a sandbox checkout
// endpoint and can inject failures and latency like the chaos modes of the
// other demo services.
package mockbackend

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/ashendes/smart-dining/internal/clock"
	"github.com/ashendes/smart-dining/internal/metrics"
	"github.com/ashendes/smart-dining/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const otpTTL = 5 * time.Minute

type user struct {
	password string
	admin    bool
}

type otpEntry struct {
	code   string
	expiry time.Time
}

// Backend holds all state of the mock backend
type Backend struct {
	mu           sync.RWMutex
	clock        clock.Clock
	users        map[string]user
	tokens       map[string]string
	foodItems    []models.FoodItem
	orders       map[string]*models.Order
	sessions     map[string]string
	reservations map[int]models.Reservation
	otps         map[string]otpEntry
	feedback     map[string]models.FeedbackRequest
	onOTP        func(phone, code string)
	rng          *rand.Rand

	chaosEnabled  bool
	chaosSlowMode bool
	failureRate   float32
	chaosMutex    sync.RWMutex
}

// Option configures a Backend
type Option func(*Backend)

// WithClock overrides the time source
func WithClock(clk clock.Clock) Option {
	return func(b *Backend) {
		b.clock = clk
	}
}

// WithOTPHook is called with every OTP issued, in place of an SMS provider
func WithOTPHook(fn func(phone, code string)) Option {
	return func(b *Backend) {
		b.onOTP = fn
	}
}

// New creates a Backend with a small sample menu
func New(opts ...Option) *Backend {
	b := &Backend{
		clock:        clock.NewSystem(),
		users:        make(map[string]user),
		tokens:       make(map[string]string),
		orders:       make(map[string]*models.Order),
		sessions:     make(map[string]string),
		reservations: make(map[int]models.Reservation),
		otps:         make(map[string]otpEntry),
		feedback:     make(map[string]models.FeedbackRequest),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		failureRate:  0.3,
	}
	for _, opt := range opts {
		opt(b)
	}

	sampleItems := []struct {
		name  string
		price int64
	}{
		{"Masala Dosa", 80},
		{"Veg Thali", 150},
		{"Paneer Roll", 100},
		{"Filter Coffee", 30},
	}
	for i, item := range sampleItems {
		b.foodItems = append(b.foodItems, models.FoodItem{
			ID:        i + 1,
			Name:      item.name,
			Price:     decimal.NewFromInt(item.price),
			ImageURL:  fmt.Sprintf("https://images.example.com/%d.jpg", i+1),
			CreatedAt: models.Timestamp{Time: b.clock.Now().UTC()},
		})
	}
	return b
}

// AddUser registers an account. Admins can use the owner endpoints.
func (b *Backend) AddUser(email, password string, admin bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[email] = user{password: password, admin: admin}
}

// IssueToken logs email in directly and returns its token
func (b *Backend) IssueToken(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.users[email]; !ok {
		b.users[email] = user{}
	}
	token := uuid.New().String()
	b.tokens[token] = email
	return token
}

// SetOrderStatus moves an order to status, as the gateway webhook would
func (b *Backend) SetOrderStatus(orderID, status string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s not found", orderID)
	}
	if order.Status != status {
		order.Status = status
		metrics.OrdersTotal.WithLabelValues(status).Inc()
	}
	log.WithFields(log.Fields{
		"order_id": orderID,
		"status":   status,
	}).Info("Order status updated")
	return nil
}

// Order returns a copy of an order record
func (b *Backend) Order(orderID string) (models.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	order, ok := b.orders[orderID]
	if !ok {
		return models.Order{}, false
	}
	return *order, true
}

// Orders returns every order record, oldest first
func (b *Backend) Orders() []models.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sortedOrders()
}

// AddOrder inserts an order record directly
func (b *Backend) AddOrder(order models.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	stored := order
	b.orders[order.OrderID] = &stored
}

// LastOTP returns the code currently issued for phone
func (b *Backend) LastOTP(phone string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	entry, ok := b.otps[phone]
	return entry.code, ok
}

// ExpireOTPs makes every issued code stale
func (b *Backend) ExpireOTPs() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for phone, entry := range b.otps {
		entry.expiry = time.Time{}
		b.otps[phone] = entry
	}
}

// AddReservation locks a table directly, as another client would
func (b *Backend) AddReservation(r models.Reservation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reservations[r.TableNumber] = r
}

// Reserved reports whether table is reserved
func (b *Backend) Reserved(table int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.reservations[table]
	return ok
}

func (b *Backend) sortedOrders() []models.Order {
	out := make([]models.Order, 0, len(b.orders))
	for _, order := range b.orders {
		out = append(out, *order)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt.Time)
	})
	return out
}

func (b *Backend) newOTP() string {
	return fmt.Sprintf("%06d", b.rng.Intn(1000000))
}
