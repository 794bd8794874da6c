// Package cart implements the persisted cart, the source of truth for the
// checkout amount.
package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ashendes/smart-dining/internal/apperr"
	"github.com/ashendes/smart-dining/internal/metrics"
	"github.com/ashendes/smart-dining/internal/models"
	"github.com/ashendes/smart-dining/internal/session"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// ErrLineNotFound is returned when a mutation targets a product not in the cart
var ErrLineNotFound = errors.New("product is not in the cart")

// Store holds at most one line per product id. Every mutation re-serializes
// the whole cart under session.KeyCart before it becomes visible.
type Store struct {
	mu    sync.Mutex
	kv    session.Store
	lines []models.CartLine
}

// New creates a Store and loads whatever cart is already persisted
func New(kv session.Store) (*Store, error) {
	s := &Store{kv: kv}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory view with the persisted cart. Another view of
// the same storage only sees this view's changes after calling Reload.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.kv.Get(session.KeyCart)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}
	if !ok || raw == "" {
		s.lines = nil
		s.observe()
		return nil
	}

	var stored []models.CartLine
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return fmt.Errorf("failed to parse cart: %w", err)
	}
	s.lines = normalize(stored)
	s.observe()
	return nil
}

// Add puts one unit of item into the cart, creating the line on first add
func (s *Store) Add(item models.FoodItem) error {
	if !item.Price.IsPositive() {
		return apperr.Invalid("price", "Item price must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyLines()
	if i := indexOf(next, item.ID); i >= 0 {
		next[i].Quantity++
	} else {
		next = append(next, models.CartLine{
			ProductID: item.ID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  1,
		})
	}
	return s.commit(next)
}

// Increase adds one unit to an existing line
func (s *Store) Increase(productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyLines()
	i := indexOf(next, productID)
	if i < 0 {
		return ErrLineNotFound
	}
	next[i].Quantity++
	return s.commit(next)
}

// Decrease removes one unit, dropping the line when it reaches zero
func (s *Store) Decrease(productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyLines()
	i := indexOf(next, productID)
	if i < 0 {
		return ErrLineNotFound
	}
	next[i].Quantity--
	if next[i].Quantity < 1 {
		next = append(next[:i], next[i+1:]...)
	}
	return s.commit(next)
}

// Remove drops a line regardless of its quantity
func (s *Store) Remove(productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyLines()
	i := indexOf(next, productID)
	if i < 0 {
		return ErrLineNotFound
	}
	next = append(next[:i], next[i+1:]...)
	return s.commit(next)
}

// Clear empties the cart. Clearing an empty cart is a no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(session.KeyCart); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	if len(s.lines) > 0 {
		log.WithField("lines", len(s.lines)).Info("Cart cleared")
	}
	s.lines = nil
	s.observe()
	return nil
}

// Lines returns a copy of the current lines in insertion order
func (s *Store) Lines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLines()
}

// Total returns the sum of unit price times quantity
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, line := range s.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// ItemCount returns the sum of quantities
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, line := range s.lines {
		count += line.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no lines
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

func (s *Store) commit(next []models.CartLine) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.kv.Set(session.KeyCart, string(data)); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	s.lines = next
	s.observe()
	return nil
}

func (s *Store) observe() {
	count := 0
	for _, line := range s.lines {
		count += line.Quantity
	}
	metrics.CartItems.Set(float64(count))
}

func (s *Store) copyLines() []models.CartLine {
	if len(s.lines) == 0 {
		return nil
	}
	out := make([]models.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func indexOf(lines []models.CartLine, productID int) int {
	for i, line := range lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

// normalize merges duplicate product ids and drops empty lines that a
// hand-edited or older blob might contain.
func normalize(stored []models.CartLine) []models.CartLine {
	var out []models.CartLine
	for _, line := range stored {
		if line.Quantity < 1 {
			continue
		}
		if i := indexOf(out, line.ProductID); i >= 0 {
			out[i].Quantity += line.Quantity
			continue
		}
		out = append(out, line)
	}
	return out
}
