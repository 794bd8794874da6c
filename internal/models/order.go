package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CartLine represents one product in the cart
type CartLine struct {
	ProductID int             `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns unit price times quantity
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is an order record as listed by the backend
type Order struct {
	OrderID     string     `json:"order_id"`
	Items       []CartLine `json:"items"`
	Amount      float64    `json:"amount"`
	PhoneNumber string     `json:"phone_number"`
	Status      string     `json:"status"`
	Email       string     `json:"email,omitempty"`
	CreatedAt   Timestamp  `json:"created_at"`
}

// Backend order record statuses
const (
	OrderRecordPending = "PENDING"
	OrderRecordPaid    = "PAID"
	OrderRecordFailed  = "FAILED"
)

// OrderStatus is the locally derived payment outcome of an order
type OrderStatus string

// OrderStatus constants
const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
	OrderStatusUnknown OrderStatus = "unknown"
)

// Terminal reports whether no further reconciliation can change the status
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusPaid || s == OrderStatusFailed
}

// Timestamp accepts RFC 3339 as well as the zone-less ISO 8601 strings the
// backend writes, which are UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", raw)
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
