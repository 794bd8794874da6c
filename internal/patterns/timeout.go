package patterns

import (
	"context"
	"time"
)

// WithTimeout derives a context that fails fast after duration
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = DefaultTimeout
	}
	return context.WithTimeout(parent, duration)
}

// DefaultTimeout is the default timeout for backend requests
const DefaultTimeout = 5 * time.Second

// CheckoutTimeout bounds how long a hosted checkout handoff may take
const CheckoutTimeout = 15 * time.Minute
