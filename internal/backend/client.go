// Package backend is the REST client for the dining backend. Every call goes
// through a per-group bulkhead and circuit breaker and comes back classified
// as success, apperr.RejectionError, apperr.TransientError or
// apperr.ErrUnauthorized.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ashendes/smart-dining/internal/apperr"
	"github.com/ashendes/smart-dining/internal/metrics"
	"github.com/ashendes/smart-dining/internal/models"
	"github.com/ashendes/smart-dining/internal/patterns"
	"github.com/ashendes/smart-dining/internal/session"
	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

// Call groups. Each group has its own breaker and bulkhead so a failing
// payment provider cannot starve reservations.
const (
	GroupAuth        = "Auth"
	GroupCatalog     = "Catalog"
	GroupPayment     = "Payment"
	GroupReservation = "Reservation"
	GroupOwner       = "Owner"
	GroupFeedback    = "Feedback"
)

var groups = []string{GroupAuth, GroupCatalog, GroupPayment, GroupReservation, GroupOwner, GroupFeedback}

const serviceName = "dining-client"

// Client talks to the dining backend
type Client struct {
	http      *resty.Client
	session   *session.Context
	timeout   time.Duration
	breakers  map[string]*patterns.CircuitBreakerWrapper
	bulkheads map[string]*patterns.Bulkhead
}

// Option configures a Client
type Option func(*Client)

// WithTimeout overrides the per-call timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
			c.http.SetTimeout(d)
		}
	}
}

// WithBulkheadSize overrides the number of concurrent calls allowed per group
func WithBulkheadSize(size int) Option {
	return func(c *Client) {
		for _, g := range groups {
			c.bulkheads[g] = patterns.NewBulkhead(size, strings.ToLower(g), serviceName)
		}
	}
}

// New creates a Client for the backend rooted at baseURL
func New(baseURL string, sess *session.Context, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(patterns.DefaultTimeout).
			SetRetryCount(0), // No automatic retries, the payment poller retries verify calls
		session:   sess,
		timeout:   patterns.DefaultTimeout,
		breakers:  make(map[string]*patterns.CircuitBreakerWrapper, len(groups)),
		bulkheads: make(map[string]*patterns.Bulkhead, len(groups)),
	}
	for _, g := range groups {
		c.breakers[g] = patterns.NewCircuitBreaker(g, serviceName)
		c.bulkheads[g] = patterns.NewBulkhead(10, strings.ToLower(g), serviceName)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CircuitStates returns the state of every group's breaker
func (c *Client) CircuitStates() map[string]string {
	out := make(map[string]string, len(c.breakers))
	for name, cb := range c.breakers {
		out[name] = cb.GetState()
	}
	return out
}

type call struct {
	group     string
	operation string
	method    string
	path      string
	body      interface{}
	auth      bool
}

type reply struct {
	status int
	body   []byte
}

// do runs one call and classifies its failure. 5xx answers and transport
// errors trip the breaker; 4xx answers are returned as results so that
// business rejections never open a circuit.
//
// A call abandoned by its caller (cancelled or past the caller's deadline)
// is not counted against the breaker. The per-call timeout still is.
func (c *Client) do(ctx context.Context, in call) (*reply, error) {
	started := time.Now()
	caller := ctx
	ctx, cancel := patterns.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		out       *reply
		abandoned error
	)
	err := c.bulkheads[in.group].Execute(ctx, func() error {
		res, cbErr := c.breakers[in.group].Execute(func() (interface{}, error) {
			req := c.http.R().
				SetContext(ctx).
				SetHeader("Content-Type", "application/json")
			if in.auth {
				if token := c.session.Token(); token != "" {
					req.SetAuthToken(token)
				}
			}
			if in.body != nil {
				req.SetBody(in.body)
			}

			resp, httpErr := req.Execute(in.method, in.path)
			if httpErr != nil {
				if callerErr := caller.Err(); callerErr != nil {
					abandoned = callerErr
					return nil, nil
				}
				return nil, fmt.Errorf("HTTP error: %w", httpErr)
			}
			if resp.StatusCode() >= http.StatusInternalServerError {
				return nil, fmt.Errorf("backend returned status %d: %s", resp.StatusCode(), messageOf(resp.Body(), resp.Status()))
			}
			return &reply{status: resp.StatusCode(), body: resp.Body()}, nil
		})
		if cbErr != nil {
			return cbErr
		}
		if abandoned != nil {
			return abandoned
		}
		out = res.(*reply)
		return nil
	})

	if err != nil && caller.Err() != nil {
		metrics.ObserveBackendCall(in.group, in.operation, "cancelled", started)
		log.WithFields(log.Fields{
			"operation": in.operation,
			"error":     err.Error(),
		}).Debug("Backend call abandoned by caller")
		return nil, &apperr.TransientError{Op: in.operation, Err: err}
	}
	if err != nil {
		metrics.ObserveBackendCall(in.group, in.operation, "transient", started)
		log.WithFields(log.Fields{
			"operation": in.operation,
			"error":     err.Error(),
		}).Warn("Backend call failed")
		return nil, &apperr.TransientError{Op: in.operation, Err: err}
	}

	switch {
	case out.status == http.StatusUnauthorized && in.auth:
		metrics.ObserveBackendCall(in.group, in.operation, "unauthorized", started)
		if clearErr := c.session.ClearToken(); clearErr != nil {
			log.WithField("error", clearErr.Error()).Error("Failed to clear rejected session token")
		}
		return nil, fmt.Errorf("%s: %w", in.operation, apperr.ErrUnauthorized)
	case out.status >= http.StatusBadRequest:
		metrics.ObserveBackendCall(in.group, in.operation, "rejected", started)
		return nil, &apperr.RejectionError{
			Op:         in.operation,
			StatusCode: out.status,
			Message:    messageOf(out.body, http.StatusText(out.status)),
		}
	}

	metrics.ObserveBackendCall(in.group, in.operation, "ok", started)
	return out, nil
}

// doJSON runs a call and decodes a 2xx body into dst
func (c *Client) doJSON(ctx context.Context, in call, dst interface{}) error {
	out, err := c.do(ctx, in)
	if err != nil {
		return err
	}
	if dst == nil || len(out.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(out.body, dst); err != nil {
		return &apperr.TransientError{Op: in.operation, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	return nil
}

func messageOf(body []byte, fallback string) string {
	var resp models.ErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Message != "" {
		return resp.Message
	}
	if fallback == "" {
		return "request failed"
	}
	return fallback
}

func rejected(operation, message, fallback string) error {
	if message == "" {
		message = fallback
	}
	return &apperr.RejectionError{Op: operation, StatusCode: http.StatusOK, Message: message}
}

// IsUnauthorized reports whether err means the user has to log in again
func IsUnauthorized(err error) bool {
	return errors.Is(err, apperr.ErrUnauthorized)
}
