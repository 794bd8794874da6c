// Package otp drives the phone verification that gates a table reservation.
//
// States run Idle -> OtpSent -> Verified. A failed send returns to Idle, a
// failed verify stays in OtpSent so the guest can retry or resend. The code's
// lifetime is owned by the provider; a stale code simply fails verification.
package otp

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/ashendes/smart-dining/internal/apperr"
	"github.com/ashendes/smart-dining/internal/metrics"
	"github.com/ashendes/smart-dining/internal/models"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrFlowInProgress is returned when a challenge is already active
	ErrFlowInProgress = errors.New("a verification is already in progress")
	// ErrNoActiveChallenge is returned when there is no sent OTP to act on
	ErrNoActiveChallenge = errors.New("no OTP has been sent")
)

// State of the challenge
type State int

// State constants
const (
	Idle State = iota
	OtpSent
	Verified
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case OtpSent:
		return "otp_sent"
	case Verified:
		return "verified"
	default:
		return "unknown"
	}
}

// API is the part of the backend the controller needs
type API interface {
	SendOTP(ctx context.Context, phone string) (*models.OTPResponse, error)
	VerifyOTP(ctx context.Context, phone, code string) (*models.OTPResponse, error)
}

// Session is the guest captured when the OTP was requested
type Session struct {
	GuestName   string
	PhoneNumber string
	TableNumber int
	Verified    bool
}

// Controller owns one challenge at a time
type Controller struct {
	mu      sync.Mutex
	api     API
	state   State
	sending bool
	session *Session
}

// NewController creates an idle Controller
func NewController(api API) *Controller {
	return &Controller{api: api}
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Active reports whether a challenge has left Idle or is being sent
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != Idle || c.sending
}

// Session returns a copy of the captured guest, if any
func (c *Controller) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Request validates the guest and asks the provider to send a code.
// Invalid input is rejected without a network call.
func (c *Controller) Request(ctx context.Context, guestName, phone string, table int) error {
	guestName = strings.TrimSpace(guestName)
	if guestName == "" {
		return apperr.Invalid("name", "Please enter your name")
	}
	if !models.IsPhoneNumber(phone) {
		return apperr.Invalid("phone_number", "Phone number must be exactly 10 digits")
	}

	c.mu.Lock()
	if c.state != Idle || c.sending {
		c.mu.Unlock()
		return ErrFlowInProgress
	}
	c.sending = true
	c.mu.Unlock()

	_, err := c.api.SendOTP(ctx, phone)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sending = false
	if err != nil {
		c.moveLocked(Idle)
		log.WithFields(log.Fields{
			"table_number": table,
			"error":        err.Error(),
		}).Warn("Failed to send OTP")
		return err
	}

	c.session = &Session{GuestName: guestName, PhoneNumber: phone, TableNumber: table}
	c.moveLocked(OtpSent)
	log.WithField("table_number", table).Info("OTP sent")
	return nil
}

// Resend re-issues the code to the phone captured by Request. The input is
// not validated again.
func (c *Controller) Resend(ctx context.Context) error {
	c.mu.Lock()
	if c.state != OtpSent || c.session == nil {
		c.mu.Unlock()
		return ErrNoActiveChallenge
	}
	phone := c.session.PhoneNumber
	c.mu.Unlock()

	if _, err := c.api.SendOTP(ctx, phone); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == OtpSent {
		c.moveLocked(OtpSent)
	}
	return nil
}

// Verify checks code for phone, which must be the phone the code was sent
// to. On failure the challenge stays in OtpSent.
func (c *Controller) Verify(ctx context.Context, phone, code string) (Session, error) {
	c.mu.Lock()
	if c.state != OtpSent || c.session == nil {
		c.mu.Unlock()
		return Session{}, ErrNoActiveChallenge
	}
	expected := c.session.PhoneNumber
	c.mu.Unlock()

	if phone != expected {
		return Session{}, apperr.Invalid("phone_number", "Phone number does not match the one the OTP was sent to")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return Session{}, apperr.Invalid("otp", "Please enter the OTP")
	}

	if _, err := c.api.VerifyOTP(ctx, phone, code); err != nil {
		log.WithField("error", err.Error()).Warn("OTP verification failed")
		return Session{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// reset while the call was in flight
	if c.state != OtpSent || c.session == nil || c.session.PhoneNumber != phone {
		return Session{}, ErrNoActiveChallenge
	}
	c.session.Verified = true
	c.moveLocked(Verified)
	return *c.session, nil
}

// Reset forgets the challenge and returns to Idle
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	if c.state != Idle {
		c.moveLocked(Idle)
	}
}

func (c *Controller) moveLocked(to State) {
	c.state = to
	metrics.OTPTransitionsTotal.WithLabelValues(to.String()).Inc()
}
