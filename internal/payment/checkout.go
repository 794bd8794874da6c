package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

// HostedCheckout is what the checkout integration needs to take over
type HostedCheckout struct {
	SessionID string
	OrderID   string
	ReturnURL string
}

// Checkout hands a payment session to the external hosted checkout. It
// returns once control comes back to the application, or an error when the
// handoff could not start.
type Checkout interface {
	Checkout(ctx context.Context, hc HostedCheckout) error
}

// SandboxCheckout settles sessions through the mock backend's sandbox
// endpoint, then follows the return URL the way a browser would after the
// gateway redirects.
type SandboxCheckout struct {
	http         *resty.Client
	outcome      string
	followReturn bool
}

// NewSandboxCheckout creates a SandboxCheckout against the backend at baseURL.
// outcome is paid, failed or pending.
func NewSandboxCheckout(baseURL, outcome string, followReturn bool) *SandboxCheckout {
	if outcome == "" {
		outcome = "paid"
	}
	return &SandboxCheckout{
		http:         resty.New().SetBaseURL(strings.TrimRight(baseURL, "/")),
		outcome:      outcome,
		followReturn: followReturn,
	}
}

// Checkout implements Checkout
func (s *SandboxCheckout) Checkout(ctx context.Context, hc HostedCheckout) error {
	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("outcome", s.outcome).
		Get("/sandbox/checkout/" + url.PathEscape(hc.SessionID))
	if err != nil {
		return fmt.Errorf("checkout unreachable: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("checkout rejected session %s: status %d", hc.SessionID, resp.StatusCode())
	}

	log.WithFields(log.Fields{
		"order_id": hc.OrderID,
		"outcome":  s.outcome,
	}).Info("Sandbox checkout completed")

	if !s.followReturn || hc.ReturnURL == "" {
		return nil
	}
	// The return leg belongs to the redirect channel. Its failure does not
	// undo a completed checkout.
	if _, err := s.http.R().SetContext(ctx).Get(hc.ReturnURL); err != nil {
		log.WithFields(log.Fields{
			"order_id": hc.OrderID,
			"error":    err.Error(),
		}).Warn("Failed to follow checkout return URL")
	}
	return nil
}

// LinkCheckout prints a hosted checkout link for the user to open and
// returns immediately; completion arrives through polling or the redirect.
type LinkCheckout struct {
	base string
}

// NewLinkCheckout creates a LinkCheckout for the gateway page at base
func NewLinkCheckout(base string) (*LinkCheckout, error) {
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid checkout URL %q: %w", base, err)
	}
	return &LinkCheckout{base: base}, nil
}

// Checkout implements Checkout
func (l *LinkCheckout) Checkout(_ context.Context, hc HostedCheckout) error {
	link, err := url.Parse(l.base)
	if err != nil {
		return fmt.Errorf("invalid checkout URL: %w", err)
	}
	q := link.Query()
	q.Set("session_id", hc.SessionID)
	q.Set("return_url", hc.ReturnURL)
	link.RawQuery = q.Encode()

	log.WithFields(log.Fields{
		"order_id":     hc.OrderID,
		"checkout_url": link.String(),
	}).Info("Open the checkout link to pay")
	return nil
}
