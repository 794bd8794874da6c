package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ashendes/smart-dining/internal/apperr"
	"github.com/ashendes/smart-dining/internal/models"
	"github.com/ashendes/smart-dining/internal/notice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedAPI struct {
	mu    sync.Mutex
	resp  *models.VerifyPaymentResponse
	err   error
	calls int
}

func (s *scriptedAPI) set(resp *models.VerifyPaymentResponse, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resp, s.err = resp, err
}

func (s *scriptedAPI) VerifyPayment(context.Context, string) (*models.VerifyPaymentResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := *s.resp
	return &out, nil
}

type countingCart struct {
	mu     sync.Mutex
	clears int
	err    error
}

func (c *countingCart) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clears++
	return c.err
}

func (c *countingCart) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clears
}

type recordingNav struct {
	mu      sync.Mutex
	targets []string
}

func (n *recordingNav) ToFeedback(orderID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.targets = append(n.targets, orderID)
}

func (n *recordingNav) visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.targets...)
}

func newTestReconciler(api StatusAPI) (*Reconciler, *countingCart, *recordingNav, *notice.Board) {
	cart := &countingCart{}
	nav := &recordingNav{}
	board := notice.NewBoard(time.Minute)
	return NewReconciler(api, cart, nav, board), cart, nav, board
}

func TestVerify_PaidIsIdempotent(t *testing.T) {
	api := &scriptedAPI{resp: &models.VerifyPaymentResponse{Success: true, IsPaid: true}}
	rec, cart, nav, _ := newTestReconciler(api)
	rec.Track("X")

	var cancelled bool
	rec.Register("X", func() { cancelled = true })

	status, err := rec.Verify(context.Background(), "X", ChannelRedirect)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, status)
	assert.True(t, cancelled)

	status, err = rec.Verify(context.Background(), "X", ChannelPoll)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, status)

	assert.Equal(t, 1, cart.count())
	assert.Equal(t, []string{"X"}, nav.visited())
	assert.Equal(t, 1, api.calls, "resolved orders are not probed again")
}

func TestVerify_ConcurrentPaid(t *testing.T) {
	api := &scriptedAPI{resp: &models.VerifyPaymentResponse{Success: true, IsPaid: true}}
	rec, cart, nav, _ := newTestReconciler(api)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			channel := ChannelPoll
			if i%2 == 0 {
				channel = ChannelRedirect
			}
			_, _ = rec.Verify(context.Background(), "X", channel)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, cart.count())
	assert.Equal(t, []string{"X"}, nav.visited())
}

func TestVerify_Pending(t *testing.T) {
	api := &scriptedAPI{resp: &models.VerifyPaymentResponse{Success: true, IsPaid: false}}
	rec, cart, nav, board := newTestReconciler(api)
	rec.Track("X")

	status, err := rec.Verify(context.Background(), "X", ChannelPoll)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, status)
	assert.Equal(t, 0, cart.count())
	assert.Empty(t, nav.visited())

	n, ok := board.Current()
	require.True(t, ok)
	assert.Equal(t, notice.KindPending, n.Kind)
	assert.Equal(t, NotConfirmedMessage, n.Text)
}

func TestVerify_PendingNoticeNotRepeatedByPolling(t *testing.T) {
	api := &scriptedAPI{resp: &models.VerifyPaymentResponse{Success: true, IsPaid: false}}
	rec, _, _, board := newTestReconciler(api)
	rec.Track("X")

	_, err := rec.Verify(context.Background(), "X", ChannelPoll)
	require.NoError(t, err)
	_, ok := board.Current()
	require.True(t, ok)
	board.Dismiss()

	for i := 0; i < 3; i++ {
		status, err := rec.Verify(context.Background(), "X", ChannelPoll)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPending, status)
	}
	_, ok = board.Current()
	assert.False(t, ok, "later poll ticks leave the dismissed banner alone")

	_, err = rec.Verify(context.Background(), "X", ChannelRedirect)
	require.NoError(t, err)
	n, ok := board.Current()
	require.True(t, ok, "a redirect return shows the pending notice again")
	assert.Equal(t, notice.KindPending, n.Kind)
	assert.Equal(t, 5, api.calls)
}

func TestVerify_RejectionStopsPolling(t *testing.T) {
	tests := []struct {
		name    string
		resp    *models.VerifyPaymentResponse
		err     error
		message string
	}{
		{
			name:    "success false body",
			resp:    &models.VerifyPaymentResponse{Success: false, Message: "Payment declined"},
			message: "Payment declined",
		},
		{
			name:    "4xx answer",
			err:     &apperr.RejectionError{Op: "verify payment", StatusCode: 404, Message: "Order not found or unauthorized"},
			message: "Order not found or unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &scriptedAPI{resp: tt.resp, err: tt.err}
			rec, cart, nav, board := newTestReconciler(api)
			rec.Track("X")

			var cancelled bool
			rec.Register("X", func() { cancelled = true })

			status, err := rec.Verify(context.Background(), "X", ChannelPoll)
			require.Error(t, err)
			assert.Equal(t, models.OrderStatusFailed, status)
			assert.Equal(t, tt.message, apperr.Message(err))
			assert.True(t, cancelled)
			assert.Equal(t, 0, cart.count())
			assert.Empty(t, nav.visited())

			n, ok := board.Current()
			require.True(t, ok)
			assert.Equal(t, notice.KindError, n.Kind)
			assert.Equal(t, tt.message, n.Text)
		})
	}
}

func TestVerify_TransientKeepsPolling(t *testing.T) {
	api := &scriptedAPI{err: &apperr.TransientError{Op: "verify payment", Err: errors.New("connection reset")}}
	rec, cart, _, board := newTestReconciler(api)
	rec.Track("X")

	var cancelled bool
	rec.Register("X", func() { cancelled = true })

	status, err := rec.Verify(context.Background(), "X", ChannelPoll)
	require.Error(t, err)
	assert.True(t, apperr.IsTransient(err))
	assert.Equal(t, models.OrderStatusPending, status)
	assert.False(t, cancelled)
	assert.Equal(t, 0, cart.count())

	_, shown := board.Current()
	assert.False(t, shown, "poll failures are only logged")

	_, err = rec.Verify(context.Background(), "X", ChannelRedirect)
	require.Error(t, err)
	n, shown := board.Current()
	require.True(t, shown)
	assert.Equal(t, notice.KindError, n.Kind)

	// a later paid answer still resolves the order
	api.set(&models.VerifyPaymentResponse{Success: true, IsPaid: true}, nil)
	status, err = rec.Verify(context.Background(), "X", ChannelPoll)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, status)
}

func TestVerify_CartClearFailureStillNavigates(t *testing.T) {
	api := &scriptedAPI{resp: &models.VerifyPaymentResponse{Success: true, IsPaid: true}}
	rec, cart, nav, board := newTestReconciler(api)
	cart.err = errors.New("disk full")

	status, err := rec.Verify(context.Background(), "X", ChannelRedirect)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, status)
	assert.Equal(t, []string{"X"}, nav.visited())

	n, ok := board.Current()
	require.True(t, ok)
	assert.Equal(t, "disk full", n.Text)
}

func TestExpire(t *testing.T) {
	api := &scriptedAPI{resp: &models.VerifyPaymentResponse{Success: true, IsPaid: true}}
	rec, _, _, board := newTestReconciler(api)

	rec.Track("X")
	rec.Expire("X")
	assert.Equal(t, models.OrderStatusUnknown, rec.Status("X"))
	n, ok := board.Current()
	require.True(t, ok)
	assert.Equal(t, notice.KindUnresolved, n.Kind)

	// paid orders stay paid
	_, err := rec.Verify(context.Background(), "Y", ChannelRedirect)
	require.NoError(t, err)
	rec.Expire("Y")
	assert.Equal(t, models.OrderStatusPaid, rec.Status("Y"))

	assert.Equal(t, models.OrderStatusUnknown, rec.Status("never-seen"))
}
