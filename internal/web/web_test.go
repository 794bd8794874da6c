package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/ashendes/smart-dining/internal/backend"
	"github.com/ashendes/smart-dining/internal/cart"
	"github.com/ashendes/smart-dining/internal/clock"
	"github.com/ashendes/smart-dining/internal/feedback"
	"github.com/ashendes/smart-dining/internal/mockbackend"
	"github.com/ashendes/smart-dining/internal/models"
	"github.com/ashendes/smart-dining/internal/notice"
	"github.com/ashendes/smart-dining/internal/otp"
	"github.com/ashendes/smart-dining/internal/owner"
	"github.com/ashendes/smart-dining/internal/payment"
	"github.com/ashendes/smart-dining/internal/reservation"
	"github.com/ashendes/smart-dining/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const guestPhone = "9876543210"

// settleCheckout marks the order with outcome directly on the mock backend
type settleCheckout struct {
	mock    *mockbackend.Backend
	outcome string
}

func (s settleCheckout) Checkout(_ context.Context, hc payment.HostedCheckout) error {
	if s.outcome == "" {
		return nil
	}
	return s.mock.SetOrderStatus(hc.OrderID, s.outcome)
}

type testApp struct {
	mock   *mockbackend.Backend
	kv     *session.MemoryStore
	clock  *clock.Manual
	router *gin.Engine
	app    *App
}

func newTestApp(t *testing.T, outcome string, admin bool) *testApp {
	t.Helper()

	mock := mockbackend.New()
	srv := httptest.NewServer(mock.Router())
	t.Cleanup(srv.Close)

	kv := session.NewMemoryStore()
	sess := session.NewContext(kv)
	email := "guest@example.com"
	if admin {
		email = "owner@example.com"
		mock.AddUser(email, "secret", true)
	}
	require.NoError(t, sess.SetToken(mock.IssueToken(email)))

	api := backend.New(srv.URL+"/api", sess, backend.WithTimeout(2*time.Second))
	store, err := cart.New(kv)
	require.NoError(t, err)

	board := notice.NewBoard(time.Minute)
	nav := NewNavigator()
	rec := payment.NewReconciler(api, store, nav, board)
	payments := payment.NewController(payment.Params{
		API:           api,
		Cart:          store,
		Checkout:      settleCheckout{mock: mock, outcome: outcome},
		Reconciler:    rec,
		Notices:       board,
		CustomerPhone: guestPhone,
		ReturnURLBase: "http://localhost:8080",
		PollInterval:  time.Hour,
		PollWindow:    2 * time.Hour,
	})
	t.Cleanup(payments.Close)

	challenge := otp.NewController(api)
	clk := clock.NewManual(time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local))
	app := NewApp(Deps{
		Backend:    api,
		Cart:       store,
		Payments:   payments,
		Reconciler: rec,
		Navigator:  nav,
		Notices:    board,
		Tables:     reservation.NewCoordinator(api, challenge),
		OTP:        challenge,
		Owner:      owner.NewDashboard(api, owner.NewClearedSinceFilter(api, kv, clk)),
		Feedback:   feedback.NewCollector(api),
	})

	return &testApp{mock: mock, kv: kv, clock: clk, router: app.Router(), app: app}
}

func (ta *testApp) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ta.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
}

type payResult struct {
	Success bool               `json:"success"`
	OrderID string             `json:"order_id"`
	Amount  decimal.Decimal    `json:"amount"`
	Status  models.OrderStatus `json:"status"`
}

func (ta *testApp) pay(t *testing.T) payResult {
	t.Helper()
	w := ta.do(t, http.MethodPost, "/pay", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res payResult
	decode(t, w, &res)
	require.NotEmpty(t, res.OrderID)
	return res
}

func TestHealth(t *testing.T) {
	ta := newTestApp(t, "", false)

	w := ta.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ta.do(t, http.MethodGet, "/circuit-status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Circuits map[string]string `json:"circuits"`
	}
	decode(t, w, &body)
	assert.Equal(t, "closed", body.Circuits[backend.GroupPayment])
}

func TestCart(t *testing.T) {
	ta := newTestApp(t, "", false)

	w := ta.do(t, http.MethodPost, "/cart/items", gin.H{"id": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = ta.do(t, http.MethodPost, "/cart/items/2/increase", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view cartView
	decode(t, w, &view)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.Equal(t, 2, view.ItemCount)
	assert.True(t, decimal.NewFromInt(300).Equal(view.Total), view.Total.String())

	t.Run("unknown food item", func(t *testing.T) {
		w := ta.do(t, http.MethodPost, "/cart/items", gin.H{"id": 99})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown line", func(t *testing.T) {
		w := ta.do(t, http.MethodPost, "/cart/items/4/decrease", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		w := ta.do(t, http.MethodDelete, "/cart/items/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	w = ta.do(t, http.MethodDelete, "/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &view)
	assert.Empty(t, view.Items)
	assert.True(t, view.Total.IsZero())
}

func TestPay_EmptyCart(t *testing.T) {
	ta := newTestApp(t, models.OrderRecordPaid, false)

	w := ta.do(t, http.MethodPost, "/pay", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body models.ErrorResponse
	decode(t, w, &body)
	assert.Equal(t, "Your cart is empty", body.Message)
	assert.Empty(t, ta.mock.Orders())
}

func TestOrderSummary_PaidRedirectsToFeedback(t *testing.T) {
	ta := newTestApp(t, models.OrderRecordPaid, false)
	require.Equal(t, http.StatusOK, ta.do(t, http.MethodPost, "/cart/items", gin.H{"id": 1}).Code)

	res := ta.pay(t)
	assert.True(t, decimal.NewFromInt(80).Equal(res.Amount))

	w := ta.do(t, http.MethodGet, "/order-summary?order_id="+res.OrderID, nil)
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, FeedbackPath(res.OrderID), w.Header().Get("Location"))

	_, ok, err := ta.kv.Get(session.KeyCart)
	require.NoError(t, err)
	assert.False(t, ok, "paid order clears the persisted cart")

	var view cartView
	decode(t, ta.do(t, http.MethodGet, "/cart", nil), &view)
	assert.Empty(t, view.Items)

	var status orderStatusView
	decode(t, ta.do(t, http.MethodGet, "/payment/status/"+res.OrderID, nil), &status)
	assert.Equal(t, models.OrderStatusPaid, status.Status)

	// A second return for the same order has nothing left to do
	w = ta.do(t, http.MethodGet, "/order-summary?order_id="+res.OrderID, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	t.Run("feedback", func(t *testing.T) {
		w := ta.do(t, http.MethodPost, "/feedback/"+res.OrderID, gin.H{"rating": 5, "feedback": "Great"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = ta.do(t, http.MethodPost, "/feedback/"+res.OrderID, gin.H{"rating": 4})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = ta.do(t, http.MethodPost, "/feedback/"+res.OrderID, gin.H{"rating": 9})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPaymentStatus_PollConfirmedHandsOverNavigation(t *testing.T) {
	ta := newTestApp(t, models.OrderRecordPaid, false)
	require.Equal(t, http.StatusOK, ta.do(t, http.MethodPost, "/cart/items", gin.H{"id": 1}).Code)
	res := ta.pay(t)

	// the poller wins; the browser never returns to the order summary
	status, err := ta.app.Reconciler.Verify(context.Background(), res.OrderID, payment.ChannelPoll)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusPaid, status)

	var view orderStatusView
	decode(t, ta.do(t, http.MethodGet, "/payment/status/"+res.OrderID, nil), &view)
	assert.Equal(t, models.OrderStatusPaid, view.Status)
	assert.Equal(t, FeedbackPath(res.OrderID), view.Next)
	assert.Empty(t, ta.app.Navigator.pending)

	view = orderStatusView{}
	decode(t, ta.do(t, http.MethodGet, "/payment/status/"+res.OrderID, nil), &view)
	assert.Empty(t, view.Next, "navigation is handed over once")
}

func TestNavigator(t *testing.T) {
	nav := NewNavigator()
	nav.ToFeedback("A")
	nav.ToFeedback("A")
	nav.ToFeedback("B")

	target, ok := nav.Take("A")
	require.True(t, ok)
	assert.Equal(t, "/feedback/A", target)
	_, ok = nav.Take("A")
	assert.False(t, ok)

	for i := 0; i < maxPendingNavigations+10; i++ {
		nav.ToFeedback("ORDER_" + strconv.Itoa(i))
	}
	assert.Len(t, nav.pending, maxPendingNavigations)
	assert.Len(t, nav.order, maxPendingNavigations)
	_, ok = nav.Take("B")
	assert.False(t, ok, "oldest targets are dropped first")
	_, ok = nav.Take("ORDER_" + strconv.Itoa(maxPendingNavigations+9))
	assert.True(t, ok)
}

func TestFeedbackPageConsumesNavigation(t *testing.T) {
	ta := newTestApp(t, "", false)
	ta.app.Navigator.ToFeedback("ORDER_X")

	w := ta.do(t, http.MethodGet, "/feedback/ORDER_X", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, ta.app.Navigator.pending)
}

func TestOrderSummary_PendingShowsNotice(t *testing.T) {
	ta := newTestApp(t, "", false)
	require.Equal(t, http.StatusOK, ta.do(t, http.MethodPost, "/cart/items", gin.H{"id": 3}).Code)
	res := ta.pay(t)

	w := ta.do(t, http.MethodGet, "/order-summary?order_id="+res.OrderID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status orderStatusView
	decode(t, w, &status)
	assert.Equal(t, models.OrderStatusPending, status.Status)
	assert.Equal(t, payment.NotConfirmedMessage, status.Message)

	var view cartView
	decode(t, ta.do(t, http.MethodGet, "/cart", nil), &view)
	assert.Len(t, view.Items, 1, "cart survives until the order is paid")

	w = ta.do(t, http.MethodGet, "/notice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var n notice.Notice
	decode(t, w, &n)
	assert.Equal(t, notice.KindPending, n.Kind)

	assert.Equal(t, http.StatusNoContent, ta.do(t, http.MethodDelete, "/notice", nil).Code)
	assert.Equal(t, http.StatusNoContent, ta.do(t, http.MethodGet, "/notice", nil).Code)
}

func TestOrderSummary_Declined(t *testing.T) {
	ta := newTestApp(t, models.OrderRecordFailed, false)
	require.Equal(t, http.StatusOK, ta.do(t, http.MethodPost, "/cart/items", gin.H{"id": 1}).Code)
	res := ta.pay(t)

	w := ta.do(t, http.MethodGet, "/order-summary?order_id="+res.OrderID, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var status orderStatusView
	decode(t, ta.do(t, http.MethodGet, "/payment/status/"+res.OrderID, nil), &status)
	assert.Equal(t, models.OrderStatusFailed, status.Status)
}

func TestOrderSummary_WithoutOrderShowsCart(t *testing.T) {
	ta := newTestApp(t, "", false)

	w := ta.do(t, http.MethodGet, "/order-summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view cartView
	decode(t, w, &view)
	assert.Empty(t, view.Items)
}

func TestBackendOutage(t *testing.T) {
	ta := newTestApp(t, "", false)
	ta.mock.SetFailureRate(1)
	ta.mock.SetChaos(true)
	defer ta.mock.SetChaos(false)

	w := ta.do(t, http.MethodGet, "/menu", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReserveTable(t *testing.T) {
	ta := newTestApp(t, "", false)

	w := ta.do(t, http.MethodGet, "/tables", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tables models.TablesResponse
	decode(t, w, &tables)
	require.Len(t, tables, models.MaxTableNumber)
	assert.Equal(t, models.TableAvailable, tables["3"])

	w = ta.do(t, http.MethodPost, "/tables/3/select", gin.H{"name": "Asha", "phone_number": guestPhone})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var selected struct {
		OTPSent  bool   `json:"otp_sent"`
		OTPState string `json:"otp_state"`
	}
	decode(t, w, &selected)
	assert.True(t, selected.OTPSent)
	assert.Equal(t, otp.OtpSent.String(), selected.OTPState)

	// Selecting while a challenge is open does nothing
	w = ta.do(t, http.MethodPost, "/tables/4/select", gin.H{"name": "Asha", "phone_number": guestPhone})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &selected)
	assert.False(t, selected.OTPSent)

	w = ta.do(t, http.MethodPost, "/otp/verify", gin.H{"phone_number": guestPhone, "otp": "not-it"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	code, ok := ta.mock.LastOTP(guestPhone)
	require.True(t, ok)
	w = ta.do(t, http.MethodPost, "/otp/verify", gin.H{"phone_number": guestPhone, "otp": code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, ta.mock.Reserved(3))

	decode(t, ta.do(t, http.MethodGet, "/tables", nil), &tables)
	assert.Equal(t, models.TableReserved, tables["3"])

	t.Run("reserved table is not selectable", func(t *testing.T) {
		w := ta.do(t, http.MethodPost, "/tables/3/select", gin.H{"name": "Ravi", "phone_number": "9123456780"})
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &selected)
		assert.False(t, selected.OTPSent)
	})

	t.Run("invalid phone", func(t *testing.T) {
		w := ta.do(t, http.MethodPost, "/tables/5/select", gin.H{"name": "Ravi", "phone_number": "12345"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no active challenge", func(t *testing.T) {
		w := ta.do(t, http.MethodPost, "/otp/resend", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestOwnerOrders(t *testing.T) {
	ta := newTestApp(t, "", true)

	type ordersView struct {
		Orders []models.Order `json:"orders"`
	}
	orders := func() []models.Order {
		w := ta.do(t, http.MethodGet, "/owner/orders", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var v ordersView
		decode(t, w, &v)
		return v.Orders
	}

	ta.mock.AddOrder(models.Order{OrderID: "ORDER_OLD", Status: models.OrderRecordPaid,
		CreatedAt: models.Timestamp{Time: ta.clock.Now().Add(-time.Hour)}})
	assert.Empty(t, orders(), "first view of the day starts empty")

	ta.clock.Advance(time.Minute)
	ta.mock.AddOrder(models.Order{OrderID: "ORDER_NEW", Status: models.OrderRecordPaid,
		CreatedAt: models.Timestamp{Time: ta.clock.Now()}})
	got := orders()
	require.Len(t, got, 1)
	assert.Equal(t, "ORDER_NEW", got[0].OrderID)

	ta.clock.Advance(time.Minute)
	w := ta.do(t, http.MethodPost, "/owner/orders/clear", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, orders())

	w = ta.do(t, http.MethodPost, "/owner/orders/restore", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var restored ordersView
	decode(t, w, &restored)
	assert.Len(t, restored.Orders, 2)
}

func TestOwnerCatalogAndTables(t *testing.T) {
	ta := newTestApp(t, "", true)

	w := ta.do(t, http.MethodPost, "/owner/food-items", gin.H{
		"name": "Idli", "price": 40, "image_url": "https://images.example.com/idli.jpg",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ta.do(t, http.MethodPost, "/owner/food-items", gin.H{
		"name": "Vada", "price": 30, "image_url": "not a url",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var items []models.FoodItem
	decode(t, ta.do(t, http.MethodGet, "/owner/food-items", nil), &items)
	require.Len(t, items, 5)
	idli := items[4]
	assert.Equal(t, "Idli", idli.Name)

	w = ta.do(t, http.MethodDelete, "/owner/food-items/"+strconv.Itoa(idli.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	ta.mock.AddReservation(models.Reservation{TableNumber: 2, UserName: "Asha", PhoneNumber: guestPhone})
	var reservations []models.Reservation
	decode(t, ta.do(t, http.MethodGet, "/owner/reservations", nil), &reservations)
	require.Len(t, reservations, 1)

	w = ta.do(t, http.MethodPost, "/owner/tables/2/unreserve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, ta.mock.Reserved(2))

	w = ta.do(t, http.MethodPost, "/owner/tables/2/unreserve", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "server rejection is passed through")

	w = ta.do(t, http.MethodPost, "/owner/tables/9/unreserve", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuth(t *testing.T) {
	ta := newTestApp(t, "", false)
	ta.mock.AddUser("new@example.com", "", false)

	w := ta.do(t, http.MethodPost, "/auth/signup", gin.H{"email": "new@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ta.do(t, http.MethodPost, "/auth/login", gin.H{"email": "new@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ta.do(t, http.MethodPost, "/auth/login", gin.H{"email": "new@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ta.do(t, http.MethodPost, "/auth/login", gin.H{"email": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ta.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	token, ok, err := ta.kv.Get(session.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok && token != "")
}
