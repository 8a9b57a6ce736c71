package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/pouchprint-backend/internal/domain/analytics"
	"github.com/your-org/pouchprint-backend/internal/domain/cart"
	"github.com/your-org/pouchprint-backend/internal/domain/order"
	"github.com/your-org/pouchprint-backend/internal/domain/payment"
	"github.com/your-org/pouchprint-backend/internal/domain/pricing"
	"github.com/your-org/pouchprint-backend/internal/domain/product"
	"github.com/your-org/pouchprint-backend/internal/interfaces/http/middleware"
	"github.com/your-org/pouchprint-backend/internal/pkg/pdf"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func do(r http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// asUser authenticates every request as userID
func asUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Next()
	}
}

type fakeProducts struct {
	bySlug map[string]*product.Product
}

func (f *fakeProducts) GetProduct(_ context.Context, id uint) (*product.Product, error) {
	for _, p := range f.bySlug {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, product.ErrProductNotFound
}

func (f *fakeProducts) GetProductBySlug(_ context.Context, slug string) (*product.Product, error) {
	if p, ok := f.bySlug[slug]; ok && p.IsActive {
		return p, nil
	}
	return nil, product.ErrProductNotFound
}

func newPricingRouter() *gin.Engine {
	products := &fakeProducts{bySlug: map[string]*product.Product{
		"agarbatti-pouches": {ID: 1, Name: "Agarbatti Pouches", Slug: "agarbatti-pouches", Price: decimal.RequireFromString("6"), IsActive: true},
		"kraft-box":         {ID: 2, Name: "Kraft Box", Slug: "kraft-box", Price: decimal.RequireFromString("12.5"), MinOrderQty: 100, IsActive: true},
		"retired-box":       {ID: 3, Name: "Retired Box", Slug: "retired-box", Price: decimal.RequireFromString("9"), IsActive: false},
	}}

	r := gin.New()
	h := NewPricingHandler(products)
	r.POST("/pricing/quote", h.Quote)
	r.GET("/pricing/classify/:slug", h.Classify)
	return r
}

func TestPricingHandler_QuoteIncensePouch(t *testing.T) {
	r := newPricingRouter()

	w := do(r, http.MethodPost, "/pricing/quote", gin.H{
		"product_slug":  "agarbatti-pouches",
		"quantity":      3000,
		"customization": gin.H{"Capacity": "25 G", "Finish": "Gloss"},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got QuoteResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.Equal(t, uint(1), got.ProductID)
	assert.True(t, decimal.RequireFromString("3.80").Equal(got.Quote.UnitPrice), "unit price %s", got.Quote.UnitPrice)
	assert.True(t, decimal.RequireFromString("11400").Equal(got.Quote.LineTotal), "line total %s", got.Quote.LineTotal)
	assert.Equal(t, pricing.FamilyIncensePouch, got.Quote.Family)
	assert.Equal(t, 1000, got.MinimumQuantity)
	assert.False(t, got.BelowMinimum)
}

func TestPricingHandler_QuoteBelowMinimum(t *testing.T) {
	r := newPricingRouter()

	w := do(r, http.MethodPost, "/pricing/quote", gin.H{"product_id": 2, "quantity": 10}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got QuoteResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.Equal(t, 100, got.MinimumQuantity)
	assert.True(t, got.BelowMinimum)
	assert.True(t, decimal.RequireFromString("125").Equal(got.Quote.LineTotal))
}

func TestPricingHandler_QuoteErrors(t *testing.T) {
	r := newPricingRouter()

	tests := []struct {
		name   string
		body   gin.H
		status int
	}{
		{"no product reference", gin.H{"quantity": 10}, http.StatusBadRequest},
		{"negative quantity", gin.H{"product_id": 2, "quantity": -1}, http.StatusBadRequest},
		{"unknown slug", gin.H{"product_slug": "nope", "quantity": 10}, http.StatusNotFound},
		{"inactive product by id", gin.H{"product_id": 3, "quantity": 10}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/pricing/quote", tt.body, nil)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.NotEmpty(t, decode(t, w).Error)
		})
	}
}

func TestPricingHandler_Classify(t *testing.T) {
	r := newPricingRouter()

	w := do(r, http.MethodGet, "/pricing/classify/agarbatti-pouch-10-25g", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got ClassificationResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.True(t, got.Matched)
	require.NotNil(t, got.Classification)
	assert.Equal(t, pricing.FamilyIncensePouch, got.Classification.Family)
	assert.Equal(t, "10-25g", got.Classification.VariantKey)
	assert.NotEmpty(t, got.Variants)

	w = do(r, http.MethodGet, "/pricing/classify/kraft-box", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got = ClassificationResponse{}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.False(t, got.Matched)
	assert.Nil(t, got.Classification)
	assert.Empty(t, got.Variants)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{product.ErrProductNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", order.ErrOrderNotFound), http.StatusNotFound},
		{order.ErrInvalidTransition, http.StatusConflict},
		{payment.ErrNotOrderOwner, http.StatusForbidden},
		{payment.ErrPaymentNotPaid, http.StatusPaymentRequired},
		{cart.ErrInvalidQuantity, http.StatusBadRequest},
		{&payment.APIError{StatusCode: 500}, http.StatusBadGateway},
		{fmt.Errorf("failed to load order: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, statusFor(tt.err))
		})
	}
}

func TestRespondError_HidesInternalErrors(t *testing.T) {
	r := gin.New()
	var captured []*gin.Error
	r.GET("/fail", func(c *gin.Context) {
		respondError(c, errors.New("pq: connection refused"), "Failed to do the thing")
		captured = c.Errors
	})

	w := do(r, http.MethodGet, "/fail", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to do the thing", decode(t, w).Error)
	assert.Len(t, captured, 1)
}

func TestRespondError_AfterDeadline(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Timeout(20 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
		// stores often wrap driver errors without keeping the context error
		respondError(c, errors.New("pq: canceling statement due to user request"), "Failed to load orders")
	})
	r.GET("/mapped", func(c *gin.Context) {
		<-c.Request.Context().Done()
		respondError(c, order.ErrOrderNotFound, "Failed to load order")
	})

	w := do(r, http.MethodGet, "/slow", nil, nil)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "Request timeout", decode(t, w).Error)

	w = do(r, http.MethodGet, "/mapped", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type fakeCarts struct {
	sessions []string
	merged   string
}

func (f *fakeCarts) GetCart(_ context.Context, userID *uint, sessionID string) (*cart.CartResponse, error) {
	f.sessions = append(f.sessions, sessionID)
	return &cart.CartResponse{SessionID: sessionID, UserID: userID}, nil
}

func (f *fakeCarts) AddToCart(ctx context.Context, userID *uint, sessionID string, _ *cart.AddToCartRequest) (*cart.CartResponse, error) {
	return f.GetCart(ctx, userID, sessionID)
}

func (f *fakeCarts) UpdateCartItem(_ context.Context, _ *uint, _, _ string, _ *cart.UpdateCartItemRequest) (*cart.CartResponse, error) {
	return nil, cart.ErrItemNotFound
}

func (f *fakeCarts) RemoveFromCart(_ context.Context, _ *uint, _, _ string) (*cart.CartResponse, error) {
	return nil, cart.ErrItemNotFound
}

func (f *fakeCarts) ClearCart(context.Context, *uint, string) error { return nil }

func (f *fakeCarts) GetCartItemCount(context.Context, *uint, string) (int, error) { return 3, nil }

func (f *fakeCarts) MergeGuestCartToUser(_ context.Context, _ uint, sessionID string) error {
	f.merged = sessionID
	return nil
}

func TestCartHandler_SessionHandling(t *testing.T) {
	carts := &fakeCarts{}
	r := gin.New()
	h := NewCartHandler(carts)
	r.GET("/cart", h.GetCart)
	r.PUT("/cart/items/:line_id", h.UpdateCartItem)

	// no session: one is minted and echoed back
	w := do(r, http.MethodGet, "/cart", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	minted := w.Header().Get(middleware.SessionIDHeader)
	_, err := uuid.Parse(minted)
	require.NoError(t, err)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "session_id="+minted)

	// caller session is reused
	session := uuid.NewString()
	w = do(r, http.MethodGet, "/cart", nil, map[string]string{middleware.SessionIDHeader: session})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, session, w.Header().Get(middleware.SessionIDHeader))
	assert.Empty(t, w.Header().Get("Set-Cookie"))

	// garbage session IDs are replaced
	w = do(r, http.MethodGet, "/cart", nil, map[string]string{middleware.SessionIDHeader: "../../etc"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, "../../etc", w.Header().Get(middleware.SessionIDHeader))

	assert.Equal(t, []string{minted, session, w.Header().Get(middleware.SessionIDHeader)}, carts.sessions)

	w = do(r, http.MethodPut, "/cart/items/abc", gin.H{"quantity": 5}, map[string]string{middleware.SessionIDHeader: session})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartHandler_MergeRequiresUser(t *testing.T) {
	carts := &fakeCarts{}
	h := NewCartHandler(carts)

	r := gin.New()
	r.POST("/cart/merge", h.MergeGuestCart)
	w := do(r, http.MethodPost, "/cart/merge", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	session := uuid.NewString()
	r = gin.New()
	r.POST("/cart/merge", asUser(42), h.MergeGuestCart)
	w = do(r, http.MethodPost, "/cart/merge", nil, map[string]string{middleware.SessionIDHeader: session})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, session, carts.merged)
}

type fakePayments struct {
	webhookErr error
	body       []byte
	signature  string
	userID     *uint
}

func (f *fakePayments) CreatePaymentOrder(_ context.Context, userID *uint, orderID uint) (*payment.PaymentInitiationResponse, error) {
	f.userID = userID
	if orderID == 99 {
		return nil, order.ErrOrderNotFound
	}
	return &payment.PaymentInitiationResponse{RazorpayOrderID: "order_test", Amount: 380000, Currency: "INR"}, nil
}

func (f *fakePayments) VerifyPayment(_ context.Context, _ *uint, _ *payment.PaymentVerificationRequest) (*order.Order, error) {
	return nil, payment.ErrInvalidSignature
}

func (f *fakePayments) HandleWebhook(_ context.Context, body []byte, signature string) error {
	f.body = body
	f.signature = signature
	return f.webhookErr
}

func TestPaymentHandler_Webhook(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"processed", nil, http.StatusOK},
		{"bad signature", payment.ErrInvalidSignature, http.StatusBadRequest},
		{"database down", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := &fakePayments{webhookErr: tt.err}
			r := gin.New()
			r.POST("/webhooks/razorpay", NewPaymentHandler(payments).RazorpayWebhook)

			body := `{"event":"payment.captured"}`
			req := httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", bytes.NewBufferString(body))
			req.Header.Set(razorpaySignatureHeader, "sig123")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, body, string(payments.body))
			assert.Equal(t, "sig123", payments.signature)
		})
	}
}

func TestPaymentHandler_InitiateAndVerify(t *testing.T) {
	payments := &fakePayments{}
	h := NewPaymentHandler(payments)
	r := gin.New()
	r.POST("/payments/orders/:id", asUser(7), h.InitiatePayment)
	r.POST("/payments/verify", h.VerifyPayment)

	w := do(r, http.MethodPost, "/payments/orders/12", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, payments.userID)
	assert.Equal(t, uint(7), *payments.userID)

	var got payment.PaymentInitiationResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.Equal(t, int64(380000), got.Amount)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/payments/orders/99", nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/payments/orders/abc", nil, nil).Code)

	// missing fields fail binding
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/payments/verify", gin.H{}, nil).Code)

	w = do(r, http.MethodPost, "/payments/verify", gin.H{
		"razorpay_order_id":   "order_test",
		"razorpay_payment_id": "pay_test",
		"razorpay_signature":  "nope",
		"order_id":            12,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, payment.ErrInvalidSignature.Error(), decode(t, w).Error)
}

type fakeOrders struct {
	orders map[uint]*order.Order
}

func (f *fakeOrders) GetOrder(_ context.Context, id uint) (*order.Order, error) {
	if o, ok := f.orders[id]; ok {
		return o, nil
	}
	return nil, order.ErrOrderNotFound
}

func (f *fakeOrders) GetUserOrder(ctx context.Context, userID, orderID uint) (*order.Order, error) {
	o, err := f.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID == nil || *o.UserID != userID {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

type fakeInvoices struct{}

func (fakeInvoices) BuildInvoiceData(o *order.Order) pdf.InvoiceData {
	return pdf.InvoiceData{InvoiceNumber: "INV-" + o.OrderNumber, Order: o}
}

func (fakeInvoices) GenerateInvoice(*order.Order) (*bytes.Buffer, error) {
	return bytes.NewBufferString("%PDF-1.4"), nil
}

func TestInvoiceHandler(t *testing.T) {
	owner := uint(5)
	orders := &fakeOrders{orders: map[uint]*order.Order{
		1: {ID: 1, OrderNumber: "PP-20260101-00001", UserID: &owner},
	}}
	h := NewInvoiceHandler(orders, fakeInvoices{})

	t.Run("unauthenticated", func(t *testing.T) {
		r := gin.New()
		r.GET("/orders/:id/invoice", h.GenerateInvoice)
		assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/orders/1/invoice", nil, nil).Code)
	})

	t.Run("owner downloads pdf", func(t *testing.T) {
		r := gin.New()
		r.GET("/orders/:id/invoice", asUser(owner), h.GenerateInvoice)
		w := do(r, http.MethodGet, "/orders/1/invoice", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "invoice-PP-20260101-00001.pdf")
		assert.Equal(t, "%PDF-1.4", w.Body.String())
	})

	t.Run("someone else's order is not found", func(t *testing.T) {
		r := gin.New()
		r.GET("/orders/:id/invoice", asUser(6), h.GenerateInvoice)
		assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/orders/1/invoice", nil, nil).Code)
	})

	t.Run("missing order", func(t *testing.T) {
		r := gin.New()
		r.GET("/orders/:id/invoice", asUser(owner), h.GenerateInvoice)
		assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/orders/404/invoice", nil, nil).Code)
	})

	t.Run("invoice data", func(t *testing.T) {
		r := gin.New()
		r.GET("/orders/:id/invoice/data", asUser(owner), h.GetInvoiceData)
		w := do(r, http.MethodGet, "/orders/1/invoice/data", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got map[string]any
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
		assert.Equal(t, "INV-PP-20260101-00001", got["invoice_number"])
	})

	t.Run("admin reads any order", func(t *testing.T) {
		r := gin.New()
		r.GET("/admin/orders/:id/invoice", h.AdminGenerateInvoice)
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/admin/orders/1/invoice", nil, nil).Code)
	})
}

func TestOrderHandler_RequiresUser(t *testing.T) {
	h := NewOrderHandler(nil)
	r := gin.New()
	r.GET("/orders", h.GetOrders)
	r.GET("/orders/:id", h.GetOrder)
	r.PUT("/orders/:id/cancel", h.CancelOrder)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/orders", nil, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/orders/1", nil, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPut, "/orders/1/cancel", nil, nil).Code)
}

type fakeReports struct {
	days int
}

func (f *fakeReports) GetDashboardStats(context.Context) (*analytics.DashboardStats, error) {
	return &analytics.DashboardStats{
		BookedRevenue: decimal.RequireFromString("123456.5"),
		TotalOrders:   4,
	}, nil
}

func (f *fakeReports) GetSalesAnalytics(_ context.Context, days int) (*analytics.SalesAnalytics, error) {
	f.days = days
	return &analytics.SalesAnalytics{Days: days}, nil
}

func TestAnalyticsHandler(t *testing.T) {
	reports := &fakeReports{}
	h := NewAnalyticsHandler(reports)
	r := gin.New()
	r.GET("/admin/analytics/dashboard", h.GetDashboard)
	r.GET("/admin/analytics/sales", h.GetSales)

	w := do(r, http.MethodGet, "/admin/analytics/dashboard", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dashboard map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &dashboard))
	assert.Equal(t, "₹1,23,456.50", dashboard["booked_revenue"])

	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/admin/analytics/sales?days=7", nil, nil).Code)
	assert.Equal(t, 7, reports.days)

	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/admin/analytics/sales", nil, nil).Code)
	assert.Equal(t, 0, reports.days)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/admin/analytics/sales?days=abc", nil, nil).Code)
}
