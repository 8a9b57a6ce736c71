package order

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/your-org/pouchprint-backend/internal/config"
	"github.com/your-org/pouchprint-backend/internal/domain/checkout"
)

type stubPricer struct {
	summary *checkout.CheckoutSummary
}

func (p stubPricer) Summary(context.Context, *uint, string, *checkout.SummaryRequest) (*checkout.CheckoutSummary, error) {
	return p.summary, nil
}

type recordingCarts struct {
	userCleared   []uint
	inTransaction bool
	guestCleared  []string
	failUserClear error
}

func (c *recordingCarts) ClearUserCart(tx *gorm.DB, userID uint) error {
	if c.failUserClear != nil {
		return c.failUserClear
	}
	c.userCleared = append(c.userCleared, userID)
	// a transaction handle carries its own committer
	_, c.inTransaction = tx.Statement.ConnPool.(gorm.TxCommitter)
	return nil
}

func (c *recordingCarts) ClearCart(_ context.Context, _ *uint, sessionID string) error {
	c.guestCleared = append(c.guestCleared, sessionID)
	return nil
}

type recordingNotifier struct {
	sent []string
}

func (n *recordingNotifier) SendOrderConfirmation(_ context.Context, o *Order) error {
	n.sent = append(n.sent, o.OrderNumber)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&Order{}, &OrderItem{}, &Payment{}, &OrderStatusHistory{}))
	return db
}

func newTestOrderService(t *testing.T, pricer Pricer) (*Service, *gorm.DB, *recordingCarts, *recordingNotifier) {
	t.Helper()
	db := newTestDB(t)
	carts := &recordingCarts{}
	notifier := &recordingNotifier{}
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewService(db, &config.Config{}, pricer, carts, notifier, log), db, carts, notifier
}

func seedOrder(t *testing.T, db *gorm.DB, number string, o *Order) *Order {
	t.Helper()
	o.OrderNumber = number
	o.Email = "buyer@example.com"
	o.Currency = "INR"
	require.NoError(t, db.Create(o).Error)
	return o
}

func TestRecordPayment_ReplayIsNoOp(t *testing.T) {
	s, db, _, notifier := newTestOrderService(t, nil)
	ctx := context.Background()
	seeded := seedOrder(t, db, "PP-20260301-00001", partialOrder())

	rec := PaymentRecord{
		Method:            "upi",
		ProviderOrderID:   "order_adv",
		ProviderPaymentID: "pay_adv",
		Amount:            d("6716.01"),
	}

	first, err := s.RecordPayment(ctx, seeded.ID, rec)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusConfirmed, first.Status)
	assert.Equal(t, PaymentStatusPartiallyPaid, first.PaymentStatus)
	assert.True(t, first.AmountPaid.Equal(d("6716.01")), first.AmountPaid.String())
	assert.True(t, first.AmountDue.Equal(d("6716")), first.AmountDue.String())
	require.Len(t, first.Payments, 1)
	assert.Equal(t, "advance", first.Payments[0].Installment)
	assert.Equal(t, []string{"PP-20260301-00001"}, notifier.sent)

	replay, err := s.RecordPayment(ctx, seeded.ID, rec)
	require.NoError(t, err)
	assert.Len(t, replay.Payments, 1)
	assert.True(t, replay.AmountPaid.Equal(first.AmountPaid))
	assert.True(t, replay.AmountDue.Equal(first.AmountDue))
	assert.Len(t, replay.StatusHistory, len(first.StatusHistory))
	assert.Len(t, notifier.sent, 1)

	var payments int64
	require.NoError(t, db.Model(&Payment{}).Count(&payments).Error)
	assert.Equal(t, int64(1), payments)
}

func TestRecordPayment_AdvanceThenBalance(t *testing.T) {
	s, db, _, notifier := newTestOrderService(t, nil)
	ctx := context.Background()
	seeded := seedOrder(t, db, "PP-20260301-00002", partialOrder())

	_, err := s.RecordPayment(ctx, seeded.ID, PaymentRecord{Method: "upi", ProviderPaymentID: "pay_1", Amount: d("6716.01")})
	require.NoError(t, err)

	paid, err := s.RecordPayment(ctx, seeded.ID, PaymentRecord{Method: "card", ProviderPaymentID: "pay_2", Amount: d("6716")})
	require.NoError(t, err)

	assert.Equal(t, PaymentStatusPaid, paid.PaymentStatus)
	assert.True(t, paid.IsFullyPaid())
	assert.True(t, paid.AmountPaid.Equal(paid.TotalAmount))
	require.Len(t, paid.Payments, 2)
	assert.Equal(t, "balance", paid.Payments[1].Installment)
	// confirmation goes out once, on the advance
	assert.Len(t, notifier.sent, 1)

	_, err = s.RecordPayment(ctx, seeded.ID, PaymentRecord{Method: "card", ProviderPaymentID: "pay_3", Amount: d("1")})
	assert.True(t, errors.Is(err, ErrOrderNotPayable))
}

func TestRecordPayment_Rejections(t *testing.T) {
	s, db, _, _ := newTestOrderService(t, nil)
	ctx := context.Background()

	open := seedOrder(t, db, "PP-20260301-00003", partialOrder())
	cancelled := partialOrder()
	cancelled.Status = OrderStatusCancelled
	cancelled = seedOrder(t, db, "PP-20260301-00004", cancelled)

	_, err := s.RecordPayment(ctx, open.ID, PaymentRecord{ProviderPaymentID: "pay_short", Amount: d("100")})
	assert.True(t, errors.Is(err, ErrPaymentAmountMismatch))

	_, err = s.RecordPayment(ctx, cancelled.ID, PaymentRecord{ProviderPaymentID: "pay_late", Amount: d("6716.01")})
	assert.True(t, errors.Is(err, ErrOrderNotPayable))

	_, err = s.RecordPayment(ctx, 999, PaymentRecord{ProviderPaymentID: "pay_ghost", Amount: d("1")})
	assert.True(t, errors.Is(err, ErrOrderNotFound))

	var payments int64
	require.NoError(t, db.Model(&Payment{}).Count(&payments).Error)
	assert.Zero(t, payments)
}

func TestCancelStaleOrders(t *testing.T) {
	s, db, _, _ := newTestOrderService(t, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	stale := partialOrder()
	stale.CreatedAt = now.Add(-72 * time.Hour)
	stale = seedOrder(t, db, "PP-20260301-00005", stale)

	fresh := partialOrder()
	fresh.CreatedAt = now.Add(-time.Hour)
	fresh = seedOrder(t, db, "PP-20260301-00006", fresh)

	advancePaid := partialOrder()
	advancePaid.CreatedAt = now.Add(-72 * time.Hour)
	advancePaid.ApplyPayment(d("6716.01"), now.Add(-70*time.Hour))
	advancePaid = seedOrder(t, db, "PP-20260301-00007", advancePaid)

	n, err := s.CancelStaleOrders(ctx, 48*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.GetOrder(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, got.Status)
	assert.Equal(t, PaymentStatusCancelled, got.PaymentStatus)
	require.NotNil(t, got.CancelledAt)
	require.NotEmpty(t, got.StatusHistory)
	assert.Equal(t, "Order cancelled: Payment not received", got.StatusHistory[0].Comment)

	got, err = s.GetOrder(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusPending, got.Status)

	got, err = s.GetOrder(ctx, advancePaid.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusConfirmed, got.Status)

	n, err = s.CancelStaleOrders(ctx, 48*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateOrder_PersistsAndClearsCart(t *testing.T) {
	s, _, carts, _ := newTestOrderService(t, stubPricer{summary: testSummary()})
	ctx := context.Background()
	userID := uint(42)

	created, err := s.CreateOrder(ctx, &userID, "", testRequest())
	require.NoError(t, err)

	assert.Regexp(t, `^PP-\d{8}-00001$`, created.OrderNumber)
	require.NotNil(t, created.UserID)
	assert.Equal(t, userID, *created.UserID)
	assert.Equal(t, OrderStatusPending, created.Status)
	assert.True(t, created.TotalAmount.Equal(d("13086.8")), created.TotalAmount.String())
	assert.True(t, created.AdvanceAmount.Equal(d("6543.4")), created.AdvanceAmount.String())
	assert.Equal(t, "PRINT10", created.CouponCode)

	require.Len(t, created.Items, 1)
	item := created.Items[0]
	assert.Equal(t, 3000, item.Quantity)
	assert.True(t, item.UnitPrice.Equal(d("3.8")))
	assert.True(t, item.LineTotal.Equal(d("11400")))
	assert.Equal(t, "25 G", item.Customization.Capacity)

	require.Len(t, created.StatusHistory, 1)
	assert.Equal(t, OrderStatusPending, created.StatusHistory[0].Status)

	assert.Equal(t, []uint{42}, carts.userCleared)
	assert.True(t, carts.inTransaction)
	assert.Empty(t, carts.guestCleared)
}

func TestCreateOrder_GuestClearsSessionCart(t *testing.T) {
	s, _, carts, _ := newTestOrderService(t, stubPricer{summary: testSummary()})

	created, err := s.CreateOrder(context.Background(), nil, "sess-9", testRequest())
	require.NoError(t, err)

	assert.Nil(t, created.UserID)
	assert.Equal(t, "buyer@example.com", created.Email)
	assert.Equal(t, []string{"sess-9"}, carts.guestCleared)
	assert.Empty(t, carts.userCleared)
}

func TestCreateOrder_CartClearFailureRollsBack(t *testing.T) {
	s, db, carts, _ := newTestOrderService(t, stubPricer{summary: testSummary()})
	carts.failUserClear = errors.New("cart store unavailable")
	userID := uint(42)

	_, err := s.CreateOrder(context.Background(), &userID, "", testRequest())
	require.Error(t, err)

	var orders, items, history int64
	require.NoError(t, db.Model(&Order{}).Count(&orders).Error)
	require.NoError(t, db.Model(&OrderItem{}).Count(&items).Error)
	require.NoError(t, db.Model(&OrderStatusHistory{}).Count(&history).Error)
	assert.Zero(t, orders)
	assert.Zero(t, items)
	assert.Zero(t, history)
}
