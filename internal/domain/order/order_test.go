package order

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/pouchprint-backend/internal/domain/cart"
	"github.com/your-org/pouchprint-backend/internal/domain/checkout"
	"github.com/your-org/pouchprint-backend/internal/domain/pricing"
	"github.com/your-org/pouchprint-backend/internal/domain/product"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testSummary() *checkout.CheckoutSummary {
	p := &product.Product{ID: 7, SKU: "AGB-001", Name: "Agarbatti Pouch", Slug: "agarbatti-pouches"}
	return &checkout.CheckoutSummary{
		Cart: &cart.CartResponse{
			Items: []cart.CartItemResponse{{
				LineID:          "line-1",
				ProductID:       7,
				Quantity:        3000,
				Customization:   pricing.Customization{Capacity: "25 G", Finish: "Gloss"},
				Product:         p,
				MinimumQuantity: 1000,
				Quote: pricing.Quote{
					UnitPrice:  d("3.8"),
					LineTotal:  d("11400"),
					UnitWeight: d("4"),
					LineWeight: d("12000"),
					Family:     pricing.FamilyIncensePouch,
					VariantKey: "25g",
				},
			}},
		},
		ShippingMethod: checkout.ShippingMethod{ID: checkout.ShippingStandard, Carrier: "Delhivery"},
		Pricing: checkout.CheckoutPricing{
			Currency:       "INR",
			Subtotal:       d("11400"),
			ShippingCost:   d("980"),
			DiscountAmount: d("1140"),
			TaxAmount:      d("1846.8"),
			TotalAmount:    d("13086.8"),
			WeightGrams:    d("12000"),
		},
		AppliedCoupon: &checkout.CouponApplication{CouponCode: "PRINT10", Applied: true},
		PaymentPlan: checkout.PaymentPlan{
			Mode:    checkout.PaymentModePartial,
			Total:   d("13086.8"),
			Advance: d("6543.4"),
			Balance: d("6543.4"),
		},
	}
}

func testRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		Email: "buyer@example.com",
		ShippingAddress: Address{
			FirstName: "Asha", AddressLine1: "12 Market Road", City: "Pune",
			State: "MH", PostalCode: "411001", Country: "IN",
		},
		UseShippingAsBilling: true,
	}
}

func TestBuildOrder_SnapshotsSummary(t *testing.T) {
	o, err := BuildOrder(testSummary(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, OrderStatusPending, o.Status)
	assert.Equal(t, PaymentStatusPending, o.PaymentStatus)
	assert.Equal(t, checkout.PaymentModePartial, o.PaymentMode)
	assert.True(t, o.TotalAmount.Equal(d("13086.8")))
	assert.True(t, o.AmountDue.Equal(o.TotalAmount))
	assert.True(t, o.AdvanceAmount.Equal(d("6543.4")))
	assert.True(t, o.AmountPaid.IsZero())
	assert.Equal(t, "PRINT10", o.CouponCode)
	assert.Equal(t, "Pune", o.BillingAddress.City)

	require.Len(t, o.Items, 1)
	item := o.Items[0]
	assert.Equal(t, "AGB-001", item.SKU)
	assert.Equal(t, "25g", item.VariantKey)
	assert.True(t, item.UnitPrice.Equal(d("3.8")))
	assert.True(t, item.LineTotal.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))))
	assert.True(t, item.LineWeightGrams.Equal(d("12000")))
}

func TestBuildOrder_SeparateBillingAddress(t *testing.T) {
	req := testRequest()
	req.UseShippingAsBilling = false
	req.BillingAddress = &Address{FirstName: "Accounts", City: "Mumbai"}

	o, err := BuildOrder(testSummary(), req)
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", o.BillingAddress.City)
	assert.Equal(t, "Pune", o.ShippingAddress.City)
}

func TestBuildOrder_Rejections(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		s := testSummary()
		s.Cart.Items = nil
		_, err := BuildOrder(s, testRequest())
		assert.ErrorIs(t, err, checkout.ErrCartEmpty)
	})

	t.Run("nil summary", func(t *testing.T) {
		_, err := BuildOrder(nil, testRequest())
		assert.ErrorIs(t, err, checkout.ErrCartEmpty)
	})

	t.Run("unavailable line", func(t *testing.T) {
		s := testSummary()
		s.Cart.Items[0].Unavailable = true
		_, err := BuildOrder(s, testRequest())
		assert.ErrorIs(t, err, ErrUnavailableItems)
	})

	t.Run("below minimum quantity", func(t *testing.T) {
		s := testSummary()
		s.Cart.Items[0].Quantity = 500
		_, err := BuildOrder(s, testRequest())
		assert.True(t, errors.Is(err, ErrBelowMinimumQuantity))
	})
}

func partialOrder() *Order {
	return &Order{
		Status:        OrderStatusPending,
		PaymentStatus: PaymentStatusPending,
		PaymentMode:   checkout.PaymentModePartial,
		TotalAmount:   d("13432.01"),
		AdvanceAmount: d("6716.01"),
		AmountPaid:    decimal.Zero,
		AmountDue:     d("13432.01"),
	}
}

func TestApplyPayment_PartialThenBalance(t *testing.T) {
	o := partialOrder()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "advance", o.InstallmentLabel())
	assert.True(t, o.NextInstallment().Equal(d("6716.01")))

	confirmed := o.ApplyPayment(o.NextInstallment(), at)
	assert.True(t, confirmed)
	assert.Equal(t, OrderStatusConfirmed, o.Status)
	assert.Equal(t, PaymentStatusPartiallyPaid, o.PaymentStatus)
	require.NotNil(t, o.ConfirmedAt)
	assert.True(t, o.AmountDue.Equal(d("6716")))
	assert.False(t, o.IsFullyPaid())

	assert.Equal(t, "balance", o.InstallmentLabel())
	assert.True(t, o.NextInstallment().Equal(d("6716")))

	confirmed = o.ApplyPayment(o.NextInstallment(), at.Add(time.Hour))
	assert.False(t, confirmed)
	assert.Equal(t, PaymentStatusPaid, o.PaymentStatus)
	assert.True(t, o.IsFullyPaid())
	assert.True(t, o.AmountPaid.Equal(o.TotalAmount))
	assert.True(t, o.NextInstallment().IsZero())
}

func TestApplyPayment_FullMode(t *testing.T) {
	o := &Order{
		Status:        OrderStatusPending,
		PaymentMode:   checkout.PaymentModeFull,
		TotalAmount:   d("2500"),
		AdvanceAmount: d("2500"),
		AmountDue:     d("2500"),
	}
	assert.Equal(t, "full", o.InstallmentLabel())
	assert.True(t, o.ApplyPayment(d("2500"), time.Now()))
	assert.Equal(t, PaymentStatusPaid, o.PaymentStatus)
	assert.Equal(t, OrderStatusConfirmed, o.Status)
}

func TestApplyPayment_OverpaymentClampsDue(t *testing.T) {
	o := partialOrder()
	o.ApplyPayment(d("20000"), time.Now())
	assert.True(t, o.AmountDue.IsZero())
	assert.True(t, o.IsFullyPaid())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(OrderStatusPending, OrderStatusConfirmed))
	assert.True(t, CanTransition(OrderStatusConfirmed, OrderStatusInProduction))
	assert.True(t, CanTransition(OrderStatusReadyToShip, OrderStatusShipped))
	assert.False(t, CanTransition(OrderStatusPending, OrderStatusShipped))
	assert.False(t, CanTransition(OrderStatusShipped, OrderStatusCancelled))
	assert.False(t, CanTransition(OrderStatusCancelled, OrderStatusPending))
}

func TestCanBeCancelled(t *testing.T) {
	o := &Order{Status: OrderStatusConfirmed}
	assert.True(t, o.CanBeCancelled())
	o.Status = OrderStatusInProduction
	assert.False(t, o.CanBeCancelled())
}

func TestGenerateOrderNumber(t *testing.T) {
	at := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "PP-20261016-00042", GenerateOrderNumber(at, 42))
}

func TestAddStatusHistory(t *testing.T) {
	o := &Order{ID: 3}
	o.AddStatusHistory(OrderStatusPending, "Order created", 0)
	require.Len(t, o.StatusHistory, 1)
	assert.Equal(t, uint(3), o.StatusHistory[0].OrderID)
	assert.Equal(t, OrderStatusPending, o.StatusHistory[0].Status)
}

func TestBuildOrderClause(t *testing.T) {
	assert.Equal(t, "total_amount asc", buildOrderClause("total_amount", "asc"))
	assert.Equal(t, "created_at desc", buildOrderClause("drop table", "sideways"))
}
