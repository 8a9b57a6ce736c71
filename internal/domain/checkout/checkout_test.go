package checkout

import (
	"context"
	"io"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/pouchprint-backend/internal/config"
	"github.com/your-org/pouchprint-backend/internal/domain/cart"
	"github.com/your-org/pouchprint-backend/internal/domain/pricing"
	"github.com/your-org/pouchprint-backend/internal/domain/product"
)

func testCheckoutConfig() *config.Config {
	return &config.Config{
		External: config.ExternalConfig{
			Razorpay: config.RazorpayConfig{KeyID: "rzp_test_key"},
		},
		Checkout: config.CheckoutConfig{
			Currency:              "INR",
			GSTRate:               d("18"),
			AdvancePercent:        d("50"),
			MinPartialOrderAmount: d("5000"),
			FreeShippingThreshold: d("25000"),
			ShippingBaseRate:      d("60"),
			ShippingSlabRate:      d("40"),
			ShippingSlabGrams:     500,
			ExpressSurcharge:      d("150"),
		},
	}
}

type catalog map[uint]*product.Product

func (c catalog) GetActiveProduct(_ context.Context, id uint) (*product.Product, error) {
	if p, ok := c[id]; ok {
		return p, nil
	}
	return nil, product.ErrProductNotFound
}

func newTestCheckout(t *testing.T) (*Service, *cart.Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	log := logrus.New()
	log.SetOutput(io.Discard)

	products := catalog{
		1: {ID: 1, Name: "Agarbatti Pouches", Slug: "agarbatti-pouches", Price: d("6"), IsActive: true},
	}
	carts := cart.NewService(nil, client, products, nil, log)
	return NewService(client, carts, testCheckoutConfig(), log), carts, mr
}

func addIncense(t *testing.T, carts *cart.Service, qty int) {
	t.Helper()
	_, err := carts.AddToCart(context.Background(), nil, "sess", &cart.AddToCartRequest{
		ProductID: 1,
		Quantity:  qty,
		Customization: pricing.CustomizationFromMap(map[string]string{
			"Capacity": "25 G",
			"Finish":   "Gloss",
		}),
	})
	require.NoError(t, err)
}

func TestShippingRates_Slabs(t *testing.T) {
	rates := RatesFromConfig(testCheckoutConfig().Checkout)

	tests := []struct {
		weight string
		slabs  int64
		cost   string
	}{
		{"0", 0, "0"},
		{"1", 1, "60"},
		{"500", 1, "60"},
		{"501", 2, "100"},
		{"12000", 24, "980"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.slabs, rates.Slabs(d(tt.weight)), tt.weight)
		assert.True(t, d(tt.cost).Equal(rates.SlabCost(d(tt.weight))), tt.weight)
	}
}

func TestShippingRates_Quote(t *testing.T) {
	rates := RatesFromConfig(testCheckoutConfig().Checkout)

	methods := rates.Quote(d("12000"), d("1000"))
	require.Len(t, methods, 2)
	assert.Equal(t, "980", methods[0].Price.String())
	assert.Equal(t, "1130", methods[1].Price.String())

	free, ok := rates.Method(ShippingStandard, d("12000"), d("25000"))
	require.True(t, ok)
	assert.True(t, free.Price.IsZero())

	express, ok := rates.Method(ShippingExpress, d("12000"), d("25000"))
	require.True(t, ok)
	assert.Equal(t, "1130", express.Price.String())

	empty, _ := rates.Method(ShippingExpress, decimal.Zero, decimal.Zero)
	assert.False(t, empty.Available)

	_, ok = rates.Method("drone", d("1"), d("1"))
	assert.False(t, ok)
}

func TestCalculateTax(t *testing.T) {
	tax := CalculateTax(d("11400"), d("18"))
	assert.Equal(t, "2052", tax.TaxAmount.String())
	require.Len(t, tax.Breakdown, 2)
	assert.Equal(t, "9", tax.Breakdown[0].Rate.String())

	odd := CalculateTax(d("100.06"), d("18"))
	assert.Equal(t, "18.01", odd.TaxAmount.String())
	assert.Equal(t, "9.01", odd.Breakdown[0].Amount.String())
	assert.Equal(t, "9", odd.Breakdown[1].Amount.String())
	assert.True(t, odd.TaxAmount.Equal(odd.Breakdown[0].Amount.Add(odd.Breakdown[1].Amount)))

	none := CalculateTax(d("100"), decimal.Zero)
	assert.True(t, none.TaxAmount.IsZero())
	assert.Empty(t, none.Breakdown)
}

func TestPaymentPlan(t *testing.T) {
	policy := PolicyFromConfig(testCheckoutConfig().Checkout)

	full, err := policy.Plan(d("13432.01"), PaymentModeFull)
	require.NoError(t, err)
	assert.Equal(t, "13432.01", full.Advance.String())
	assert.True(t, full.Balance.IsZero())

	partial, err := policy.Plan(d("13432.01"), PaymentModePartial)
	require.NoError(t, err)
	assert.Equal(t, "6716.01", partial.Advance.String())
	assert.Equal(t, "6716", partial.Balance.String())
	assert.True(t, partial.Total.Equal(partial.Advance.Add(partial.Balance)))

	assert.Equal(t, "6716.01", partial.NextInstallment(decimal.Zero).String())
	assert.Equal(t, "6716", partial.NextInstallment(d("6716.01")).String())
	assert.True(t, partial.NextInstallment(d("13432.01")).IsZero())

	_, err = policy.Plan(d("4999"), PaymentModePartial)
	assert.ErrorIs(t, err, ErrPartialNotAllowed)

	_, err = policy.Plan(d("4999"), PaymentMode("layaway"))
	assert.ErrorIs(t, err, ErrUnknownPaymentMode)
}

func TestParsePaymentMode(t *testing.T) {
	mode, err := ParsePaymentMode("")
	require.NoError(t, err)
	assert.Equal(t, PaymentModeFull, mode)

	mode, err = ParsePaymentMode("partial")
	require.NoError(t, err)
	assert.Equal(t, PaymentModePartial, mode)

	_, err = ParsePaymentMode("credit")
	assert.ErrorIs(t, err, ErrUnknownPaymentMode)
}

func TestValidateCoupon(t *testing.T) {
	app := ValidateCoupon("print10", d("11400"))
	assert.True(t, app.Applied)
	assert.Equal(t, "1140", app.DiscountAmount.String())

	capped := ValidateCoupon("PRINT10", d("50000"))
	assert.Equal(t, "2000", capped.DiscountAmount.String())

	short := ValidateCoupon("FLAT500", d("9999"))
	assert.False(t, short.Applied)
	assert.Contains(t, short.Message, "₹10,000.00")

	unknown := ValidateCoupon("NOPE", d("99999"))
	assert.False(t, unknown.Applied)
}

func TestSummary_MatchesCartTotals(t *testing.T) {
	s, carts, _ := newTestCheckout(t)
	ctx := context.Background()
	addIncense(t, carts, 3000)

	summary, err := s.Summary(ctx, nil, "sess", &SummaryRequest{})
	require.NoError(t, err)

	c, err := carts.GetCart(ctx, nil, "sess")
	require.NoError(t, err)
	assert.True(t, c.Totals.SubTotal.Equal(summary.Pricing.Subtotal))

	assert.Equal(t, "11400", summary.Pricing.Subtotal.String())
	assert.Equal(t, "12000", summary.Pricing.WeightGrams.String())
	assert.Equal(t, "980", summary.Pricing.ShippingCost.String())
	assert.Equal(t, "2052", summary.Pricing.TaxAmount.String())
	assert.Equal(t, "14432", summary.Pricing.TotalAmount.String())
	assert.Equal(t, PaymentModeFull, summary.PaymentPlan.Mode)
	assert.Equal(t, ShippingStandard, summary.ShippingMethod.ID)
}

func TestSummary_PartialWithCoupon(t *testing.T) {
	s, carts, mr := newTestCheckout(t)
	ctx := context.Background()
	addIncense(t, carts, 3000)

	app, err := s.ApplyCoupon(ctx, nil, "sess", "PRINT10")
	require.NoError(t, err)
	assert.True(t, app.Applied)
	assert.True(t, mr.Exists("applied_coupon:session:sess"))

	summary, err := s.Summary(ctx, nil, "sess", &SummaryRequest{PaymentMode: "partial"})
	require.NoError(t, err)

	require.NotNil(t, summary.AppliedCoupon)
	assert.Equal(t, "1140", summary.Pricing.DiscountAmount.String())
	assert.Equal(t, "1846.8", summary.Pricing.TaxAmount.String())
	assert.Equal(t, "13086.8", summary.Pricing.TotalAmount.String())
	assert.Equal(t, "6543.4", summary.PaymentPlan.Advance.String())
	assert.Equal(t, "6543.4", summary.PaymentPlan.Balance.String())

	require.NoError(t, s.RemoveCoupon(ctx, nil, "sess"))
	summary, err = s.Summary(ctx, nil, "sess", &SummaryRequest{})
	require.NoError(t, err)
	assert.Nil(t, summary.AppliedCoupon)
}

func TestSummary_Errors(t *testing.T) {
	s, carts, _ := newTestCheckout(t)
	ctx := context.Background()

	_, err := s.Summary(ctx, nil, "sess", &SummaryRequest{})
	assert.ErrorIs(t, err, ErrCartEmpty)

	_, err = s.ApplyCoupon(ctx, nil, "sess", "PRINT10")
	assert.ErrorIs(t, err, ErrCartEmpty)

	addIncense(t, carts, 1000)

	_, err = s.Summary(ctx, nil, "sess", &SummaryRequest{ShippingMethodID: "drone"})
	assert.ErrorIs(t, err, ErrUnknownShippingMethod)

	_, err = s.Summary(ctx, nil, "sess", &SummaryRequest{PaymentMode: "credit"})
	assert.ErrorIs(t, err, ErrUnknownPaymentMode)

	// 1000 x 3.80 = 3800 is below the partial payment minimum
	_, err = s.Summary(ctx, nil, "sess", &SummaryRequest{PaymentMode: "partial"})
	assert.ErrorIs(t, err, ErrPartialNotAllowed)

	_, err = s.ApplyCoupon(ctx, nil, "sess", "FLAT500")
	assert.ErrorIs(t, err, ErrInvalidCoupon)
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
