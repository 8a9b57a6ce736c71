// internal/domain/checkout/coupon.go
package checkout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/your-org/pouchprint-backend/internal/domain/pricing"
)

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed_amount"
)

// Coupon is a promotional code definition
type Coupon struct {
	Code              string
	DiscountType      string
	DiscountValue     decimal.Decimal
	MinOrderAmount    decimal.Decimal
	MaxDiscountAmount decimal.Decimal
}

// CouponApplication represents applied coupon details
type CouponApplication struct {
	CouponCode        string          `json:"coupon_code"`
	DiscountType      string          `json:"discount_type"`
	DiscountValue     decimal.Decimal `json:"discount_value"`
	DiscountAmount    decimal.Decimal `json:"discount_amount"`
	MinOrderAmount    decimal.Decimal `json:"min_order_amount"`
	MaxDiscountAmount decimal.Decimal `json:"max_discount_amount"`
	Applied           bool            `json:"applied"`
	Message           string          `json:"message,omitempty"`
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var defaultCoupons = map[string]Coupon{
	"PRINT10":  {Code: "PRINT10", DiscountType: DiscountPercentage, DiscountValue: amount("10"), MinOrderAmount: amount("5000"), MaxDiscountAmount: amount("2000")},
	"FLAT500":  {Code: "FLAT500", DiscountType: DiscountFixed, DiscountValue: amount("500"), MinOrderAmount: amount("10000")},
	"WELCOME5": {Code: "WELCOME5", DiscountType: DiscountPercentage, DiscountValue: amount("5"), MinOrderAmount: amount("2000"), MaxDiscountAmount: amount("1000")},
}

// ValidateCoupon evaluates a coupon code against a subtotal
func ValidateCoupon(code string, subtotal decimal.Decimal) *CouponApplication {
	code = strings.ToUpper(strings.TrimSpace(code))

	coupon, exists := defaultCoupons[code]
	if !exists {
		return &CouponApplication{
			CouponCode: code,
			Applied:    false,
			Message:    "Invalid coupon code",
		}
	}

	app := &CouponApplication{
		CouponCode:        coupon.Code,
		DiscountType:      coupon.DiscountType,
		DiscountValue:     coupon.DiscountValue,
		MinOrderAmount:    coupon.MinOrderAmount,
		MaxDiscountAmount: coupon.MaxDiscountAmount,
		DiscountAmount:    decimal.Zero,
	}

	if subtotal.LessThan(coupon.MinOrderAmount) {
		app.Message = fmt.Sprintf("Minimum order amount of %s required", pricing.FormatINR(coupon.MinOrderAmount))
		return app
	}

	if coupon.DiscountType == DiscountPercentage {
		app.DiscountAmount = pricing.RoundMoney(subtotal.Mul(coupon.DiscountValue).Div(hundred))
		if coupon.MaxDiscountAmount.IsPositive() && app.DiscountAmount.GreaterThan(coupon.MaxDiscountAmount) {
			app.DiscountAmount = coupon.MaxDiscountAmount
		}
	} else {
		app.DiscountAmount = decimal.Min(coupon.DiscountValue, subtotal)
	}

	app.Applied = true
	app.Message = fmt.Sprintf("Coupon applied! You saved %s", pricing.FormatINR(app.DiscountAmount))
	return app
}
