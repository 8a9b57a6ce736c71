// internal/domain/checkout/payment_plan.go
package checkout

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/your-org/pouchprint-backend/internal/config"
	"github.com/your-org/pouchprint-backend/internal/domain/pricing"
)

// PaymentMode selects how an order total is collected
type PaymentMode string

const (
	PaymentModeFull    PaymentMode = "full"
	PaymentModePartial PaymentMode = "partial"
)

var (
	ErrUnknownPaymentMode = errors.New("unknown payment mode")
	ErrPartialNotAllowed  = errors.New("order total is below the partial payment minimum")
)

// ParsePaymentMode defaults an empty mode to full payment
func ParsePaymentMode(s string) (PaymentMode, error) {
	switch PaymentMode(s) {
	case "", PaymentModeFull:
		return PaymentModeFull, nil
	case PaymentModePartial:
		return PaymentModePartial, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPaymentMode, s)
}

// PaymentPlan splits an order total into the amount collected now and the
// balance collected before dispatch
type PaymentPlan struct {
	Mode           PaymentMode     `json:"mode"`
	Total          decimal.Decimal `json:"total"`
	AdvancePercent decimal.Decimal `json:"advance_percent"`
	Advance        decimal.Decimal `json:"advance"`
	Balance        decimal.Decimal `json:"balance"`
}

// PlanPolicy holds the partial payment rules
type PlanPolicy struct {
	AdvancePercent decimal.Decimal
	MinOrderAmount decimal.Decimal
}

// PolicyFromConfig reads the partial payment rules from checkout configuration
func PolicyFromConfig(cfg config.CheckoutConfig) PlanPolicy {
	return PlanPolicy{
		AdvancePercent: cfg.AdvancePercent,
		MinOrderAmount: cfg.MinPartialOrderAmount,
	}
}

// Plan builds the payment plan for total. Advance is rounded to paise and the
// balance is whatever remains, so the two always add up to the total.
func (p PlanPolicy) Plan(total decimal.Decimal, mode PaymentMode) (PaymentPlan, error) {
	total = pricing.RoundMoney(total)

	switch mode {
	case PaymentModeFull, "":
		return PaymentPlan{
			Mode:           PaymentModeFull,
			Total:          total,
			AdvancePercent: hundred,
			Advance:        total,
			Balance:        decimal.Zero,
		}, nil
	case PaymentModePartial:
		if total.LessThan(p.MinOrderAmount) {
			return PaymentPlan{}, fmt.Errorf("%w (%s)", ErrPartialNotAllowed, pricing.FormatINR(p.MinOrderAmount))
		}
		advance := pricing.RoundMoney(total.Mul(p.AdvancePercent).Div(hundred))
		return PaymentPlan{
			Mode:           PaymentModePartial,
			Total:          total,
			AdvancePercent: p.AdvancePercent,
			Advance:        advance,
			Balance:        total.Sub(advance),
		}, nil
	}
	return PaymentPlan{}, fmt.Errorf("%w: %q", ErrUnknownPaymentMode, mode)
}

// NextInstallment is the amount still to collect given what has been paid
func (pl PaymentPlan) NextInstallment(paid decimal.Decimal) decimal.Decimal {
	if paid.LessThan(pl.Advance) {
		return pl.Advance.Sub(paid)
	}
	remaining := pl.Total.Sub(paid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}
