// internal/domain/checkout/tax.go
package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/your-org/pouchprint-backend/internal/domain/pricing"
)

var hundred = decimal.NewFromInt(100)

// TaxCalculation represents tax calculation result
type TaxCalculation struct {
	TaxRate       decimal.Decimal `json:"tax_rate"` // percent
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	TaxType       string          `json:"tax_type"`
	Breakdown     []TaxBreakdown  `json:"breakdown,omitempty"`
}

// TaxBreakdown represents detailed tax breakdown
type TaxBreakdown struct {
	Type        string          `json:"type"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// CalculateTax applies GST to the taxable amount, rounded to paise. The CGST and
// SGST halves always add up to the total.
func CalculateTax(taxable, rate decimal.Decimal) TaxCalculation {
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}
	taxable = pricing.RoundMoney(taxable)

	if !rate.IsPositive() {
		return TaxCalculation{
			TaxRate:       decimal.Zero,
			TaxAmount:     decimal.Zero,
			TaxableAmount: taxable,
			TaxType:       "No Tax",
		}
	}

	amount := pricing.RoundMoney(taxable.Mul(rate).Div(hundred))
	half := rate.Div(decimal.NewFromInt(2))
	cgst := pricing.RoundMoney(amount.Div(decimal.NewFromInt(2)))
	sgst := amount.Sub(cgst)

	return TaxCalculation{
		TaxRate:       rate,
		TaxAmount:     amount,
		TaxableAmount: taxable,
		TaxType:       "GST",
		Breakdown: []TaxBreakdown{
			{Type: "CGST", Rate: half, Amount: cgst, Description: "Central Goods and Services Tax"},
			{Type: "SGST", Rate: half, Amount: sgst, Description: "State Goods and Services Tax"},
		},
	}
}
