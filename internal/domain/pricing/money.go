// internal/domain/pricing/money.go
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ToMinorUnits converts rupees to paise, rounding half away from zero
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinorUnits converts paise to rupees
func FromMinorUnits(paise int64) decimal.Decimal {
	return decimal.New(paise, -2)
}

// RoundMoney rounds to two decimal places for storage and display
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// FormatINR formats an amount like "₹1,23,456.50" using Indian digit grouping.
// This is the only place amounts are rounded for display.
func FormatINR(amount decimal.Decimal) string {
	neg := amount.IsNegative()
	if neg {
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	intPart, frac := fixed, ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, frac = fixed[:i], fixed[i:]
	}

	var b strings.Builder
	b.Grow(len(fixed) + len(fixed)/2 + 4)
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("₹")

	if len(intPart) <= 3 {
		b.WriteString(intPart)
	} else {
		head := intPart[:len(intPart)-3]
		tail := intPart[len(intPart)-3:]
		// lakh/crore grouping: pairs before the final three digits
		rem := len(head) % 2
		if rem > 0 {
			b.WriteString(head[:rem])
		}
		for i := rem; i < len(head); i += 2 {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(head[i : i+2])
		}
		b.WriteByte(',')
		b.WriteString(tail)
	}

	b.WriteString(frac)
	return b.String()
}
