// internal/domain/pricing/resolver.go

// Package pricing resolves unit prices and shipping weights for cart line items.
// Every function is total: malformed input degrades to a documented fallback and
// nothing here returns an error or panics.
package pricing

import (
	"github.com/shopspring/decimal"
)

// DefaultUnitWeight is the per-unit weight in grams of a pouch not found in any variant table
var DefaultUnitWeight = decimal.NewFromInt(10)

// ProductRef is the product snapshot pricing needs
type ProductRef struct {
	Slug        string            `json:"slug"`
	Name        string            `json:"name,omitempty"`
	Price       decimal.Decimal   `json:"price"`
	BulkPricing []BulkPricingTier `json:"bulk_pricing,omitempty"`
}

// LineItem is a product reference, a quantity and the chosen customization
type LineItem struct {
	Product       *ProductRef   `json:"product"`
	Quantity      int           `json:"quantity"`
	Customization Customization `json:"customization"`
}

// Quote is the full pricing result for one line item
type Quote struct {
	UnitPrice  decimal.Decimal  `json:"unit_price"`
	LineTotal  decimal.Decimal  `json:"line_total"`
	UnitWeight decimal.Decimal  `json:"unit_weight"`
	LineWeight decimal.Decimal  `json:"line_weight"`
	Family     Family           `json:"family,omitempty"`
	VariantKey string           `json:"variant_key,omitempty"`
	Variant    *VariantPrice    `json:"variant,omitempty"`
	Tier       *BulkPricingTier `json:"tier,omitempty"`
	MOQ        int              `json:"moq,omitempty"`
	BelowMOQ   bool             `json:"below_moq"`
}

// Resolve prices a line item in one pass
func Resolve(item LineItem) Quote {
	q := Quote{
		UnitPrice:  decimal.Zero,
		UnitWeight: DefaultUnitWeight,
	}

	p := item.Product
	if p == nil {
		q.LineTotal = decimal.Zero
		q.LineWeight = decimal.Zero
		return q
	}

	q.UnitPrice = basePrice(p)

	if c, ok := ClassifyProductFamily(p.Slug); ok {
		q.Family = c.Family
		q.VariantKey = c.VariantKey
		if row, found := VariantsFor(c.Family).Lookup(item.Customization.Capacity); found {
			v := row
			q.Variant = &v
			q.VariantKey = row.Key
			q.UnitPrice = nonNegative(row.PriceFor(item.Customization.FinishValue()))
			q.UnitWeight = row.Weight
			q.MOQ = row.MOQ
		}
	} else if tier, found := findTier(p.BulkPricing, item.Quantity); found {
		t := tier
		q.Tier = &t
		q.UnitPrice = nonNegative(tier.Price)
	}

	if item.Quantity > 0 {
		qty := decimal.NewFromInt(int64(item.Quantity))
		q.LineTotal = q.UnitPrice.Mul(qty)
		q.LineWeight = q.UnitWeight.Mul(qty)
	} else {
		q.LineTotal = decimal.Zero
		q.LineWeight = decimal.Zero
	}
	q.BelowMOQ = q.MOQ > 0 && item.Quantity < q.MOQ

	return q
}

// ResolveUnitPrice returns the unit price of a line item
func ResolveUnitPrice(item LineItem) decimal.Decimal {
	return Resolve(item).UnitPrice
}

// ResolveLineTotal returns unit price times quantity, unrounded
func ResolveLineTotal(item LineItem) decimal.Decimal {
	return Resolve(item).LineTotal
}

// ResolveUnitWeight returns the per-unit weight in grams
func ResolveUnitWeight(item LineItem) decimal.Decimal {
	return Resolve(item).UnitWeight
}

// ResolveLineWeight returns the unit weight times quantity in grams
func ResolveLineWeight(item LineItem) decimal.Decimal {
	return Resolve(item).LineWeight
}

// ResolveCartTotal sums line totals
func ResolveCartTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(ResolveLineTotal(item))
	}
	return total
}

// ResolveCartWeight sums line weights in grams
func ResolveCartWeight(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(ResolveLineWeight(item))
	}
	return total
}

func basePrice(p *ProductRef) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	return nonNegative(p.Price)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
