// internal/domain/checkout/shipping.go
package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/your-org/pouchprint-backend/internal/config"
)

const (
	ShippingStandard = "standard"
	ShippingExpress  = "express"
)

// ShippingMethod represents a shipping option
type ShippingMethod struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	EstimatedDays string          `json:"estimated_days"`
	Available     bool            `json:"available"`
	Carrier       string          `json:"carrier"`
	Slabs         int64           `json:"slabs"`
}

// ShippingRates prices parcels by weight slab
type ShippingRates struct {
	BaseRate              decimal.Decimal
	SlabRate              decimal.Decimal
	SlabGrams             int64
	FreeShippingThreshold decimal.Decimal
	ExpressSurcharge      decimal.Decimal
}

// RatesFromConfig reads shipping rates from checkout configuration
func RatesFromConfig(cfg config.CheckoutConfig) ShippingRates {
	return ShippingRates{
		BaseRate:              cfg.ShippingBaseRate,
		SlabRate:              cfg.ShippingSlabRate,
		SlabGrams:             cfg.ShippingSlabGrams,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		ExpressSurcharge:      cfg.ExpressSurcharge,
	}
}

// Slabs is the number of started weight slabs for a parcel
func (r ShippingRates) Slabs(weightGrams decimal.Decimal) int64 {
	if !weightGrams.IsPositive() || r.SlabGrams <= 0 {
		return 0
	}
	return weightGrams.Div(decimal.NewFromInt(r.SlabGrams)).Ceil().IntPart()
}

// SlabCost prices the first slab at the base rate and each further slab at the slab rate
func (r ShippingRates) SlabCost(weightGrams decimal.Decimal) decimal.Decimal {
	slabs := r.Slabs(weightGrams)
	if slabs == 0 {
		return decimal.Zero
	}
	return r.BaseRate.Add(r.SlabRate.Mul(decimal.NewFromInt(slabs - 1)))
}

// Quote lists the shipping methods for a parcel. Standard shipping is free at
// or above the threshold; express always pays the slab cost plus surcharge.
func (r ShippingRates) Quote(weightGrams, subtotal decimal.Decimal) []ShippingMethod {
	slabs := r.Slabs(weightGrams)
	cost := r.SlabCost(weightGrams)

	standard := ShippingMethod{
		ID:            ShippingStandard,
		Name:          "Standard Shipping",
		Description:   "Surface delivery in 5-7 business days",
		Price:         cost,
		EstimatedDays: "5-7 business days",
		Available:     true,
		Carrier:       "Delhivery",
		Slabs:         slabs,
	}
	if r.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(r.FreeShippingThreshold) {
		standard.Price = decimal.Zero
		standard.Description = "Free standard shipping on orders over " + formatThreshold(r.FreeShippingThreshold)
	}

	express := ShippingMethod{
		ID:            ShippingExpress,
		Name:          "Express Shipping",
		Description:   "Air delivery in 2-3 business days",
		Price:         cost.Add(r.ExpressSurcharge),
		EstimatedDays: "2-3 business days",
		Available:     slabs > 0,
		Carrier:       "BlueDart",
		Slabs:         slabs,
	}

	return []ShippingMethod{standard, express}
}

// Method returns the quoted method with the given id
func (r ShippingRates) Method(id string, weightGrams, subtotal decimal.Decimal) (ShippingMethod, bool) {
	if id == "" {
		id = ShippingStandard
	}
	for _, m := range r.Quote(weightGrams, subtotal) {
		if m.ID == id {
			return m, true
		}
	}
	return ShippingMethod{}, false
}

func formatThreshold(d decimal.Decimal) string {
	return "₹" + d.StringFixed(0)
}
