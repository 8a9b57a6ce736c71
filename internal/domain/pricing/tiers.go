// internal/domain/pricing/tiers.go
package pricing

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTier      = errors.New("invalid pricing tier")
	ErrOverlappingTiers = errors.New("overlapping pricing tiers")
)

// BulkPricingTier prices every unit of an order whose quantity falls in [MinQty, MaxQty]
type BulkPricingTier struct {
	MinQty int             `json:"min_qty"`
	MaxQty *int            `json:"max_qty,omitempty"` // nil means unbounded
	Price  decimal.Decimal `json:"price"`
}

// Contains reports whether qty falls inside the tier
func (t BulkPricingTier) Contains(qty int) bool {
	if qty < t.MinQty {
		return false
	}
	return t.MaxQty == nil || qty <= *t.MaxQty
}

func (t BulkPricingTier) String() string {
	if t.MaxQty == nil {
		return fmt.Sprintf("%d+ @ %s", t.MinQty, t.Price.String())
	}
	return fmt.Sprintf("%d-%d @ %s", t.MinQty, *t.MaxQty, t.Price.String())
}

// TierTable is a validated, MinQty-ordered set of non-overlapping tiers
type TierTable struct {
	tiers []BulkPricingTier
}

// NewTierTable validates tiers and returns them sorted by MinQty
func NewTierTable(tiers []BulkPricingTier) (*TierTable, error) {
	sorted := make([]BulkPricingTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinQty < sorted[j].MinQty
	})

	for i, t := range sorted {
		if t.MinQty < 1 {
			return nil, fmt.Errorf("%w: min quantity must be at least 1, got %d", ErrInvalidTier, t.MinQty)
		}
		if t.MaxQty != nil && *t.MaxQty < t.MinQty {
			return nil, fmt.Errorf("%w: max quantity %d below min quantity %d", ErrInvalidTier, *t.MaxQty, t.MinQty)
		}
		if t.Price.IsNegative() {
			return nil, fmt.Errorf("%w: negative price %s", ErrInvalidTier, t.Price.String())
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if prev.MaxQty == nil || *prev.MaxQty >= t.MinQty {
			return nil, fmt.Errorf("%w: %s and %s", ErrOverlappingTiers, prev, t)
		}
	}

	return &TierTable{tiers: sorted}, nil
}

// ValidateTiers checks a tier list without keeping the table
func ValidateTiers(tiers []BulkPricingTier) error {
	_, err := NewTierTable(tiers)
	return err
}

// Tiers returns a copy of the ordered tiers
func (t *TierTable) Tiers() []BulkPricingTier {
	if t == nil {
		return nil
	}
	out := make([]BulkPricingTier, len(t.tiers))
	copy(out, t.tiers)
	return out
}

// Find returns the tier containing qty
func (t *TierTable) Find(qty int) (BulkPricingTier, bool) {
	if t == nil {
		return BulkPricingTier{}, false
	}
	return findTier(t.tiers, qty)
}

// findTier scans in MinQty order so unvalidated data still resolves deterministically
func findTier(tiers []BulkPricingTier, qty int) (BulkPricingTier, bool) {
	var (
		best  BulkPricingTier
		found bool
	)
	for _, t := range tiers {
		if !t.Contains(qty) {
			continue
		}
		if !found || t.MinQty < best.MinQty {
			best = t
			found = true
		}
	}
	return best, found
}
