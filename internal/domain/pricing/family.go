// internal/domain/pricing/family.go
package pricing

import "strings"

// Family identifies which fixed variant table prices a product
type Family string

const (
	FamilyNone           Family = ""
	FamilyIncensePouch   Family = "incense_pouch"
	FamilyCommodityPouch Family = "commodity_pouch"
)

const (
	incenseExactSlug  = "agarbatti-pouches"
	incenseSlugPrefix = "agarbatti-pouch-"
)

// commodityBaseSlugs lists the category slugs priced from the commodity pouch table
var commodityBaseSlugs = map[string]struct{}{
	"tea-pouches":        {},
	"chocolate-pouches":  {},
	"coffee-pouches":     {},
	"dates-pouches":      {},
	"spices-pouches":     {},
	"dry-fruits-pouches": {},
	"energy-bar-pouches": {},
	"cookie-pouches":     {},
	"bakery-pouches":     {},
	"grains-pouches":     {},
	"namkeen-pouches":    {},
	"chips-pouches":      {},
	"flour-pouches":      {},
	"pet-food-pouches":   {},
	"seed-pouches":       {},
	"skincare-pouches":   {},
}

// Classification is the result of matching a slug against the known families
type Classification struct {
	Family     Family `json:"family"`
	BaseSlug   string `json:"base_slug"`
	VariantKey string `json:"variant_key,omitempty"`
}

// IsVariantPriced reports whether the classification points at a variant table
func (c Classification) IsVariantPriced() bool {
	return c.Family != FamilyNone
}

// ClassifyProductFamily maps a product slug to its pricing family.
// The boolean is false for products priced by bulk tiers or base price.
func ClassifyProductFamily(slug string) (Classification, bool) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return Classification{}, false
	}

	if slug == incenseExactSlug {
		return Classification{Family: FamilyIncensePouch, BaseSlug: incenseExactSlug}, true
	}
	if strings.HasPrefix(slug, incenseSlugPrefix) {
		c := Classification{Family: FamilyIncensePouch, BaseSlug: incenseExactSlug}
		rest := strings.TrimPrefix(slug, incenseSlugPrefix)
		if _, ok := incensePouchTable.byKey(rest); ok {
			c.VariantKey = rest
		}
		return c, true
	}

	if isCommodityBase(slug) {
		return Classification{Family: FamilyCommodityPouch, BaseSlug: slug}, true
	}

	// base + "-" + variantKey, where the stripped prefix must itself be a known base
	for _, row := range commodityPouchTable.rows {
		suffix := "-" + row.Key
		if !strings.HasSuffix(slug, suffix) {
			continue
		}
		base := strings.TrimSuffix(slug, suffix)
		if isCommodityBase(base) {
			return Classification{Family: FamilyCommodityPouch, BaseSlug: base, VariantKey: row.Key}, true
		}
	}

	return Classification{}, false
}

// CommodityBaseSlugs returns the whitelisted commodity category slugs
func CommodityBaseSlugs() []string {
	slugs := make([]string, 0, len(commodityBaseSlugs))
	for s := range commodityBaseSlugs {
		slugs = append(slugs, s)
	}
	return slugs
}

func isCommodityBase(slug string) bool {
	_, ok := commodityBaseSlugs[slug]
	return ok
}
