package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(i int) *int {
	return &i
}

func tieredProduct() *ProductRef {
	return &ProductRef{
		Slug:  "custom-printed-boxes",
		Price: dec("12.00"),
		BulkPricing: []BulkPricingTier{
			{MinQty: 100, MaxQty: intPtr(499), Price: dec("9.50")},
			{MinQty: 500, MaxQty: intPtr(999), Price: dec("8.25")},
			{MinQty: 1000, Price: dec("7.10")},
		},
	}
}

func TestResolveUnitPrice_BulkTiers(t *testing.T) {
	p := tieredProduct()

	tests := []struct {
		name string
		qty  int
		want string
	}{
		{"below lowest tier", 99, "12.00"},
		{"first tier lower bound", 100, "9.50"},
		{"first tier upper bound", 499, "9.50"},
		{"second tier lower bound", 500, "8.25"},
		{"second tier upper bound", 999, "8.25"},
		{"unbounded tier", 1000, "7.10"},
		{"far into unbounded tier", 250000, "7.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveUnitPrice(LineItem{Product: p, Quantity: tt.qty})
			assert.True(t, dec(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestResolveUnitPrice_EveryQuantityInsideTier(t *testing.T) {
	p := tieredProduct()
	for _, tier := range p.BulkPricing {
		if tier.MaxQty == nil {
			continue
		}
		for q := tier.MinQty; q <= *tier.MaxQty; q++ {
			got := ResolveUnitPrice(LineItem{Product: p, Quantity: q})
			require.True(t, tier.Price.Equal(got), "qty %d: want %s, got %s", q, tier.Price, got)
		}
	}
}

func TestResolveUnitPrice_IncensePouch(t *testing.T) {
	item := LineItem{
		Product:       &ProductRef{Slug: "agarbatti-pouches", Price: dec("1")},
		Quantity:      3000,
		Customization: Customization{Capacity: "25 G", Finish: "Gloss"},
	}

	got := ResolveUnitPrice(item)
	assert.True(t, dec("3.80").Equal(got), "got %s", got)
}

func TestResolveUnitPrice_MattNeverCheaperThanGloss(t *testing.T) {
	for _, fam := range []Family{FamilyIncensePouch, FamilyCommodityPouch} {
		slug := "agarbatti-pouches"
		if fam == FamilyCommodityPouch {
			slug = "coffee-pouches"
		}
		for _, row := range VariantsFor(fam).Rows() {
			gloss := ResolveUnitPrice(LineItem{
				Product:       &ProductRef{Slug: slug, Price: dec("1")},
				Quantity:      row.MOQ,
				Customization: Customization{Capacity: row.Label, Finish: "Gloss"},
			})
			matt := ResolveUnitPrice(LineItem{
				Product:       &ProductRef{Slug: slug, Price: dec("1")},
				Quantity:      row.MOQ,
				Customization: Customization{Capacity: row.Label, Finish: "Matt"},
			})
			assert.True(t, matt.GreaterThanOrEqual(gloss), "%s %s: matt %s < gloss %s", fam, row.Label, matt, gloss)
		}
	}
}

func TestResolveUnitPrice_VariantFallbacks(t *testing.T) {
	base := &ProductRef{Slug: "tea-pouches-50g", Price: dec("2.75")}

	tests := []struct {
		name string
		c    Customization
		want string
	}{
		{"missing capacity", Customization{Finish: "Matt"}, "2.75"},
		{"unknown capacity", Customization{Capacity: "750 G"}, "2.75"},
		{"unlisted capacity label", Customization{Capacity: "50g-x"}, "2.75"},
		// normalization folds case and spaces, so "50g" reads as the "50 G" label
		{"label written without space", Customization{Capacity: "50g"}, "3.20"},
		{"missing finish defaults to gloss", Customization{Capacity: "50 G"}, "3.20"},
		{"unknown finish defaults to gloss", Customization{Capacity: "50 G", Finish: "velvet"}, "3.20"},
		{"matte spelling", Customization{Capacity: "50 G", Finish: "MATTE"}, "3.60"},
		{"label matched loosely", Customization{Capacity: " 1kg ", Finish: "matt"}, "11.80"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveUnitPrice(LineItem{Product: base, Quantity: 1000, Customization: tt.c})
			assert.True(t, dec(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestResolveUnitPrice_VariantKeyIsNotALabel(t *testing.T) {
	base := &ProductRef{Slug: "agarbatti-pouches", Price: dec("6")}

	// "10-25g" is the row key; its label is "25 G"
	byKey := ResolveUnitPrice(LineItem{Product: base, Quantity: 1000, Customization: Customization{Capacity: "10-25g"}})
	assert.True(t, dec("6").Equal(byKey), "got %s", byKey)

	byLabel := ResolveUnitPrice(LineItem{Product: base, Quantity: 1000, Customization: Customization{Capacity: "25 G"}})
	assert.True(t, dec("3.80").Equal(byLabel), "got %s", byLabel)
}

func TestResolveLineTotal_ExactProduct(t *testing.T) {
	items := []LineItem{
		{Product: tieredProduct(), Quantity: 333},
		{Product: &ProductRef{Slug: "agarbatti-pouch-50g", Price: dec("0.01")}, Quantity: 7, Customization: Customization{Capacity: "50 G", Finish: "Matt"}},
		{Product: &ProductRef{Slug: "sticker-sheet", Price: dec("0.333333")}, Quantity: 3},
	}

	for _, item := range items {
		unit := ResolveUnitPrice(item)
		want := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
		assert.True(t, want.Equal(ResolveLineTotal(item)))
	}

	// no rounding happens internally
	assert.Equal(t, "0.999999", ResolveLineTotal(items[2]).String())
}

func TestResolveCartTotal(t *testing.T) {
	assert.True(t, ResolveCartTotal(nil).IsZero())
	assert.True(t, ResolveCartTotal([]LineItem{}).IsZero())

	items := []LineItem{
		{Product: tieredProduct(), Quantity: 600},
		{Product: &ProductRef{Slug: "agarbatti-pouches", Price: dec("1")}, Quantity: 3000, Customization: Customization{Capacity: "25 G"}},
		{Product: &ProductRef{Slug: "labels", Price: dec("0.45")}, Quantity: 10},
	}

	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(ResolveLineTotal(item))
	}
	assert.True(t, sum.Equal(ResolveCartTotal(items)))

	reversed := []LineItem{items[2], items[1], items[0]}
	assert.True(t, ResolveCartTotal(items).Equal(ResolveCartTotal(reversed)))
	assert.Equal(t, "16354.5", ResolveCartTotal(items).String())
}

func TestResolve_UnclassifiedProductDefaults(t *testing.T) {
	item := LineItem{Product: &ProductRef{Slug: "mystery-item", Price: dec("5.5")}, Quantity: 42}

	assert.True(t, dec("5.5").Equal(ResolveUnitPrice(item)))
	assert.True(t, dec("10").Equal(ResolveUnitWeight(item)))
	assert.True(t, dec("420").Equal(ResolveLineWeight(item)))
}

func TestResolveUnitWeight_Variants(t *testing.T) {
	gloss := LineItem{
		Product:       &ProductRef{Slug: "spices-pouches", Price: dec("1")},
		Quantity:      500,
		Customization: Customization{Capacity: "1 KG", Finish: "Gloss"},
	}
	matt := gloss
	matt.Customization.Finish = "Matt"

	assert.True(t, dec("25").Equal(ResolveUnitWeight(gloss)))
	assert.True(t, ResolveUnitWeight(gloss).Equal(ResolveUnitWeight(matt)))
	assert.True(t, dec("12500").Equal(ResolveCartWeight([]LineItem{gloss})))

	unmatched := gloss
	unmatched.Customization.Capacity = ""
	assert.True(t, DefaultUnitWeight.Equal(ResolveUnitWeight(unmatched)))
}

func TestResolve_NeverPanicsOnMalformedInput(t *testing.T) {
	items := []LineItem{
		{},
		{Product: nil, Quantity: 10},
		{Product: &ProductRef{}, Quantity: 0},
		{Product: &ProductRef{Slug: "agarbatti-pouches"}, Quantity: -5},
		{Product: &ProductRef{Slug: "x", Price: dec("-4"), BulkPricing: []BulkPricingTier{{MinQty: 1, Price: dec("-1")}}}, Quantity: 3},
		{Product: &ProductRef{Slug: "x", BulkPricing: []BulkPricingTier{{}}}, Quantity: 1},
	}

	for i, item := range items {
		assert.NotPanics(t, func() {
			q := Resolve(item)
			assert.False(t, q.UnitPrice.IsNegative(), "item %d", i)
			assert.False(t, q.LineTotal.IsNegative(), "item %d", i)
			assert.False(t, q.LineWeight.IsNegative(), "item %d", i)
		})
	}

	assert.True(t, ResolveLineTotal(items[1]).IsZero())
	assert.True(t, ResolveLineTotal(items[3]).IsZero())
	assert.True(t, ResolveCartTotal(items).IsZero())
}

func TestResolve_QuoteDetails(t *testing.T) {
	q := Resolve(LineItem{
		Product:       &ProductRef{Slug: "agarbatti-pouches", Price: dec("1")},
		Quantity:      200,
		Customization: Customization{Capacity: "100 G", Finish: "Matt"},
	})

	assert.Equal(t, FamilyIncensePouch, q.Family)
	assert.Equal(t, "100g", q.VariantKey)
	require.NotNil(t, q.Variant)
	assert.Equal(t, 1000, q.MOQ)
	assert.True(t, q.BelowMOQ)
	assert.Nil(t, q.Tier)

	tq := Resolve(LineItem{Product: tieredProduct(), Quantity: 750})
	require.NotNil(t, tq.Tier)
	assert.Equal(t, 500, tq.Tier.MinQty)
	assert.False(t, tq.BelowMOQ)
}
