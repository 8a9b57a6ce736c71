// internal/domain/pricing/variants.go
package pricing

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// VariantPrice is one row of a variant pricing table
type VariantPrice struct {
	Key    string          `json:"key"`
	Label  string          `json:"label"`
	Weight decimal.Decimal `json:"weight"` // grams per empty pouch
	Size   string          `json:"size"`
	MOQ    int             `json:"moq"`
	Gloss  decimal.Decimal `json:"gloss"`
	Matt   decimal.Decimal `json:"matt"`
}

// PriceFor returns the unit price for the given finish
func (v VariantPrice) PriceFor(f Finish) decimal.Decimal {
	if f == FinishMatt {
		return v.Matt
	}
	return v.Gloss
}

// VariantTable is an immutable, label-indexed set of variant rows
type VariantTable struct {
	family  Family
	rows    []VariantPrice
	byLabel map[string]int
	keys    map[string]int
}

func newVariantTable(family Family, rows []VariantPrice) *VariantTable {
	t := &VariantTable{
		family:  family,
		rows:    rows,
		byLabel: make(map[string]int, len(rows)),
		keys:    make(map[string]int, len(rows)),
	}
	for i, row := range rows {
		t.byLabel[normalizeLabel(row.Label)] = i
		t.keys[row.Key] = i
	}
	return t
}

// Family returns the family this table prices
func (t *VariantTable) Family() Family {
	return t.family
}

// Lookup finds a row by its display label, ignoring case and whitespace
func (t *VariantTable) Lookup(label string) (VariantPrice, bool) {
	if t == nil {
		return VariantPrice{}, false
	}
	n := normalizeLabel(label)
	if n == "" {
		return VariantPrice{}, false
	}
	i, ok := t.byLabel[n]
	if !ok {
		return VariantPrice{}, false
	}
	return t.rows[i], true
}

// Rows returns a copy of the table rows in display order
func (t *VariantTable) Rows() []VariantPrice {
	if t == nil {
		return nil
	}
	out := make([]VariantPrice, len(t.rows))
	copy(out, t.rows)
	return out
}

func (t *VariantTable) byKey(key string) (VariantPrice, bool) {
	i, ok := t.keys[key]
	if !ok {
		return VariantPrice{}, false
	}
	return t.rows[i], true
}

// VariantsFor returns the variant table for a family, or nil
func VariantsFor(f Family) *VariantTable {
	switch f {
	case FamilyIncensePouch:
		return incensePouchTable
	case FamilyCommodityPouch:
		return commodityPouchTable
	default:
		return nil
	}
}

func normalizeLabel(label string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, label)
}

func row(key, label string, grams int64, size string, moq int, gloss, matt string) VariantPrice {
	return VariantPrice{
		Key:    key,
		Label:  label,
		Weight: decimal.NewFromInt(grams),
		Size:   size,
		MOQ:    moq,
		Gloss:  decimal.RequireFromString(gloss),
		Matt:   decimal.RequireFromString(matt),
	}
}

var incensePouchTable = newVariantTable(FamilyIncensePouch, []VariantPrice{
	row("10-25g", "25 G", 4, "4 x 6 in", 1000, "3.80", "4.20"),
	row("50g", "50 G", 6, "5 x 7 in", 1000, "4.60", "5.10"),
	row("100g", "100 G", 8, "6 x 9 in", 1000, "5.90", "6.50"),
	row("200g", "200 G", 11, "7 x 10 in", 500, "7.40", "8.20"),
	row("500g", "500 G", 16, "9 x 12 in", 500, "9.80", "10.90"),
})

// 1 KG pouches weigh 25 g each
var commodityPouchTable = newVariantTable(FamilyCommodityPouch, []VariantPrice{
	row("50g", "50 G", 5, "4 x 6 in", 1000, "3.20", "3.60"),
	row("100g", "100 G", 7, "5 x 8 in", 1000, "4.10", "4.60"),
	row("250g", "250 G", 10, "6 x 9 in", 1000, "5.50", "6.20"),
	row("500g", "500 G", 15, "7 x 11 in", 500, "7.80", "8.70"),
	row("1kg", "1 KG", 25, "9 x 13 in", 500, "10.50", "11.80"),
})
