package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTierTable_SortsAndFinds(t *testing.T) {
	table, err := NewTierTable([]BulkPricingTier{
		{MinQty: 1000, Price: dec("6")},
		{MinQty: 1, MaxQty: intPtr(499), Price: dec("8")},
		{MinQty: 500, MaxQty: intPtr(999), Price: dec("7")},
	})
	require.NoError(t, err)

	tiers := table.Tiers()
	require.Len(t, tiers, 3)
	assert.Equal(t, 1, tiers[0].MinQty)
	assert.Equal(t, 1000, tiers[2].MinQty)

	tier, ok := table.Find(999)
	require.True(t, ok)
	assert.True(t, dec("7").Equal(tier.Price))

	_, ok = table.Find(0)
	assert.False(t, ok)
}

func TestNewTierTable_RejectsBadData(t *testing.T) {
	tests := []struct {
		name  string
		tiers []BulkPricingTier
		err   error
	}{
		{
			name: "shared boundary",
			tiers: []BulkPricingTier{
				{MinQty: 1, MaxQty: intPtr(100), Price: dec("5")},
				{MinQty: 100, MaxQty: intPtr(200), Price: dec("4")},
			},
			err: ErrOverlappingTiers,
		},
		{
			name: "unbounded tier not last",
			tiers: []BulkPricingTier{
				{MinQty: 1, Price: dec("5")},
				{MinQty: 100, Price: dec("4")},
			},
			err: ErrOverlappingTiers,
		},
		{
			name:  "max below min",
			tiers: []BulkPricingTier{{MinQty: 50, MaxQty: intPtr(10), Price: dec("5")}},
			err:   ErrInvalidTier,
		},
		{
			name:  "zero min",
			tiers: []BulkPricingTier{{MinQty: 0, Price: dec("5")}},
			err:   ErrInvalidTier,
		},
		{
			name:  "negative price",
			tiers: []BulkPricingTier{{MinQty: 1, Price: dec("-0.01")}},
			err:   ErrInvalidTier,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTierTable(tt.tiers)
			assert.ErrorIs(t, err, tt.err)
			assert.ErrorIs(t, ValidateTiers(tt.tiers), tt.err)
		})
	}
}

func TestValidateTiers_EmptyIsValid(t *testing.T) {
	assert.NoError(t, ValidateTiers(nil))
}

func TestFindTier_UnvalidatedOverlapPicksLowestMin(t *testing.T) {
	tiers := []BulkPricingTier{
		{MinQty: 50, MaxQty: intPtr(150), Price: dec("3")},
		{MinQty: 1, MaxQty: intPtr(100), Price: dec("4")},
	}
	tier, ok := findTier(tiers, 75)
	require.True(t, ok)
	assert.Equal(t, 1, tier.MinQty)
}

func TestTierTable_NilSafe(t *testing.T) {
	var table *TierTable
	assert.Nil(t, table.Tiers())
	_, ok := table.Find(10)
	assert.False(t, ok)
}
