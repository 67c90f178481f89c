package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoTiers() []PricingTier {
	return []PricingTier{
		{CaseRange: "1 to 5", PricePerUnit: "2.00"},
		{CaseRange: "6 to 50", PricePerUnit: "1.50"},
	}
}

func TestResolveTier(t *testing.T) {
	t.Run("FirstTier", func(t *testing.T) {
		p := ResolveTier(twoTiers(), 3)
		require.False(t, p.ContactOffice)
		assert.InDelta(t, 2.00, p.Amount, 1e-9)
	})

	t.Run("BulkTier", func(t *testing.T) {
		p := ResolveTier(twoTiers(), 6)
		require.False(t, p.ContactOffice)
		assert.InDelta(t, 1.50, p.Amount, 1e-9)
	})

	t.Run("BulkTierUpperBound", func(t *testing.T) {
		p := ResolveTier(twoTiers(), 50)
		require.False(t, p.ContactOffice)
		assert.InDelta(t, 1.50, p.Amount, 1e-9)
	})

	t.Run("OutsideAllTiers", func(t *testing.T) {
		p := ResolveTier(twoTiers(), 51)
		assert.True(t, p.ContactOffice)
		assert.Equal(t, PriceNotAvailable, p.Display())
	})

	t.Run("NonNumericPrice", func(t *testing.T) {
		tiers := []PricingTier{
			{CaseRange: "1 to 5", PricePerUnit: "Contact office"},
		}
		p := ResolveTier(tiers, 2)
		assert.True(t, p.ContactOffice)
	})

	t.Run("NoTiers", func(t *testing.T) {
		assert.True(t, ResolveTier(nil, 1).ContactOffice)
	})

	t.Run("OpenEndedRange", func(t *testing.T) {
		tiers := append(twoTiers(), PricingTier{
			CaseRange: "51+", PricePerUnit: "1.25",
		})
		p := ResolveTier(tiers, 120)
		require.False(t, p.ContactOffice)
		assert.InDelta(t, 1.25, p.Amount, 1e-9)
	})

	t.Run("DashRange", func(t *testing.T) {
		tiers := []PricingTier{{CaseRange: "6-50", PricePerUnit: "1.50"}}
		p := ResolveTier(tiers, 10)
		require.False(t, p.ContactOffice)
		assert.InDelta(t, 1.50, p.Amount, 1e-9)
	})

	t.Run("GarbageLabel", func(t *testing.T) {
		tiers := []PricingTier{{CaseRange: "bulk", PricePerUnit: "1.50"}}
		assert.True(t, ResolveTier(tiers, 10).ContactOffice)
	})
}

func TestBaselineTier(t *testing.T) {
	t.Run("Numeric", func(t *testing.T) {
		p := BaselineTier(twoTiers())
		require.False(t, p.ContactOffice)
		assert.Equal(t, "2.00", p.Display())
	})

	t.Run("Empty", func(t *testing.T) {
		assert.True(t, BaselineTier(nil).ContactOffice)
	})
}

func TestCartLineTotals(t *testing.T) {
	line := CartLine{
		ProductID:  "p1",
		PcsPerCase: 10,
		Quantity:   6,
		Pricing:    twoTiers(),
	}

	t.Run("LineTotal", func(t *testing.T) {
		total := line.Total()
		require.False(t, total.ContactOffice)
		assert.InDelta(t, 6*10*1.50, total.Amount, 1e-9)
	})

	t.Run("CartTotalAllPriced", func(t *testing.T) {
		ls := CartLines{line}
		sum, allPriced := ls.Total()
		assert.True(t, allPriced)
		assert.InDelta(t, 90.0, sum, 1e-9)
	})

	t.Run("CartTotalWithUnpricedLine", func(t *testing.T) {
		unpriced := line
		unpriced.ProductID = "p2"
		unpriced.Pricing = nil

		sum, allPriced := CartLines{line, unpriced}.Total()
		assert.False(t, allPriced)
		assert.InDelta(t, 90.0, sum, 1e-9)
	})
}
