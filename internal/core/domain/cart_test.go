package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(id string) Product {
	return Product{
		ProductID:  id,
		Name:       "Kraft Box " + id,
		ImageURL:   "https://cdn.example/" + id + ".jpg",
		Price:      2.00,
		BulkPrice:  1.50,
		PcsPerCase: 10,
		Pricing:    twoTiers(),
	}
}

func TestCheckQuantity(t *testing.T) {
	assert.NoError(t, CheckQuantity(1))
	assert.NoError(t, CheckQuantity(MaxCasesPerLine))
	assert.ErrorIs(t, CheckQuantity(MaxCasesPerLine+1), ErrQuantityLimit)
	assert.ErrorIs(t, CheckQuantity(0), ErrQuantityNotPositive)
	assert.ErrorIs(t, CheckQuantity(-3), ErrQuantityNotPositive)
}

func TestCartLinesAdd(t *testing.T) {
	p := testProduct("p1")

	t.Run("NewLine", func(t *testing.T) {
		ls, err := CartLines(nil).Add(p, 1)
		require.NoError(t, err)
		require.Len(t, ls, 1)
		assert.Equal(t, 1, ls[0].Quantity)
		assert.Equal(t, p.Name, ls[0].Name)
		assert.Equal(t, p.Pricing, ls[0].Pricing)
	})

	t.Run("MergeSumsQuantities", func(t *testing.T) {
		ls, err := CartLines(nil).Add(p, 1)
		require.NoError(t, err)
		ls, err = ls.Add(p, 45)
		require.NoError(t, err)
		require.Len(t, ls, 1)
		assert.Equal(t, 46, ls[0].Quantity)
	})

	t.Run("RejectsPastLimitWithoutPartialApply", func(t *testing.T) {
		ls, err := CartLines(nil).Add(p, 46)
		require.NoError(t, err)

		got, err := ls.Add(p, 10)
		assert.ErrorIs(t, err, ErrQuantityLimit)
		require.Len(t, got, 1)
		assert.Equal(t, 46, got[0].Quantity)
	})

	t.Run("RejectsNonPositive", func(t *testing.T) {
		_, err := CartLines(nil).Add(p, 0)
		assert.ErrorIs(t, err, ErrQuantityNotPositive)
	})

	t.Run("TwoProductsTwoLines", func(t *testing.T) {
		ls, err := CartLines(nil).Add(testProduct("p1"), 1)
		require.NoError(t, err)
		ls, err = ls.Add(testProduct("p2"), 1)
		require.NoError(t, err)
		assert.Len(t, ls, 2)
	})

	t.Run("RefreshesCachedTiers", func(t *testing.T) {
		ls, err := CartLines(nil).Add(p, 1)
		require.NoError(t, err)

		updated := p
		updated.Pricing = []PricingTier{
			{CaseRange: "1 to 50", PricePerUnit: "1.80"},
		}
		ls, err = ls.Add(updated, 1)
		require.NoError(t, err)
		assert.Equal(t, updated.Pricing, ls[0].Pricing)
	})

	t.Run("NegativeAddNeverDecrements", func(t *testing.T) {
		ls, err := CartLines(nil).Add(p, 45)
		require.NoError(t, err)

		got, err := ls.Add(p, -5)
		assert.ErrorIs(t, err, ErrQuantityNotPositive)
		require.Len(t, got, 1)
		assert.Equal(t, 45, got[0].Quantity)
	})

	t.Run("DoesNotMutateReceiver", func(t *testing.T) {
		ls, err := CartLines(nil).Add(p, 5)
		require.NoError(t, err)

		_, err = ls.Add(p, 5)
		require.NoError(t, err)
		assert.Equal(t, 5, ls[0].Quantity)
	})
}

func TestCartLinesSetQuantity(t *testing.T) {
	p := testProduct("p1")

	t.Run("SetsAbsolute", func(t *testing.T) {
		ls, err := CartLines(nil).Add(p, 5)
		require.NoError(t, err)
		ls, err = ls.SetQuantity(p.ProductID, 12)
		require.NoError(t, err)
		assert.Equal(t, 12, ls[0].Quantity)
	})

	t.Run("RejectsPastLimitKeepsPrior", func(t *testing.T) {
		ls, err := CartLines(nil).Add(p, 5)
		require.NoError(t, err)

		got, err := ls.SetQuantity(p.ProductID, 51)
		assert.ErrorIs(t, err, ErrQuantityLimit)
		assert.Equal(t, 5, got[0].Quantity)
	})

	t.Run("RejectsNonPositive", func(t *testing.T) {
		ls, err := CartLines(nil).Add(p, 5)
		require.NoError(t, err)

		_, err = ls.SetQuantity(p.ProductID, 0)
		assert.ErrorIs(t, err, ErrQuantityNotPositive)
	})

	t.Run("AbsentProductIsNoop", func(t *testing.T) {
		ls, err := CartLines(nil).SetQuantity("missing", 3)
		require.NoError(t, err)
		assert.Empty(t, ls)
	})

	t.Run("AbsentProductSkipsGuard", func(t *testing.T) {
		ls, err := CartLines(nil).SetQuantity("missing", 60)
		require.NoError(t, err)
		assert.Empty(t, ls)
	})
}

func TestCartLinesGet(t *testing.T) {
	ls, err := CartLines(nil).Add(testProduct("p1"), 3)
	require.NoError(t, err)

	l, ok := ls.Get("p1")
	require.True(t, ok)
	assert.Equal(t, 3, l.Quantity)

	_, ok = ls.Get("missing")
	assert.False(t, ok)
}

func TestCartLinesRemove(t *testing.T) {
	t.Run("RemovesLine", func(t *testing.T) {
		ls, err := CartLines(nil).Add(testProduct("p1"), 1)
		require.NoError(t, err)
		ls, err = ls.Add(testProduct("p2"), 1)
		require.NoError(t, err)

		ls = ls.Remove("p1")
		require.Len(t, ls, 1)
		assert.Equal(t, "p2", ls[0].ProductID)
	})

	t.Run("AbsentProductIsNoop", func(t *testing.T) {
		ls := CartLines(nil).Remove("missing")
		assert.Empty(t, ls)
	})
}
