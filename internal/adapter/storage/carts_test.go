package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/northpack/cartapi/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLines() domain.CartLines {
	return domain.CartLines{
		{
			ProductID:  "p1",
			Name:       "Kraft Box S",
			ImageURL:   "https://cdn.example/p1.jpg",
			UnitPrice:  2.00,
			PcsPerCase: 10,
			Quantity:   6,
			Pricing: []domain.PricingTier{
				{CaseRange: "1 to 5", PricePerUnit: "2.00"},
				{CaseRange: "6 to 50", PricePerUnit: "1.50"},
			},
		},
		{
			ProductID:  "p2",
			Name:       "Mailer Bag M",
			UnitPrice:  0.80,
			PcsPerCase: 100,
			Quantity:   2,
		},
	}
}

func TestFileCartStorage(t *testing.T) {
	t.Run("SaveLoadRoundTrip", func(t *testing.T) {
		s, err := NewFileCartStorage(t.TempDir())
		require.NoError(t, err)

		want := testLines()
		require.NoError(t, s.Save(t.Context(), "cart-1", want))

		got, err := s.Load(t.Context(), "cart-1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("MissingEntryIsEmptyCart", func(t *testing.T) {
		s, err := NewFileCartStorage(t.TempDir())
		require.NoError(t, err)

		got, err := s.Load(t.Context(), "never-saved")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("CorruptEntryIsError", func(t *testing.T) {
		dir := t.TempDir()
		s, err := NewFileCartStorage(dir)
		require.NoError(t, err)

		err = os.WriteFile(
			filepath.Join(dir, "cart-1.json"), []byte("{not json"), 0o644,
		)
		require.NoError(t, err)

		_, err = s.Load(t.Context(), "cart-1")
		assert.Error(t, err)
	})

	t.Run("OverwriteReplacesPriorEntry", func(t *testing.T) {
		s, err := NewFileCartStorage(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, s.Save(t.Context(), "cart-1", testLines()))
		require.NoError(t, s.Save(t.Context(), "cart-1", domain.CartLines{}))

		got, err := s.Load(t.Context(), "cart-1")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("HostileCartIDStaysInDir", func(t *testing.T) {
		dir := t.TempDir()
		s, err := NewFileCartStorage(dir)
		require.NoError(t, err)

		require.NoError(t, s.Save(t.Context(), "../evil", testLines()))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, ".._evil.json", entries[0].Name())
	})
}
