package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/northpack/cartapi/internal/core/domain"
	"github.com/northpack/cartapi/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCartStorage serializes through JSON like the real file adapter,
// so tests exercise the persisted representation round trip.
type memCartStorage struct {
	entries  map[string][]byte
	failSave bool
	failLoad bool
}

func newMemCartStorage() *memCartStorage {
	return &memCartStorage{entries: make(map[string][]byte)}
}

func (s *memCartStorage) Load(
	_ context.Context, cartID string,
) (domain.CartLines, error) {
	if s.failLoad {
		return nil, errors.New("storage unavailable")
	}
	data, ok := s.entries[cartID]
	if !ok {
		return domain.CartLines{}, nil
	}
	var ls domain.CartLines
	if err := json.Unmarshal(data, &ls); err != nil {
		return nil, err
	}
	return ls, nil
}

func (s *memCartStorage) Save(
	_ context.Context, cartID string, ls domain.CartLines,
) error {
	if s.failSave {
		return errors.New("storage unavailable")
	}
	data, err := json.Marshal(ls)
	if err != nil {
		return err
	}
	s.entries[cartID] = data
	return nil
}

type memProducts struct {
	products map[string]domain.Product
}

func (s memProducts) StoreProducts(
	_ context.Context, ps []domain.Product,
) error {
	for _, p := range ps {
		s.products[p.ProductID] = p
	}
	return nil
}

func (s memProducts) ReadProduct(
	_ context.Context, productID string,
) (domain.Product, error) {
	p, ok := s.products[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

type recordedEvents struct {
	events []domain.CartEvent
}

func (r *recordedEvents) ProduceEvent(
	_ context.Context, evt domain.CartEvent,
) error {
	r.events = append(r.events, evt)
	return nil
}

func (r *recordedEvents) Close() {}

func tiers() []domain.PricingTier {
	return []domain.PricingTier{
		{CaseRange: "1 to 5", PricePerUnit: "2.00"},
		{CaseRange: "6 to 50", PricePerUnit: "1.50"},
	}
}

func catalog() memProducts {
	return memProducts{products: map[string]domain.Product{
		"p1": {
			ProductID: "p1", Name: "Kraft Box S", Price: 2.00,
			BulkPrice: 1.50, PcsPerCase: 10, Pricing: tiers(),
		},
		"p2": {
			ProductID: "p2", Name: "Mailer Bag M", Price: 0.80,
			BulkPrice: 0.60, PcsPerCase: 100, Pricing: tiers(),
		},
	}}
}

func TestAddToCart(t *testing.T) {
	t.Run("MergesAndRejectsPastLimit", func(t *testing.T) {
		svc := service.New(newMemCartStorage(), catalog(), nil)

		ls, err := svc.AddToCart(t.Context(), "c1", "p1", 1)
		require.NoError(t, err)
		require.Len(t, ls, 1)
		assert.Equal(t, 1, ls[0].Quantity)

		ls, err = svc.AddToCart(t.Context(), "c1", "p1", 45)
		require.NoError(t, err)
		assert.Equal(t, 46, ls[0].Quantity)

		ls, err = svc.AddToCart(t.Context(), "c1", "p1", 10)
		assert.ErrorIs(t, err, domain.ErrQuantityLimit)
		require.Len(t, ls, 1)
		assert.Equal(t, 46, ls[0].Quantity)
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		svc := service.New(newMemCartStorage(), catalog(), nil)

		_, err := svc.AddToCart(t.Context(), "c1", "nope", 1)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("TwoProductsTwoLines", func(t *testing.T) {
		svc := service.New(newMemCartStorage(), catalog(), nil)

		_, err := svc.AddToCart(t.Context(), "c1", "p1", 1)
		require.NoError(t, err)
		ls, err := svc.AddToCart(t.Context(), "c1", "p2", 1)
		require.NoError(t, err)
		assert.Len(t, ls, 2)
	})

	t.Run("CartsAreIndependent", func(t *testing.T) {
		svc := service.New(newMemCartStorage(), catalog(), nil)

		_, err := svc.AddToCart(t.Context(), "c1", "p1", 3)
		require.NoError(t, err)

		ls, err := svc.GetCart(t.Context(), "c2")
		require.NoError(t, err)
		assert.Empty(t, ls)
	})

	t.Run("StorageFailureDoesNotFailMutation", func(t *testing.T) {
		storage := newMemCartStorage()
		storage.failSave = true
		svc := service.New(storage, catalog(), nil)

		ls, err := svc.AddToCart(t.Context(), "c1", "p1", 2)
		require.NoError(t, err)
		require.Len(t, ls, 1)
		assert.Equal(t, 2, ls[0].Quantity)
	})

	t.Run("UnreadableStorageStartsEmpty", func(t *testing.T) {
		storage := newMemCartStorage()
		storage.failLoad = true
		svc := service.New(storage, catalog(), nil)

		ls, err := svc.GetCart(t.Context(), "c1")
		require.NoError(t, err)
		assert.Empty(t, ls)
	})
}

func TestUpdateQuantity(t *testing.T) {
	t.Run("SetsAbsolute", func(t *testing.T) {
		svc := service.New(newMemCartStorage(), catalog(), nil)

		_, err := svc.AddToCart(t.Context(), "c1", "p1", 5)
		require.NoError(t, err)

		ls, err := svc.UpdateQuantity(t.Context(), "c1", "p1", 20)
		require.NoError(t, err)
		assert.Equal(t, 20, ls[0].Quantity)
	})

	t.Run("RejectsPastLimitKeepsPrior", func(t *testing.T) {
		svc := service.New(newMemCartStorage(), catalog(), nil)

		_, err := svc.AddToCart(t.Context(), "c1", "p1", 5)
		require.NoError(t, err)

		ls, err := svc.UpdateQuantity(t.Context(), "c1", "p1", 51)
		assert.ErrorIs(t, err, domain.ErrQuantityLimit)
		assert.Equal(t, 5, ls[0].Quantity)
	})

	t.Run("RejectsNonPositive", func(t *testing.T) {
		svc := service.New(newMemCartStorage(), catalog(), nil)

		_, err := svc.AddToCart(t.Context(), "c1", "p1", 5)
		require.NoError(t, err)

		_, err = svc.UpdateQuantity(t.Context(), "c1", "p1", 0)
		assert.ErrorIs(t, err, domain.ErrQuantityNotPositive)
	})

	t.Run("AbsentProductIsNoop", func(t *testing.T) {
		svc := service.New(newMemCartStorage(), catalog(), nil)

		ls, err := svc.UpdateQuantity(t.Context(), "c1", "p1", 3)
		require.NoError(t, err)
		assert.Empty(t, ls)
	})
}

func TestRemoveFromCart(t *testing.T) {
	svc := service.New(newMemCartStorage(), catalog(), nil)

	_, err := svc.AddToCart(t.Context(), "c1", "p1", 1)
	require.NoError(t, err)

	ls, err := svc.RemoveFromCart(t.Context(), "c1", "p1")
	require.NoError(t, err)
	assert.Empty(t, ls)

	ls, err = svc.RemoveFromCart(t.Context(), "c1", "absent")
	require.NoError(t, err)
	assert.Empty(t, ls)
}

func TestPersistenceRoundTrip(t *testing.T) {
	t.Run("ReloadYieldsIdenticalLines", func(t *testing.T) {
		storage := newMemCartStorage()
		svc := service.New(storage, catalog(), nil)

		_, err := svc.AddToCart(t.Context(), "c1", "p1", 7)
		require.NoError(t, err)
		want, err := svc.AddToCart(t.Context(), "c1", "p2", 2)
		require.NoError(t, err)

		reloaded := service.New(storage, catalog(), nil)
		got, err := reloaded.GetCart(t.Context(), "c1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("ClearThenReloadIsEmpty", func(t *testing.T) {
		storage := newMemCartStorage()
		svc := service.New(storage, catalog(), nil)

		_, err := svc.AddToCart(t.Context(), "c1", "p1", 7)
		require.NoError(t, err)
		_, err = svc.ClearCart(t.Context(), "c1")
		require.NoError(t, err)

		reloaded := service.New(storage, catalog(), nil)
		got, err := reloaded.GetCart(t.Context(), "c1")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestCartEvents(t *testing.T) {
	t.Run("SuccessfulMutationsProduceEvents", func(t *testing.T) {
		events := &recordedEvents{}
		svc := service.New(newMemCartStorage(), catalog(), events)

		_, err := svc.AddToCart(t.Context(), "c1", "p1", 1)
		require.NoError(t, err)
		_, err = svc.UpdateQuantity(t.Context(), "c1", "p1", 4)
		require.NoError(t, err)
		_, err = svc.RemoveFromCart(t.Context(), "c1", "p1")
		require.NoError(t, err)
		_, err = svc.ClearCart(t.Context(), "c1")
		require.NoError(t, err)

		require.Len(t, events.events, 4)
		assert.Equal(t, domain.CartActionAdd, events.events[0].Action)
		assert.Equal(t, domain.CartActionUpdate, events.events[1].Action)
		assert.Equal(t, domain.CartActionRemove, events.events[2].Action)
		assert.Equal(t, domain.CartActionClear, events.events[3].Action)
	})

	t.Run("RejectedMutationProducesNoEvent", func(t *testing.T) {
		events := &recordedEvents{}
		svc := service.New(newMemCartStorage(), catalog(), events)

		_, err := svc.AddToCart(t.Context(), "c1", "p1", 51)
		require.ErrorIs(t, err, domain.ErrQuantityLimit)
		assert.Empty(t, events.events)
	})

	t.Run("NegativeAddKeepsStateAndProducesNoEvent", func(t *testing.T) {
		events := &recordedEvents{}
		svc := service.New(newMemCartStorage(), catalog(), events)

		_, err := svc.AddToCart(t.Context(), "c1", "p1", 45)
		require.NoError(t, err)

		ls, err := svc.AddToCart(t.Context(), "c1", "p1", -5)
		require.ErrorIs(t, err, domain.ErrQuantityNotPositive)
		require.Len(t, ls, 1)
		assert.Equal(t, 45, ls[0].Quantity)
		assert.Len(t, events.events, 1)
	})
}
