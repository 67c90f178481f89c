package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/northpack/cartapi/internal/core/domain"
	"github.com/northpack/cartapi/internal/core/port"
)

var _ port.CartReader = (*Service)(nil)
var _ port.CartMutator = (*Service)(nil)
var _ port.ProductsSaver = (*Service)(nil)
var _ port.ProductProvider = (*Service)(nil)

// Service owns the authoritative in-memory cart collections, keyed
// by cart ID. Each cart is loaded from storage on first touch and
// mirrored back after every successful mutation. Storage and event
// publishing are best-effort: their failures are logged and never
// fail the mutation or reach the caller.
type Service struct {
	mu       sync.Mutex
	carts    map[string]domain.CartLines
	storage  port.CartStorage
	products port.ProductsStorage
	events   port.CartEventsProducer
}

func New(
	storage port.CartStorage,
	products port.ProductsStorage,
	events port.CartEventsProducer,
) *Service {
	return &Service{
		carts:    make(map[string]domain.CartLines),
		storage:  storage,
		products: products,
		events:   events,
	}
}

func (s *Service) GetCart(
	ctx context.Context, cartID string,
) (domain.CartLines, error) {
	const op = "Service.GetCart"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.linesLocked(ctx, cartID)), nil
}

func (s *Service) AddToCart(
	ctx context.Context, cartID, productID string, qty int,
) (domain.CartLines, error) {
	const op = "Service.AddToCart"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.products.ReadProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prior := s.linesLocked(ctx, cartID)
	next, err := prior.Add(p, qty)
	if err != nil {
		return slices.Clone(prior), fmt.Errorf("%s: %w", op, err)
	}

	s.commitLocked(ctx, cartID, next)
	s.publish(ctx, domain.CartEvent{
		CartID:    cartID,
		Action:    domain.CartActionAdd,
		ProductID: productID,
		Quantity:  qty,
		At:        time.Now(),
	})
	return slices.Clone(next), nil
}

func (s *Service) UpdateQuantity(
	ctx context.Context, cartID, productID string, qty int,
) (domain.CartLines, error) {
	const op = "Service.UpdateQuantity"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prior := s.linesLocked(ctx, cartID)
	next, err := prior.SetQuantity(productID, qty)
	if err != nil {
		return slices.Clone(prior), fmt.Errorf("%s: %w", op, err)
	}

	s.commitLocked(ctx, cartID, next)
	s.publish(ctx, domain.CartEvent{
		CartID:    cartID,
		Action:    domain.CartActionUpdate,
		ProductID: productID,
		Quantity:  qty,
		At:        time.Now(),
	})
	return slices.Clone(next), nil
}

func (s *Service) RemoveFromCart(
	ctx context.Context, cartID, productID string,
) (domain.CartLines, error) {
	const op = "Service.RemoveFromCart"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.linesLocked(ctx, cartID).Remove(productID)
	s.commitLocked(ctx, cartID, next)
	s.publish(ctx, domain.CartEvent{
		CartID:    cartID,
		Action:    domain.CartActionRemove,
		ProductID: productID,
		At:        time.Now(),
	})
	return slices.Clone(next), nil
}

func (s *Service) ClearCart(
	ctx context.Context, cartID string,
) (domain.CartLines, error) {
	const op = "Service.ClearCart"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.commitLocked(ctx, cartID, domain.CartLines{})
	s.publish(ctx, domain.CartEvent{
		CartID: cartID,
		Action: domain.CartActionClear,
		At:     time.Now(),
	})
	return domain.CartLines{}, nil
}

func (s *Service) SaveProducts(
	ctx context.Context, ps []domain.Product,
) error {
	const op = "Service.SaveProducts"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := s.products.StoreProducts(ctx, ps)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) GetProduct(
	ctx context.Context, productID string,
) (domain.Product, error) {
	const op = "Service.GetProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.products.ReadProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// linesLocked returns the cart's lines, loading them from storage on
// first touch. An unreadable or corrupt entry starts the cart empty.
func (s *Service) linesLocked(
	ctx context.Context, cartID string,
) domain.CartLines {
	const op = "Service.linesLocked"

	if ls, ok := s.carts[cartID]; ok {
		return ls
	}

	ls, err := s.storage.Load(ctx, cartID)
	if err != nil {
		slog.Warn("failed to load saved cart, starting empty",
			"op", op, "cartID", cartID, "err", err)
		ls = domain.CartLines{}
	}
	s.carts[cartID] = ls
	return ls
}

// commitLocked makes the mutated collection authoritative and
// mirrors it to storage.
func (s *Service) commitLocked(
	ctx context.Context, cartID string, ls domain.CartLines,
) {
	const op = "Service.commitLocked"

	s.carts[cartID] = ls
	if err := s.storage.Save(ctx, cartID, ls); err != nil {
		slog.Warn("failed to persist cart",
			"op", op, "cartID", cartID, "err", err)
	}
}

func (s *Service) publish(ctx context.Context, evt domain.CartEvent) {
	const op = "Service.publish"

	if s.events == nil {
		return
	}
	if err := s.events.ProduceEvent(ctx, evt); err != nil {
		slog.Warn("failed to produce cart event",
			"op", op, "cartID", evt.CartID, "err", err)
	}
}
