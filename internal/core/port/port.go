package port

import (
	"context"
	"sync"

	"github.com/northpack/cartapi/internal/core/domain"
)

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

// CartStorage is the durable mirror of the in-memory cart
// collections, one named entry per cart.
type CartStorage interface {
	Load(ctx context.Context, cartID string) (domain.CartLines, error)
	Save(ctx context.Context, cartID string, ls domain.CartLines) error
}

type CartReader interface {
	GetCart(ctx context.Context, cartID string) (domain.CartLines, error)
}

type CartMutator interface {
	AddToCart(ctx context.Context, cartID, productID string, qty int) (domain.CartLines, error)
	UpdateQuantity(ctx context.Context, cartID, productID string, qty int) (domain.CartLines, error)
	RemoveFromCart(ctx context.Context, cartID, productID string) (domain.CartLines, error)
	ClearCart(ctx context.Context, cartID string) (domain.CartLines, error)
}

type ProductsSaver interface {
	SaveProducts(ctx context.Context, ps []domain.Product) error
}

type ProductProvider interface {
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
}

// ProductsStorage is the catalog persistence the core reads products
// from and the back-office loads products into.
type ProductsStorage interface {
	StoreProducts(ctx context.Context, ps []domain.Product) error
	ReadProduct(ctx context.Context, productID string) (domain.Product, error)
}

type CartEventsProducer interface {
	ProduceEvent(ctx context.Context, evt domain.CartEvent) error
	Close()
}

type CartEventsSaver interface {
	SaveEvents(ctx context.Context, evts []domain.CartEvent) error
}

type CartActivityProvider interface {
	CartActivity(ctx context.Context, cartID string) (domain.CartActivity, error)
}

type CartActivityProcessor interface {
	runnerContextWg
	closer
}
