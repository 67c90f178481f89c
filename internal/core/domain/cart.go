package domain

import (
	"errors"
	"slices"
	"time"
)

// MaxCasesPerLine is the largest quantity of cases a single cart line
// may hold. Larger orders go through the office directly.
const MaxCasesPerLine = 50

var (
	ErrQuantityLimit       = errors.New("quantity exceeds max cases per product")
	ErrQuantityNotPositive = errors.New("quantity is below one case")
	ErrProductNotFound     = errors.New("product not found")
	ErrNoActivity          = errors.New("no activity for cart")
)

type (
	Product struct {
		ProductID  string
		Name       string
		ImageURL   string
		Price      float64
		BulkPrice  float64
		PcsPerCase int
		Pricing    []PricingTier
	}

	// A PricingTier maps a human-readable case range to a per-unit
	// price. PricePerUnit is numeric text or free text meaning the
	// customer should contact the office.
	PricingTier struct {
		CaseRange    string
		PricePerUnit string
	}

	// A CartLine denormalizes product display fields at add-time and
	// caches the product's tier list as of the last mutation.
	CartLine struct {
		ProductID  string
		Name       string
		ImageURL   string
		UnitPrice  float64
		PcsPerCase int
		Quantity   int
		Pricing    []PricingTier
	}
)

// CheckQuantity is the guard applied to every proposed resulting
// line quantity before it reaches the cart.
func CheckQuantity(q int) error {
	if q < 1 {
		return ErrQuantityNotPositive
	}
	if q > MaxCasesPerLine {
		return ErrQuantityLimit
	}
	return nil
}

// CartLines is one cart's ordered line collection. Mutations return a
// new collection and never modify the receiver, so a rejected
// operation leaves the prior state untouched by construction.
type CartLines []CartLine

func (ls CartLines) index(productID string) int {
	return slices.IndexFunc(ls, func(l CartLine) bool {
		return l.ProductID == productID
	})
}

func (ls CartLines) Get(productID string) (CartLine, bool) {
	i := ls.index(productID)
	if i < 0 {
		return CartLine{}, false
	}
	return ls[i], true
}

// Add merges qty into the existing line for the product, or appends a
// new line. The guard checks the added quantity and then the merged
// result, so a negative qty can never decrement an existing line. On
// rejection the receiver is returned unchanged along with the error.
func (ls CartLines) Add(p Product, qty int) (CartLines, error) {
	if err := CheckQuantity(qty); err != nil {
		return ls, err
	}

	i := ls.index(p.ProductID)

	newQty := qty
	if i >= 0 {
		newQty += ls[i].Quantity
	}
	if err := CheckQuantity(newQty); err != nil {
		return ls, err
	}

	line := CartLine{
		ProductID:  p.ProductID,
		Name:       p.Name,
		ImageURL:   p.ImageURL,
		UnitPrice:  p.Price,
		PcsPerCase: p.PcsPerCase,
		Quantity:   newQty,
		Pricing:    slices.Clone(p.Pricing),
	}

	next := slices.Clone(ls)
	if i >= 0 {
		next[i] = line
		return next, nil
	}
	return append(next, line), nil
}

// SetQuantity sets the absolute quantity for the product's line. A
// missing line is a no-op and never raises, even for out-of-range
// values.
func (ls CartLines) SetQuantity(productID string, qty int) (CartLines, error) {
	i := ls.index(productID)
	if i < 0 {
		return ls, nil
	}

	if err := CheckQuantity(qty); err != nil {
		return ls, err
	}

	next := slices.Clone(ls)
	next[i].Quantity = qty
	return next, nil
}

// Remove deletes the product's line if present, no-op otherwise.
func (ls CartLines) Remove(productID string) CartLines {
	i := ls.index(productID)
	if i < 0 {
		return ls
	}
	return slices.Delete(slices.Clone(ls), i, i+1)
}

type CartAction string

const (
	CartActionAdd    CartAction = "add"
	CartActionUpdate CartAction = "update"
	CartActionRemove CartAction = "remove"
	CartActionClear  CartAction = "clear"
)

// A CartEvent records one successful cart mutation. ProductID and
// Quantity are empty for clear events.
type CartEvent struct {
	CartID    string
	Action    CartAction
	ProductID string
	Quantity  int
	At        time.Time
}

// A CartActivity is the back-office aggregate over one cart's events.
type CartActivity struct {
	CartID     string
	Events     int
	LastAction CartAction
	LastSeen   time.Time
}
