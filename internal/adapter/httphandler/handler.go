package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/northpack/cartapi/internal/core/domain"
	"github.com/northpack/cartapi/internal/core/port"
)

// GET    v1/carts/{cartID} (200 OK)
// POST   v1/carts/{cartID}/items JSON {product_id, quantity} (200 OK, 404, 422)
// PUT    v1/carts/{cartID}/items/{productID} JSON {quantity} (200 OK, 422)
// DELETE v1/carts/{cartID}/items/{productID} (200 OK)
// DELETE v1/carts/{cartID} (200 OK)

type CartsHandler struct {
	cReader  port.CartReader
	cMutator port.CartMutator
}

func RegisterCarts(
	mux *http.ServeMux, cReader port.CartReader, cMutator port.CartMutator,
) {
	h := CartsHandler{cReader, cMutator}
	mux.HandleFunc("GET /v1/carts/{cartID}", h.GetCart)
	mux.HandleFunc("POST /v1/carts/{cartID}/items", h.AddItem)
	mux.HandleFunc("PUT /v1/carts/{cartID}/items/{productID}", h.UpdateItem)
	mux.HandleFunc("DELETE /v1/carts/{cartID}/items/{productID}", h.RemoveItem)
	mux.HandleFunc("DELETE /v1/carts/{cartID}", h.ClearCart)
}

func (h CartsHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartsHandler.GetCart"
	log := slog.With("op", op)

	cartID := r.PathValue("cartID")
	ls, err := h.cReader.GetCart(r.Context(), cartID)
	if err != nil {
		writeCartError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, toCartView(cartID, ls))
}

func (h CartsHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartsHandler.AddItem"
	log := slog.With("op", op)

	var req AddItemRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	cartID := r.PathValue("cartID")
	ls, err := h.cMutator.AddToCart(r.Context(), cartID, req.ProductID, qty)
	if err != nil {
		writeCartError(w, log, err)
		return
	}

	log.Info("item added", "cartID", cartID, "productID", req.ProductID)
	writeJSON(w, log, http.StatusOK, toCartView(cartID, ls))
}

func (h CartsHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartsHandler.UpdateItem"
	log := slog.With("op", op)

	var req UpdateItemRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	cartID := r.PathValue("cartID")
	productID := r.PathValue("productID")
	ls, err := h.cMutator.UpdateQuantity(
		r.Context(), cartID, productID, req.Quantity,
	)
	if err != nil {
		writeCartError(w, log, err)
		return
	}

	log.Info("item updated", "cartID", cartID, "productID", productID)
	writeJSON(w, log, http.StatusOK, toCartView(cartID, ls))
}

func (h CartsHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartsHandler.RemoveItem"
	log := slog.With("op", op)

	cartID := r.PathValue("cartID")
	productID := r.PathValue("productID")
	ls, err := h.cMutator.RemoveFromCart(r.Context(), cartID, productID)
	if err != nil {
		writeCartError(w, log, err)
		return
	}

	log.Info("item removed", "cartID", cartID, "productID", productID)
	writeJSON(w, log, http.StatusOK, toCartView(cartID, ls))
}

func (h CartsHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartsHandler.ClearCart"
	log := slog.With("op", op)

	cartID := r.PathValue("cartID")
	ls, err := h.cMutator.ClearCart(r.Context(), cartID)
	if err != nil {
		writeCartError(w, log, err)
		return
	}

	log.Info("cart cleared", "cartID", cartID)
	writeJSON(w, log, http.StatusOK, toCartView(cartID, ls))
}

// POST v1/products JSON (response 202 Accepted, 400 Bad request)
// GET  v1/products/{productID} (200 OK, 404 Not found)

type ProductsHandler struct {
	pSaver    port.ProductsSaver
	pProvider port.ProductProvider
}

func RegisterProducts(
	mux *http.ServeMux, pSaver port.ProductsSaver, pProvider port.ProductProvider,
) {
	h := ProductsHandler{pSaver, pProvider}
	mux.HandleFunc("POST /v1/products", h.PostProducts)
	mux.HandleFunc("GET /v1/products/{productID}", h.GetProduct)
}

func (h ProductsHandler) PostProducts(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.PostProducts"
	log := slog.With("op", op)

	var ps []Product
	err := json.NewDecoder(r.Body).Decode(&ps)
	if err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	err = h.pSaver.SaveProducts(r.Context(), toDomainProducts(ps))
	if err != nil {
		http.Error(
			w, "failed to accept products", http.StatusServiceUnavailable,
		)
		log.Error("failed to save products", "err", err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	if _, err = w.Write([]byte("Accepted")); err != nil {
		log.Error("failed to write response body", "err", err)
		return
	}

	log.Info("accepted", "nProducts", len(ps))
}

func (h ProductsHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.GetProduct"
	log := slog.With("op", op)

	p, err := h.pProvider.GetProduct(r.Context(), r.PathValue("productID"))
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to read product", http.StatusServiceUnavailable)
		log.Error("failed to read product", "err", err)
		return
	}

	writeJSON(w, log, http.StatusOK, toProductView(p))
}

// GET v1/backoffice/carts/{cartID}/activity (200 OK, 204 No content)

type BackofficeHandler struct {
	activity port.CartActivityProvider
}

func RegisterBackoffice(
	mux *http.ServeMux, activity port.CartActivityProvider,
) {
	h := BackofficeHandler{activity}
	mux.HandleFunc(
		"GET /v1/backoffice/carts/{cartID}/activity", h.GetCartActivity,
	)
}

func (h BackofficeHandler) GetCartActivity(
	w http.ResponseWriter, r *http.Request,
) {
	const op = "BackofficeHandler.GetCartActivity"
	log := slog.With("op", op)

	a, err := h.activity.CartActivity(r.Context(), r.PathValue("cartID"))
	if err != nil {
		if errors.Is(err, domain.ErrNoActivity) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Error(w, "failed to read activity", http.StatusServiceUnavailable)
		log.Error("failed to read activity", "err", err)
		return
	}

	writeJSON(w, log, http.StatusOK, CartActivity{
		CartID:     a.CartID,
		Events:     a.Events,
		LastAction: string(a.LastAction),
		LastSeen:   a.LastSeen,
	})
}

func writeCartError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrQuantityLimit):
		writeJSON(w, log, http.StatusUnprocessableEntity, Warning{
			Warning: fmt.Sprintf(
				"cannot order more than %d cases of a single product, "+
					"please contact our office for larger orders",
				domain.MaxCasesPerLine,
			),
		})
	case errors.Is(err, domain.ErrQuantityNotPositive):
		writeJSON(w, log, http.StatusUnprocessableEntity, Warning{
			Warning: "quantity must be at least 1 case",
		})
	case errors.Is(err, domain.ErrProductNotFound):
		http.Error(w, "product not found", http.StatusNotFound)
	default:
		http.Error(w, "cart is unavailable", http.StatusServiceUnavailable)
		log.Error("cart operation failed", "err", err)
	}
}

func writeJSON(
	w http.ResponseWriter, log *slog.Logger, status int, v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}

func toCartView(cartID string, ls domain.CartLines) Cart {
	lines := make([]CartLine, len(ls))
	for i, l := range ls {
		lines[i] = CartLine{
			ProductID:     l.ProductID,
			Name:          l.Name,
			ImageURL:      l.ImageURL,
			Quantity:      l.Quantity,
			PcsPerCase:    l.PcsPerCase,
			UnitPrice:     l.Price().Display(),
			LineTotal:     l.Total().Display(),
			ContactOffice: l.Price().ContactOffice,
			Pricing:       toTierViews(l.Pricing),
		}
	}

	total, allPriced := ls.Total()
	return Cart{
		CartID:       cartID,
		Lines:        lines,
		Total:        strconv.FormatFloat(total, 'f', 2, 64),
		TotalPartial: !allPriced,
	}
}

func toProductView(p domain.Product) Product {
	return Product{
		ProductID:  p.ProductID,
		Name:       p.Name,
		ImageURL:   p.ImageURL,
		Price:      p.Price,
		BulkPrice:  p.BulkPrice,
		PcsPerCase: p.PcsPerCase,
		BasePrice:  domain.BaselineTier(p.Pricing).Display(),
		Pricing:    toTierViews(p.Pricing),
	}
}

func toTierViews(ts []domain.PricingTier) []PricingTier {
	vs := make([]PricingTier, len(ts))
	for i, t := range ts {
		vs[i] = PricingTier{
			CaseRange:    t.CaseRange,
			PricePerUnit: t.PricePerUnit,
		}
	}
	return vs
}

func toDomainProducts(ps []Product) (domainPs []domain.Product) {
	for _, p := range ps {
		dp := domain.Product{
			ProductID:  p.ProductID,
			Name:       p.Name,
			ImageURL:   p.ImageURL,
			Price:      p.Price,
			BulkPrice:  p.BulkPrice,
			PcsPerCase: p.PcsPerCase,
		}

		dp.Pricing = make([]domain.PricingTier, len(p.Pricing))
		for i := range p.Pricing {
			dp.Pricing[i].CaseRange = p.Pricing[i].CaseRange
			dp.Pricing[i].PricePerUnit = p.Pricing[i].PricePerUnit
		}
		domainPs = append(domainPs, dp)
	}
	return domainPs
}
