// Package handler exposes the checkout workflow over HTTP. Handlers decode
// requests, delegate to the domain services and map domain errors to status
// codes; no business logic lives here.
package handler

import (
	"github.com/go-chi/chi/v5"

	"github.com/storekit/checkout/internal/domain/cart"
	"github.com/storekit/checkout/internal/domain/inventory"
	"github.com/storekit/checkout/internal/domain/order"
	"github.com/storekit/checkout/internal/domain/product"
	"github.com/storekit/checkout/pkg/httpmiddleware"
)

// Handler holds the domain services behind the HTTP surface.
type Handler struct {
	orders    *order.Service
	poller    *order.Poller
	carts     *cart.Service
	inventory *inventory.Service
	products  product.Repository
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	orders *order.Service,
	poller *order.Poller,
	carts *cart.Service,
	inv *inventory.Service,
	products product.Repository,
) *Handler {
	return &Handler{
		orders:    orders,
		poller:    poller,
		carts:     carts,
		inventory: inv,
		products:  products,
	}
}

// Routes mounts the API onto a router. Cart and checkout endpoints require a
// caller identity; catalog and admin inventory endpoints do not.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/api/products", h.ListProducts)
	r.Get("/api/products/{productID}", h.GetProduct)

	r.Group(func(r chi.Router) {
		r.Use(httpmiddleware.RequireUser)

		r.Get("/api/cart", h.GetCart)
		r.Post("/api/cart/items", h.AddCartItem)
		r.Put("/api/cart/items/{productID}", h.UpdateCartItem)
		r.Delete("/api/cart/items/{productID}", h.RemoveCartItem)
		r.Delete("/api/cart", h.ClearCart)

		r.Post("/api/checkout", h.Checkout)
	})

	r.Get("/api/orders/{orderID}", h.GetOrder)
	r.Post("/api/orders/{orderID}/reconcile", h.ReconcileOrder)
	r.Post("/api/orders/{orderID}/cancel", h.CancelOrder)

	r.Post("/api/inventory/{productID}/adjust", h.AdjustInventory)
	r.Get("/api/inventory/low-stock", h.LowStock)

	return r
}
