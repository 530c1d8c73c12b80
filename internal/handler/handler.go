// Package handler exposes the customer menu and the admin panel over HTTP.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/food-kart/internal/domain/auth"
	"github.com/xenking/food-kart/internal/domain/cart"
	"github.com/xenking/food-kart/internal/domain/catalog"
	"github.com/xenking/food-kart/internal/domain/monitor"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// DismissClearDelay is how long the cart survives after the customer
	// dismisses the order confirmation.
	DismissClearDelay time.Duration
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
	// Currency labels prices in responses.
	Currency string
}

// Deps are the domain services the handlers delegate to.
type Deps struct {
	Catalog  *catalog.Catalog
	Renderer *catalog.Renderer
	Editor   *catalog.Editor
	Sessions *cart.Sessions
	Checkout *cart.Checkout
	Monitor  *monitor.Monitor
	Gate     *auth.Gate
}

// Handler serves the customer and admin APIs.
type Handler struct {
	Deps
	cfg     Config
	streams *streams
}

// NewHandler constructs a Handler.
func NewHandler(cfg Config, deps Deps) *Handler {
	return &Handler{
		Deps:    deps,
		cfg:     cfg,
		streams: newStreams(),
	}
}

// Router returns the API routes, to be mounted under /api.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/menu", h.Menu)
	r.Get("/menu/categories", h.Categories)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items/{productId}/toggle", h.ToggleItem)
		r.Post("/items/{productId}/increment", h.IncrementItem)
		r.Post("/items/{productId}/decrement", h.DecrementItem)
		r.Put("/items/{productId}", h.SetItemQuantity)
	})

	r.Post("/orders", h.PlaceOrder)
	r.Post("/orders/confirmation/dismiss", h.DismissConfirmation)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin)
			r.Post("/logout", h.Logout)

			r.Get("/orders", h.Orders)
			r.Get("/orders/stream", h.OrderStream)
			r.Post("/orders/cleanup", h.CleanupOrders)
			r.Post("/orders/{id}/complete", h.CompleteOrder)
			r.Delete("/orders/{id}", h.DeleteOrder)

			r.Get("/products", h.AdminProducts)
			r.Post("/products", h.AddProduct)
			r.Put("/products/{id}", h.EditProduct)
			r.Delete("/products/{id}", h.DeleteProduct)
		})
	})
	return r
}

// Close ends every open event stream.
func (h *Handler) Close() {
	h.streams.closeAll()
}
