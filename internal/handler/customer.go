package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/xenking/food-kart/internal/domain/cart"
	"github.com/xenking/food-kart/internal/domain/product"
)

// SessionCookie identifies the customer's cart.
const SessionCookie = "kart_session"

// cartFor returns the caller's cart, issuing a session cookie on first use.
func (h *Handler) cartFor(w http.ResponseWriter, r *http.Request) *cart.Cart {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return h.Sessions.Get(c.Value)
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return h.Sessions.Get(id)
}

// Menu renders one category with the caller's selection.
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	category, err := product.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	c := h.cartFor(w, r)

	cards := h.Renderer.Menu(category, c)
	v := MenuView{
		Category: string(category),
		Title:    category.Title(),
		Cards:    make([]CardView, 0, len(cards)),
		Totals:   h.totalsView(c.Totals()),
	}
	for _, card := range cards {
		v.Cards = append(v.Cards, cardView(card))
	}
	respondJSON(w, http.StatusOK, v)
}

// Categories lists the fixed menu categories.
func (h *Handler) Categories(w http.ResponseWriter, _ *http.Request) {
	out := make([]CategoryView, 0, len(product.Categories))
	for _, c := range product.Categories {
		out = append(out, CategoryView{ID: string(c), Title: c.Title(), Label: c.Label()})
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.cartView(h.cartFor(w, r)))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c := h.cartFor(w, r)
	c.Clear()
	respondJSON(w, http.StatusOK, h.cartView(c))
}

func (h *Handler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	h.updateItem(w, r, (*cart.Cart).Toggle)
}

func (h *Handler) IncrementItem(w http.ResponseWriter, r *http.Request) {
	h.updateItem(w, r, (*cart.Cart).Increment)
}

func (h *Handler) DecrementItem(w http.ResponseWriter, r *http.Request) {
	h.updateItem(w, r, func(c *cart.Cart, id string) error {
		c.Decrement(id)
		return nil
	})
}

type quantityRequest struct {
	Quantity text `json:"quantity"`
}

func (h *Handler) SetItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n := cart.ParseQuantity(string(req.Quantity))
	h.updateItem(w, r, func(c *cart.Cart, id string) error {
		return c.SetQuantity(id, n)
	})
}

// updateItem applies one cart change and answers with just the affected card
// and the new totals.
func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request, apply func(*cart.Cart, string) error) {
	id := chi.URLParam(r, "productId")
	c := h.cartFor(w, r)
	if err := apply(c, id); err != nil {
		writeError(r.Context(), w, err, "Failed to update cart. Please try again.")
		return
	}
	card, err := h.Renderer.Card(id, c)
	if err != nil {
		writeError(r.Context(), w, err, "Failed to update cart. Please try again.")
		return
	}
	respondJSON(w, http.StatusOK, CardUpdateView{
		Card:   cardView(card),
		Totals: h.totalsView(c.Totals()),
	})
}

// PlacedView is returned after a successful checkout.
type PlacedView struct {
	Message string    `json:"message"`
	Order   OrderView `json:"order"`
}

// PlaceOrder submits the cart. Without confirmation it answers 428 with the
// order summary prompt.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	c := h.cartFor(w, r)
	o, err := h.Checkout.Submit(r.Context(), c, confirmer(r))
	if err != nil {
		writeError(r.Context(), w, err, "Failed to place order. Please try again.")
		return
	}
	respondJSON(w, http.StatusCreated, PlacedView{
		Message: "Order placed successfully!",
		Order:   orderView(o),
	})
}

// DismissConfirmation clears the cart after the configured delay.
func (h *Handler) DismissConfirmation(w http.ResponseWriter, r *http.Request) {
	h.cartFor(w, r).ClearAfter(h.cfg.DismissClearDelay)
	w.WriteHeader(http.StatusNoContent)
}
