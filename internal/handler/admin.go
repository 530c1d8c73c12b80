package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/food-kart/internal/domain/auth"
	"github.com/xenking/food-kart/internal/domain/catalog"
	"github.com/xenking/food-kart/pkg/httpmiddleware"
)

type tokenKey struct{}

// bearerToken reads the admin session token. Event streams may pass it as
// access_token, since browsers cannot set headers on EventSource.
func bearerToken(r *http.Request) string {
	if v, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(v)
	}
	if httpmiddleware.IsEventStream(r) {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

// RequireAdmin rejects requests without a live admin session.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if err := h.Gate.Check(r.Context(), token); err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				respondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			zctx.From(r.Context()).Error("Failed to check admin session", zap.Error(err))
			respondError(w, http.StatusServiceUnavailable, "Failed to check session. Please try again.")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tokenKey{}, token)))
	})
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, err := h.Gate.Login(r.Context(), req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			respondError(w, http.StatusUnauthorized, "Incorrect password!")
			return
		}
		zctx.From(r.Context()).Error("Failed to create admin session", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "Failed to log in. Please try again.")
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{Token: token})
}

// Logout ends the session and every event stream opened with it.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := tokenFrom(r.Context())
	if err := h.Gate.Logout(r.Context(), token); err != nil {
		zctx.From(r.Context()).Error("Failed to end admin session", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "Failed to log out. Please try again.")
		return
	}
	h.streams.end(token)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Orders(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, boardView(h.Monitor.Board()))
}

func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.Monitor.CompleteOrder(r.Context(), chi.URLParam(r, "id"), confirmer(r)); err != nil {
		writeError(r.Context(), w, err, "Failed to mark order as completed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.Monitor.DeleteOrder(r.Context(), chi.URLParam(r, "id"), confirmer(r)); err != nil {
		writeError(r.Context(), w, err, "Failed to delete order")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cleanupResponse struct {
	Deleted int    `json:"deleted"`
	Message string `json:"message"`
}

func (h *Handler) CleanupOrders(w http.ResponseWriter, r *http.Request) {
	n, err := h.Monitor.BulkDeleteInvalid(r.Context(), confirmer(r))
	if err != nil {
		writeError(r.Context(), w, err, "Failed to clean up orders.")
		return
	}
	respondJSON(w, http.StatusOK, cleanupResponse{
		Deleted: n,
		Message: fmt.Sprintf("Deleted %d invalid orders.", n),
	})
}

// AdminProducts lists the catalog grouped into menu sections.
func (h *Handler) AdminProducts(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, sectionViews(catalog.Sections(h.Catalog.Products())))
}

type productRequest struct {
	Name        text `json:"name"`
	Code        text `json:"code"`
	Price       text `json:"price"`
	Category    text `json:"category"`
	Ingredients text `json:"ingredients"`
	ImageURL    text `json:"imageUrl"`
}

func (p productRequest) fields() catalog.Fields {
	return catalog.Fields{
		Name:        string(p.Name),
		Code:        string(p.Code),
		Price:       string(p.Price),
		Category:    string(p.Category),
		Ingredients: string(p.Ingredients),
		ImageURL:    string(p.ImageURL),
	}
}

type productAddedResponse struct {
	Message string      `json:"message"`
	Product ProductView `json:"product"`
}

func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.Editor.AddProduct(r.Context(), req.fields())
	if err != nil {
		writeError(r.Context(), w, err, "Failed to add product. Please try again.")
		return
	}
	respondJSON(w, http.StatusCreated, productAddedResponse{
		Message: "Product added successfully!",
		Product: productView(p),
	})
}

func (h *Handler) EditProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := h.Editor.EditProduct(r.Context(), chi.URLParam(r, "id"), req.fields()); err != nil {
		writeError(r.Context(), w, err, "Failed to update product. Please try again.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Editor.DeleteProduct(r.Context(), chi.URLParam(r, "id"), confirmer(r)); err != nil {
		writeError(r.Context(), w, err, "Failed to delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
