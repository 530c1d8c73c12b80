package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/food-kart/internal/docstore"
	"github.com/xenking/food-kart/internal/domain/auth"
	"github.com/xenking/food-kart/internal/domain/cart"
	"github.com/xenking/food-kart/internal/domain/catalog"
	"github.com/xenking/food-kart/internal/domain/confirm"
	"github.com/xenking/food-kart/internal/domain/monitor"
	"github.com/xenking/food-kart/internal/domain/order"
	"github.com/xenking/food-kart/internal/domain/product"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	// Prompt is the question to confirm before retrying with X-Confirm.
	Prompt string `json:"prompt,omitempty"`
}

// MessageResponse acknowledges an action with a user-facing notice.
type MessageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Code: status, Message: message})
}

// writeError maps a domain error to its HTTP response. failure is the notice
// shown when the store could not be reached.
func writeError(ctx context.Context, w http.ResponseWriter, err error, failure string) {
	var (
		required  *confirm.RequiredError
		duplicate *catalog.DuplicateCodeError
		empty     *cart.EmptyCartError
		shape     *order.DataShapeError
		persist   *docstore.PersistenceError
	)
	switch {
	case errors.As(err, &required):
		respondJSON(w, http.StatusPreconditionRequired, ErrorResponse{
			Code:    http.StatusPreconditionRequired,
			Message: "confirmation required",
			Prompt:  required.Prompt,
		})
	case errors.As(err, &duplicate):
		respondError(w, http.StatusUnprocessableEntity, duplicate.Error())
	case errors.Is(err, catalog.ErrValidation):
		respondError(w, http.StatusBadRequest, validationMessage(err))
	case errors.As(err, &empty):
		respondError(w, http.StatusUnprocessableEntity, "Cart is empty")
	case errors.Is(err, product.ErrNotFound), errors.Is(err, docstore.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.As(err, &shape):
		respondError(w, http.StatusUnprocessableEntity, shape.Error())
	case errors.Is(err, monitor.ErrAlreadyCompleted):
		respondError(w, http.StatusConflict, "Order is already completed")
	case errors.Is(err, auth.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, catalog.ErrUnsupported):
		respondError(w, http.StatusNotImplemented, "Edit functionality coming soon!")
	case errors.As(err, &persist):
		respondError(w, http.StatusServiceUnavailable, failure)
	default:
		zctx.From(ctx).Error("Unhandled error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a JSON body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// confirmer approves prompts when the request carries X-Confirm: true or
// ?confirm=true.
func confirmer(r *http.Request) confirm.Confirmer {
	v := r.Header.Get("X-Confirm")
	if v == "" {
		v = r.URL.Query().Get("confirm")
	}
	ok, _ := strconv.ParseBool(v)
	return confirm.Static(ok)
}

func validationMessage(err error) string {
	var (
		missing  *catalog.MissingFieldError
		code     *catalog.InvalidCodeFormatError
		price    *catalog.InvalidPriceError
		category *catalog.InvalidCategoryError
	)
	switch {
	case errors.As(err, &missing):
		return "Please fill in name, code, and price"
	case errors.As(err, &code):
		return "Code must be exactly 5 digits"
	case errors.As(err, &price):
		return "Price must be greater than 0"
	case errors.As(err, &category):
		return "Please choose a valid category"
	default:
		return err.Error()
	}
}
