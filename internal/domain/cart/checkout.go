package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/food-kart/internal/docstore"
	"github.com/xenking/food-kart/internal/domain/confirm"
	"github.com/xenking/food-kart/internal/domain/order"
)

// Checkout submits carts to the order collection.
type Checkout struct {
	orders   docstore.Collection
	currency string
}

// NewCheckout returns a Checkout writing to orders. Prices in prompts are
// labelled with currency.
func NewCheckout(orders docstore.Collection, currency string) *Checkout {
	return &Checkout{orders: orders, currency: currency}
}

// Prompt is the confirmation question for submitting c.
func (k *Checkout) Prompt(c *Cart) string {
	t := c.Totals()
	return fmt.Sprintf("Place order for %d items? Total: %s %s", t.ItemCount, t.TotalPrice.StringFixed(2), k.currency)
}

// Submit builds an order from c, asks for confirmation and persists it. The
// cart is cleared only after the store accepted the order; on failure it is
// left intact so the customer can retry.
func (k *Checkout) Submit(ctx context.Context, c *Cart, confirmer confirm.Confirmer) (order.Order, error) {
	o, err := c.BuildOrder()
	if err != nil {
		return order.Order{}, err
	}
	if err := confirm.Ask(ctx, confirmer, k.Prompt(c)); err != nil {
		return order.Order{}, err
	}

	id, err := k.orders.Add(ctx, order.Encode(o))
	if err != nil {
		zctx.From(ctx).Error("Failed to place order",
			zap.Int("items", o.ItemCount()),
			zap.String("total", o.TotalPrice.String()),
			zap.Error(err),
		)
		return order.Order{}, err
	}
	o.ID = id
	c.Clear()

	zctx.From(ctx).Info("Order placed",
		zap.String("order_id", id),
		zap.Strings("codes", o.ProductCodes),
		zap.String("total", o.TotalPrice.String()),
	)
	return o, nil
}

