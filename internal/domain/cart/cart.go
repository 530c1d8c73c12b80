// Package cart implements the customer's working selection: line items keyed
// by product, quantity steppers, totals and order construction.
package cart

import (
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/food-kart/internal/domain/order"
	"github.com/xenking/food-kart/internal/domain/product"
	"github.com/xenking/food-kart/internal/pkg/clock"
)

// EmptyCartError is returned when an order is built from an empty cart.
type EmptyCartError struct{}

func (*EmptyCartError) Error() string { return "cart is empty" }

// ErrEmptyCart is the EmptyCartError value returned by BuildOrder.
var ErrEmptyCart error = &EmptyCartError{}

// Products resolves product identifiers to catalog entries.
type Products interface {
	Product(id string) (product.Product, bool)
}

// Line is a selected product. Quantity is always at least 1.
type Line struct {
	ProductID string
	Code      string
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

// Totals summarises the cart.
type Totals struct {
	ItemCount  int
	TotalPrice decimal.Decimal
}

// Cart holds line items in selection order, at most one per product. It is
// safe for concurrent use.
type Cart struct {
	products Products
	clock    clock.Clock

	mu         sync.Mutex
	lines      []Line
	clearTimer clock.Timer
}

// New returns an empty cart resolving products through p.
func New(p Products, c clock.Clock) *Cart {
	return &Cart{products: p, clock: c}
}

// Toggle removes the product if present, otherwise adds it with quantity 1.
func (c *Cart) Toggle(productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.index(productID); i >= 0 {
		c.remove(i)
		return nil
	}
	return c.insert(productID, 1)
}

// Increment adds one, inserting the product if absent.
func (c *Cart) Increment(productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.index(productID); i >= 0 {
		c.lines[i].Quantity++
		return nil
	}
	return c.insert(productID, 1)
}

// Decrement removes one, dropping the line when it reaches zero. It is a
// no-op for products not in the cart.
func (c *Cart) Decrement(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(productID)
	switch {
	case i < 0:
	case c.lines[i].Quantity > 1:
		c.lines[i].Quantity--
	default:
		c.remove(i)
	}
}

// SetQuantity sets the quantity, inserting when absent. n <= 0 removes the
// line.
func (c *Cart) SetQuantity(productID string, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(productID)
	switch {
	case n <= 0:
		if i >= 0 {
			c.remove(i)
		}
		return nil
	case i >= 0:
		c.lines[i].Quantity = n
		return nil
	default:
		return c.insert(productID, n)
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Quantity returns the quantity of a product, 0 when not selected.
func (c *Cart) Quantity(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(productID); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

// Lines returns a copy of the line items in selection order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.lines)
}

// Totals computes item count and total price from the current lines.
func (c *Cart) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return totals(c.lines)
}

// BuildOrder snapshots the cart into a pending order draft. Prices are the
// ones captured when each line was added. The cart is left unchanged.
func (c *Cart) BuildOrder() (order.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.lines) == 0 {
		return order.Order{}, ErrEmptyCart
	}
	items := make([]order.Item, len(c.lines))
	for i, l := range c.lines {
		items[i] = order.Item{Code: l.Code, Name: l.Name, Quantity: l.Quantity, Price: l.Price}
	}
	return order.Order{
		Items:        items,
		ProductCodes: order.ProductCodes(items),
		TotalPrice:   totals(c.lines).TotalPrice,
		CreatedAt:    c.clock.Now(),
		Status:       order.StatusPending,
	}, nil
}

func (c *Cart) index(productID string) int {
	return slices.IndexFunc(c.lines, func(l Line) bool { return l.ProductID == productID })
}

func (c *Cart) remove(i int) {
	c.lines = slices.Delete(c.lines, i, i+1)
}

func (c *Cart) insert(productID string, qty int) error {
	p, ok := c.products.Product(productID)
	if !ok {
		return errors.Wrapf(product.ErrNotFound, "product %s", productID)
	}
	c.lines = append(c.lines, Line{
		ProductID: p.ID,
		Code:      p.Code,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  qty,
	})
	return nil
}

func totals(lines []Line) Totals {
	t := Totals{TotalPrice: decimal.Zero}
	for _, l := range lines {
		t.ItemCount += l.Quantity
		t.TotalPrice = t.TotalPrice.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return t
}

// ParseQuantity reads a quantity typed by the user. Leading whitespace and
// an optional sign are skipped and the leading digits are used, so "3x"
// reads as 3 and "2.5" as 2. Input without leading digits, or a zero,
// counts as 1.
func ParseQuantity(s string) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	sign := ""
	if s != "" && (s[0] == '-' || s[0] == '+') {
		sign, s = s[:1], s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(sign + s[:end])
	if err != nil || n == 0 {
		return 1
	}
	return n
}

// ClearAfter empties the cart once d has elapsed. A later call replaces the
// pending one.
func (c *Cart) ClearAfter(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.clearTimer != nil {
		c.clearTimer.Stop()
	}
	c.clearTimer = c.clock.AfterFunc(d, c.Clear)
}
