package order

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Display fallbacks for incomplete item records.
const (
	UnknownItemName = "Unknown Item"
	UnknownItemCode = "N/A"
)

// Order is a submitted customer order.
type Order struct {
	ID    string
	Items []Item
	// ProductCodes is derived from Items at submission time.
	ProductCodes []string
	// TotalPrice is frozen at submission time.
	TotalPrice  decimal.Decimal
	CreatedAt   time.Time
	Status      Status
	CompletedAt *time.Time
}

// Item is an order line with the price captured when the order was placed.
type Item struct {
	Code     string
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// Subtotal returns price times quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ProductCode formats a line for the productCodes list: the bare code, or
// "CODE (qty)" when more than one was ordered.
func ProductCode(code string, quantity int) string {
	if quantity > 1 {
		return fmt.Sprintf("%s (%s)", code, strconv.Itoa(quantity))
	}
	return code
}

// ProductCodes derives the display list for items.
func ProductCodes(items []Item) []string {
	codes := make([]string, len(items))
	for i, it := range items {
		codes[i] = ProductCode(it.Code, it.Quantity)
	}
	return codes
}

// Total sums the item subtotals.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// ItemCount sums the item quantities.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// Pending reports whether the order still needs attention.
func (o Order) Pending() bool {
	return o.Status != StatusCompleted
}
