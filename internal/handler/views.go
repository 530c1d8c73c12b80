package handler

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/food-kart/internal/domain/cart"
	"github.com/xenking/food-kart/internal/domain/catalog"
	"github.com/xenking/food-kart/internal/domain/monitor"
	"github.com/xenking/food-kart/internal/domain/order"
	"github.com/xenking/food-kart/internal/domain/product"
)

// money renders an amount as a JSON number with two decimals.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// text accepts a JSON string or number, as form inputs send either.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*t = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*t = text(v)
		return nil
	}
	*t = text(s)
	return nil
}

type ProductView struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Code          string      `json:"code"`
	Price         json.Number `json:"price"`
	Category      string      `json:"category"`
	CategoryLabel string      `json:"categoryLabel"`
	Ingredients   string      `json:"ingredients"`
	ImageURL      string      `json:"imageUrl"`
	IsAvailable   bool        `json:"isAvailable"`
	CreatedAt     *time.Time  `json:"createdAt,omitempty"`
}

func productView(p product.Product) ProductView {
	v := ProductView{
		ID:            p.ID,
		Name:          p.Name,
		Code:          p.Code,
		Price:         money(p.Price),
		Category:      string(p.Category),
		CategoryLabel: p.Category.Label(),
		Ingredients:   p.Ingredients,
		ImageURL:      p.ImageURL,
		IsAvailable:   p.IsAvailable,
	}
	if !p.CreatedAt.IsZero() {
		t := p.CreatedAt
		v.CreatedAt = &t
	}
	return v
}

type CardView struct {
	Product  ProductView `json:"product"`
	Image    string      `json:"image"`
	Selected bool        `json:"selected"`
	Quantity int         `json:"quantity"`
}

func cardView(c catalog.Card) CardView {
	return CardView{
		Product:  productView(c.Product),
		Image:    c.Image,
		Selected: c.Selected,
		Quantity: c.Quantity,
	}
}

type TotalsView struct {
	ItemCount  int         `json:"itemCount"`
	TotalPrice json.Number `json:"totalPrice"`
	Currency   string      `json:"currency"`
}

func (h *Handler) totalsView(t cart.Totals) TotalsView {
	return TotalsView{
		ItemCount:  t.ItemCount,
		TotalPrice: money(t.TotalPrice),
		Currency:   h.cfg.Currency,
	}
}

type MenuView struct {
	Category string     `json:"category"`
	Title    string     `json:"title"`
	Cards    []CardView `json:"cards"`
	Totals   TotalsView `json:"totals"`
}

type CategoryView struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Label string `json:"label"`
}

type CardUpdateView struct {
	Card   CardView   `json:"card"`
	Totals TotalsView `json:"totals"`
}

type LineView struct {
	ProductID string      `json:"productId"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Price     json.Number `json:"price"`
	Quantity  int         `json:"quantity"`
	Subtotal  json.Number `json:"subtotal"`
}

type CartView struct {
	Lines  []LineView `json:"lines"`
	Totals TotalsView `json:"totals"`
}

func (h *Handler) cartView(c *cart.Cart) CartView {
	lines := c.Lines()
	v := CartView{Lines: make([]LineView, 0, len(lines)), Totals: h.totalsView(c.Totals())}
	for _, l := range lines {
		v.Lines = append(v.Lines, LineView{
			ProductID: l.ProductID,
			Code:      l.Code,
			Name:      l.Name,
			Price:     money(l.Price),
			Quantity:  l.Quantity,
			Subtotal:  money(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))),
		})
	}
	return v
}

type ItemView struct {
	Code     string      `json:"code"`
	Name     string      `json:"name"`
	Quantity int         `json:"quantity"`
	Price    json.Number `json:"price"`
	Subtotal json.Number `json:"subtotal"`
}

type OrderView struct {
	ID           string      `json:"id"`
	Items        []ItemView  `json:"items"`
	ProductCodes []string    `json:"productCodes"`
	ItemCount    int         `json:"itemCount"`
	TotalPrice   json.Number `json:"totalPrice"`
	CreatedAt    time.Time   `json:"createdAt"`
	Status       string      `json:"status"`
	CompletedAt  *time.Time  `json:"completedAt,omitempty"`
}

func orderView(o order.Order) OrderView {
	v := OrderView{
		ID:           o.ID,
		Items:        make([]ItemView, 0, len(o.Items)),
		ProductCodes: o.ProductCodes,
		ItemCount:    o.ItemCount(),
		TotalPrice:   money(o.TotalPrice),
		CreatedAt:    o.CreatedAt,
		Status:       string(o.Status),
		CompletedAt:  o.CompletedAt,
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, ItemView{
			Code:     it.Code,
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    money(it.Price),
			Subtotal: money(it.Subtotal()),
		})
	}
	return v
}

type StatsView struct {
	OrdersToday int `json:"ordersToday"`
	Pending     int `json:"pending"`
	Products    int `json:"products"`
}

type BoardView struct {
	Orders       []OrderView `json:"orders"`
	InvalidCount int         `json:"invalidCount"`
	HasInvalid   bool        `json:"hasInvalid"`
	Stats        StatsView   `json:"stats"`
}

func boardView(b monitor.Board) BoardView {
	v := BoardView{
		Orders:       make([]OrderView, 0, len(b.Orders)),
		InvalidCount: len(b.Invalid),
		HasInvalid:   b.HasInvalid,
		Stats: StatsView{
			OrdersToday: b.Stats.OrdersToday,
			Pending:     b.Stats.Pending,
			Products:    b.Stats.Products,
		},
	}
	for _, o := range b.Orders {
		v.Orders = append(v.Orders, orderView(o))
	}
	return v
}

type SectionView struct {
	Category string        `json:"category"`
	Title    string        `json:"title"`
	Products []ProductView `json:"products"`
}

func sectionViews(sections []catalog.Section) []SectionView {
	out := make([]SectionView, 0, len(sections))
	for _, s := range sections {
		sv := SectionView{
			Category: string(s.Category),
			Title:    s.Title,
			Products: make([]ProductView, 0, len(s.Products)),
		}
		for _, p := range s.Products {
			sv.Products = append(sv.Products, productView(p))
		}
		out = append(out, sv)
	}
	return out
}
