package catalog

import (
	"github.com/xenking/food-kart/internal/domain/product"
)

// Selection reports how many of a product the customer picked.
type Selection interface {
	Quantity(productID string) int
}

// Card is the rendered state of one product on the menu.
type Card struct {
	Product  product.Product
	Image    string
	Selected bool
	Quantity int
}

// Renderer builds menu views from the catalog.
type Renderer struct {
	catalog *Catalog
}

// NewRenderer returns a Renderer over c.
func NewRenderer(c *Catalog) *Renderer {
	return &Renderer{catalog: c}
}

// Menu renders every product of one category. isAvailable is not used for
// filtering.
func (r *Renderer) Menu(category product.Category, sel Selection) []Card {
	var cards []Card
	for _, p := range r.catalog.Products() {
		if p.Category != category {
			continue
		}
		cards = append(cards, cardFor(p, sel))
	}
	return cards
}

// Card renders a single product after its selection changed.
func (r *Renderer) Card(productID string, sel Selection) (Card, error) {
	p, ok := r.catalog.Product(productID)
	if !ok {
		return Card{}, product.ErrNotFound
	}
	return cardFor(p, sel), nil
}

func cardFor(p product.Product, sel Selection) Card {
	qty := sel.Quantity(p.ID)
	return Card{
		Product:  p,
		Image:    p.DisplayImage(),
		Selected: qty > 0,
		Quantity: qty,
	}
}
