package product

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Default image references.
const (
	// DefaultImageURL is stored when a product is added without an image.
	DefaultImageURL = "https://images.unsplash.com/photo-1576866209830-589e1bfbaa4d?w=400&h=300&fit=crop"
	// PlaceholderImageURL is shown on menu cards for products without an image.
	PlaceholderImageURL = "https://via.placeholder.com/400x300"
)

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Name        string
	Code        string
	Price       decimal.Decimal
	Category    Category
	Ingredients string
	ImageURL    string
	// IsAvailable is stored and returned but does not filter the menu.
	IsAvailable bool
	CreatedAt   time.Time
}

// DisplayImage returns the image to render on a menu card.
func (p Product) DisplayImage() string {
	if p.ImageURL == "" {
		return PlaceholderImageURL
	}
	return p.ImageURL
}

// FindByCode returns the product with the given code.
func FindByCode(products []Product, code string) (Product, bool) {
	for _, p := range products {
		if p.Code == code {
			return p, true
		}
	}
	return Product{}, false
}

// FindByID returns the product with the given identifier.
func FindByID(products []Product, id string) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
