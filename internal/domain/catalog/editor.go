package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/food-kart/internal/docstore"
	"github.com/xenking/food-kart/internal/domain/confirm"
	"github.com/xenking/food-kart/internal/domain/product"
	"github.com/xenking/food-kart/internal/pkg/clock"
)

// DeleteProductPrompt is asked before a product is removed.
const DeleteProductPrompt = "Are you sure you want to delete this product? It will be removed from the menu."

// Fields is the raw input of the add-product form.
type Fields struct {
	Name        string
	Code        string
	Price       string
	Category    string
	Ingredients string
	ImageURL    string
}

// Editor validates and applies admin changes to the catalog.
type Editor struct {
	products docstore.Collection
	catalog  *Catalog
	clock    clock.Clock

	// Serializes adds so two concurrent inserts cannot share a code.
	mu sync.Mutex
}

// NewEditor returns an Editor writing to products and validating against c.
func NewEditor(products docstore.Collection, c *Catalog, clk clock.Clock) *Editor {
	return &Editor{products: products, catalog: c, clock: clk}
}

// Validate runs the add-product checks in order and returns the first
// failure: required fields, code format, price, duplicate code and category.
func Validate(f Fields, existing []product.Product) (product.Product, error) {
	name := strings.TrimSpace(f.Name)
	code := strings.TrimSpace(f.Code)
	if name == "" {
		return product.Product{}, &MissingFieldError{Field: "name"}
	}
	if code == "" {
		return product.Product{}, &MissingFieldError{Field: "code"}
	}
	price, err := decimal.NewFromString(strings.TrimSpace(f.Price))
	if err != nil {
		return product.Product{}, &MissingFieldError{Field: "price"}
	}

	if !isProductCode(code) {
		return product.Product{}, &InvalidCodeFormatError{Code: code}
	}
	if !price.IsPositive() {
		return product.Product{}, &InvalidPriceError{Price: price}
	}
	if dup, ok := product.FindByCode(existing, code); ok {
		return product.Product{}, &DuplicateCodeError{Code: code, ProductName: dup.Name}
	}
	category, err := product.ParseCategory(strings.TrimSpace(f.Category))
	if err != nil {
		return product.Product{}, &InvalidCategoryError{Category: f.Category}
	}

	imageURL := strings.TrimSpace(f.ImageURL)
	if imageURL == "" {
		imageURL = product.DefaultImageURL
	}
	return product.Product{
		Name:        name,
		Code:        code,
		Price:       price,
		Category:    category,
		Ingredients: strings.TrimSpace(f.Ingredients),
		ImageURL:    imageURL,
		IsAvailable: true,
	}, nil
}

// AddProduct validates f against the loaded catalog and inserts the product.
// Nothing reaches the store when validation fails.
func (e *Editor) AddProduct(ctx context.Context, f Fields) (product.Product, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := Validate(f, e.catalog.Products())
	if err != nil {
		return product.Product{}, err
	}
	p.CreatedAt = e.clock.Now()

	id, err := e.products.Add(ctx, product.Encode(p))
	if err != nil {
		zctx.From(ctx).Error("Failed to add product", zap.String("code", p.Code), zap.Error(err))
		return product.Product{}, err
	}
	p.ID = id
	e.catalog.put(p)

	zctx.From(ctx).Info("Product added",
		zap.String("product_id", id),
		zap.String("code", p.Code),
		zap.String("category", string(p.Category)),
	)
	return p, nil
}

// DeleteProduct removes a product after confirmation. Past orders keep their
// own copy of the item, so nothing else is touched.
func (e *Editor) DeleteProduct(ctx context.Context, id string, c confirm.Confirmer) error {
	if err := confirm.Ask(ctx, c, DeleteProductPrompt); err != nil {
		return err
	}
	if err := e.products.Delete(ctx, id); err != nil {
		zctx.From(ctx).Error("Failed to delete product", zap.String("product_id", id), zap.Error(err))
		return err
	}
	e.catalog.drop(id)
	return nil
}

// EditProduct is not available yet.
func (e *Editor) EditProduct(context.Context, string, Fields) (product.Product, error) {
	return product.Product{}, ErrUnsupported
}

func isProductCode(s string) bool {
	if len(s) != 5 {
		return false
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
