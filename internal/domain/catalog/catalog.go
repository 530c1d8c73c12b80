// Package catalog keeps the product list loaded from the store, renders the
// customer menu from it and validates admin edits against it.
package catalog

import (
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/xenking/food-kart/internal/docstore"
	"github.com/xenking/food-kart/internal/domain/product"
)

// ByName is the feed query the catalog is loaded with.
var ByName = docstore.Query{OrderBy: "name", Direction: docstore.Asc}

// Catalog is the in-memory product list. Each store snapshot replaces it
// whole, except for local edits the feed has not caught up with yet.
type Catalog struct {
	mu       sync.RWMutex
	products []product.Product
	// Added and deleted here but not yet reflected by a snapshot.
	pending map[string]product.Product
	dropped map[string]struct{}

	loaded chan struct{}
	once   sync.Once
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		pending: make(map[string]product.Product),
		dropped: make(map[string]struct{}),
		loaded:  make(chan struct{}),
	}
}

// Watch keeps the catalog in sync with feed until the returned function is
// called. Undecodable documents are logged and left out.
func (c *Catalog) Watch(feed docstore.ChangeFeed, lg *zap.Logger) docstore.Unsubscribe {
	return feed.Subscribe(func(docs []docstore.Document) {
		products, skipped := product.DecodeAll(docs)
		if skipped > 0 {
			lg.Warn("Skipped malformed products", zap.Int("count", skipped))
		}
		c.Replace(products)
	}, func(err error) {
		lg.Error("Product feed failed", zap.Error(err))
	})
}

// Replace swaps in a new product list. A snapshot loaded before a local add
// or delete landed does not undo it: added products stay until a snapshot
// contains them, deleted ones stay hidden until a snapshot omits them.
func (c *Catalog) Replace(products []product.Product) {
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		seen[p.ID] = struct{}{}
	}

	c.mu.Lock()
	for id := range c.pending {
		if _, ok := seen[id]; ok {
			delete(c.pending, id)
		}
	}
	for id := range c.dropped {
		if _, ok := seen[id]; !ok {
			delete(c.dropped, id)
		}
	}
	merged := slices.DeleteFunc(slices.Clone(products), func(p product.Product) bool {
		_, gone := c.dropped[p.ID]
		return gone
	})
	for _, p := range c.pending {
		merged = insertByName(merged, p)
	}
	c.products = merged
	c.mu.Unlock()
	c.once.Do(func() { close(c.loaded) })
}

// Loaded is closed after the first snapshot arrived.
func (c *Catalog) Loaded() <-chan struct{} { return c.loaded }

// Products returns a copy of the list, ordered by name.
func (c *Catalog) Products() []product.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.products)
}

// Product looks up a product by identifier.
func (c *Catalog) Product(id string) (product.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return product.FindByID(c.products, id)
}

// Count returns the number of products.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// put inserts p ahead of the next snapshot so back-to-back edits see it.
func (c *Catalog) put(p product.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[p.ID] = p
	delete(c.dropped, p.ID)
	c.products = insertByName(slices.Clone(c.products), p)
}

// drop removes a product ahead of the next snapshot.
func (c *Catalog) drop(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
	c.dropped[id] = struct{}{}
	c.products = slices.DeleteFunc(slices.Clone(c.products), func(x product.Product) bool { return x.ID == id })
}

// insertByName replaces or inserts p keeping products ordered by name.
func insertByName(products []product.Product, p product.Product) []product.Product {
	products = slices.DeleteFunc(products, func(x product.Product) bool { return x.ID == p.ID })
	i, _ := slices.BinarySearchFunc(products, p, func(a, b product.Product) int {
		return strings.Compare(a.Name, b.Name)
	})
	return slices.Insert(products, i, p)
}

// Section is one category block of the admin product list.
type Section struct {
	Category product.Category
	Title    string
	Products []product.Product
}

// Sections groups products by category in menu order. Products with a
// category outside the fixed set are not listed.
func Sections(products []product.Product) []Section {
	out := make([]Section, 0, len(product.Categories))
	for _, cat := range product.Categories {
		s := Section{Category: cat, Title: cat.Title()}
		for _, p := range products {
			if p.Category == cat {
				s.Products = append(s.Products, p)
			}
		}
		out = append(out, s)
	}
	return out
}
