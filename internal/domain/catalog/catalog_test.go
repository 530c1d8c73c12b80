package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/food-kart/internal/docstore"
	"github.com/xenking/food-kart/internal/domain/confirm"
	"github.com/xenking/food-kart/internal/domain/product"
	"github.com/xenking/food-kart/internal/pkg/clock"
)

// --- Mock implementations ---

type selection map[string]int

func (s selection) Quantity(id string) int { return s[id] }

type recordingCollection struct {
	docstore.Collection
	added int
	err   error
}

func (r *recordingCollection) Add(ctx context.Context, data []byte) (string, error) {
	r.added++
	if r.err != nil {
		return "", r.err
	}
	return r.Collection.Add(ctx, data)
}

// --- Helpers ---

var testNow = time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)

func seedProducts() []product.Product {
	return []product.Product{
		{ID: "p1", Name: "Blueberry Muffin", Code: "20001", Price: decimal.RequireFromString("9"), Category: product.CategoryCroissants},
		{ID: "p2", Name: "Chicken Wrap", Code: "10001", Price: decimal.RequireFromString("18.5"), Category: product.CategorySandwiches, ImageURL: "wrap.jpg"},
		{ID: "p3", Name: "Latte", Code: "30001", Price: decimal.RequireFromString("14"), Category: product.CategoryCoffee, IsAvailable: false},
		{ID: "p4", Name: "Tuna Sandwich", Code: "10002", Price: decimal.RequireFromString("16"), Category: product.CategorySandwiches},
	}
}

func newTestEditor(t *testing.T) (*Editor, *Catalog, *recordingCollection) {
	t.Helper()
	c := New()
	c.Replace(seedProducts())
	coll := &recordingCollection{Collection: docstore.NewMemoryStore().Collection(docstore.Products)}
	return NewEditor(coll, c, clock.NewFake(testNow)), c, coll
}

// --- Tests ---

func TestRenderer_Menu(t *testing.T) {
	c := New()
	c.Replace(seedProducts())
	r := NewRenderer(c)

	cards := r.Menu(product.CategorySandwiches, selection{"p4": 2})
	require.Len(t, cards, 2)
	assert.Equal(t, "Chicken Wrap", cards[0].Product.Name)
	assert.False(t, cards[0].Selected)
	assert.Equal(t, "wrap.jpg", cards[0].Image)
	assert.True(t, cards[1].Selected)
	assert.Equal(t, 2, cards[1].Quantity)
	assert.Equal(t, product.PlaceholderImageURL, cards[1].Image)

	coffee := r.Menu(product.CategoryCoffee, selection{})
	require.Len(t, coffee, 1, "unavailable products are still listed")
}

func TestRenderer_Card(t *testing.T) {
	c := New()
	c.Replace(seedProducts())
	r := NewRenderer(c)

	card, err := r.Card("p1", selection{"p1": 3})
	require.NoError(t, err)
	assert.Equal(t, 3, card.Quantity)

	_, err = r.Card("nope", selection{})
	assert.True(t, errors.Is(err, product.ErrNotFound))
}

func TestValidate(t *testing.T) {
	existing := seedProducts()
	valid := Fields{Name: "Flat White", Code: "30002", Price: "15.5", Category: "coffee"}

	tests := []struct {
		name   string
		mutate func(f *Fields)
		check  func(t *testing.T, err error)
	}{
		{
			name:   "missing name",
			mutate: func(f *Fields) { f.Name = "  " },
			check: func(t *testing.T, err error) {
				var e *MissingFieldError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, "name", e.Field)
			},
		},
		{
			name:   "price not a number",
			mutate: func(f *Fields) { f.Price = "abc" },
			check: func(t *testing.T, err error) {
				var e *MissingFieldError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, "price", e.Field)
			},
		},
		{
			name:   "four digit code",
			mutate: func(f *Fields) { f.Code = "1234" },
			check: func(t *testing.T, err error) {
				var e *InvalidCodeFormatError
				require.ErrorAs(t, err, &e)
			},
		},
		{
			name:   "non digit code",
			mutate: func(f *Fields) { f.Code = "12a45" },
			check: func(t *testing.T, err error) {
				var e *InvalidCodeFormatError
				require.ErrorAs(t, err, &e)
			},
		},
		{
			name:   "zero price",
			mutate: func(f *Fields) { f.Price = "0" },
			check: func(t *testing.T, err error) {
				var e *InvalidPriceError
				require.ErrorAs(t, err, &e)
			},
		},
		{
			name:   "negative price",
			mutate: func(f *Fields) { f.Price = "-5" },
			check: func(t *testing.T, err error) {
				var e *InvalidPriceError
				require.ErrorAs(t, err, &e)
			},
		},
		{
			name:   "duplicate code",
			mutate: func(f *Fields) { f.Code = "10001" },
			check: func(t *testing.T, err error) {
				var e *DuplicateCodeError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, "Chicken Wrap", e.ProductName)
				assert.Equal(t, "Code 10001 already exists for product: Chicken Wrap", e.Error())
			},
		},
		{
			name:   "format checked before price",
			mutate: func(f *Fields) { f.Code = "1"; f.Price = "0" },
			check: func(t *testing.T, err error) {
				var e *InvalidCodeFormatError
				require.ErrorAs(t, err, &e)
			},
		},
		{
			name:   "unknown category",
			mutate: func(f *Fields) { f.Category = "pizza" },
			check: func(t *testing.T, err error) {
				var e *InvalidCategoryError
				require.ErrorAs(t, err, &e)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			_, err := Validate(f, existing)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			tt.check(t, err)
		})
	}
}

func TestValidate_Defaults(t *testing.T) {
	p, err := Validate(Fields{Name: "Cheese Croissant", Code: "20002", Price: "7.25"}, nil)
	require.NoError(t, err)
	assert.Equal(t, product.CategorySandwiches, p.Category)
	assert.Equal(t, product.DefaultImageURL, p.ImageURL)
	assert.Empty(t, p.Ingredients)
	assert.True(t, p.IsAvailable)
}

func TestEditor_AddProduct(t *testing.T) {
	ctx := context.Background()
	e, c, coll := newTestEditor(t)

	p, err := e.AddProduct(ctx, Fields{Name: "Americano", Code: "30002", Price: "11", Category: "coffee"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, testNow, p.CreatedAt)
	assert.Equal(t, 1, coll.added)
	assert.Equal(t, 5, c.Count())

	_, err = e.AddProduct(ctx, Fields{Name: "Americano Large", Code: "30002", Price: "13", Category: "coffee"})
	var dup *DuplicateCodeError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Americano", dup.ProductName)
	assert.Equal(t, 1, coll.added, "rejected input never reaches the store")
}

func TestEditor_AddProduct_StaleSnapshot(t *testing.T) {
	ctx := context.Background()
	e, c, coll := newTestEditor(t)

	added, err := e.AddProduct(ctx, Fields{Name: "Flat White", Code: "11111", Price: "15", Category: "coffee"})
	require.NoError(t, err)

	// A snapshot read before the insert arrives after it.
	c.Replace(seedProducts())
	_, ok := c.Product(added.ID)
	require.True(t, ok, "local add survives a stale snapshot")

	_, err = e.AddProduct(ctx, Fields{Name: "Flat White Large", Code: "11111", Price: "17", Category: "coffee"})
	var dup *DuplicateCodeError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Flat White", dup.ProductName)
	assert.Equal(t, 1, coll.added)

	docs, err := coll.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	// Once the feed has the product, the snapshot is authoritative again.
	c.Replace(append(seedProducts(), added))
	assert.Empty(t, c.pending)
	c.Replace(seedProducts())
	_, ok = c.Product(added.ID)
	assert.False(t, ok)
}

func TestEditor_DeleteProduct_StaleSnapshot(t *testing.T) {
	ctx := context.Background()
	e, c, _ := newTestEditor(t)

	require.NoError(t, e.DeleteProduct(ctx, "p1", confirm.Yes))
	c.Replace(seedProducts())
	_, ok := c.Product("p1")
	assert.False(t, ok, "deleted product stays hidden until the feed drops it")
	assert.Equal(t, 3, c.Count())

	c.Replace(seedProducts()[1:])
	assert.Empty(t, c.dropped)
}

func TestEditor_AddProduct_StoreFailure(t *testing.T) {
	e, c, coll := newTestEditor(t)
	coll.err = docstore.Fail("add", docstore.Products, errors.New("timeout"))

	_, err := e.AddProduct(context.Background(), Fields{Name: "Mocha", Code: "30003", Price: "15"})
	var pe *docstore.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 4, c.Count())
}

func TestEditor_DeleteProduct(t *testing.T) {
	ctx := context.Background()
	e, c, _ := newTestEditor(t)

	err := e.DeleteProduct(ctx, "p1", confirm.No)
	var req *confirm.RequiredError
	require.ErrorAs(t, err, &req)
	assert.Equal(t, DeleteProductPrompt, req.Prompt)
	assert.Equal(t, 4, c.Count())

	require.NoError(t, e.DeleteProduct(ctx, "p1", confirm.Yes))
	_, ok := c.Product("p1")
	assert.False(t, ok)
}

func TestEditor_EditUnsupported(t *testing.T) {
	e, _, _ := newTestEditor(t)
	_, err := e.EditProduct(context.Background(), "p1", Fields{})
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestCatalog_Watch(t *testing.T) {
	ctx := context.Background()
	coll := docstore.NewMemoryStore().Collection(docstore.Products)
	_, err := coll.Add(ctx, product.Encode(product.Product{Name: "Zaatar Wrap", Code: "10009", Price: decimal.NewFromInt(12), Category: product.CategorySandwiches}))
	require.NoError(t, err)
	_, err = coll.Add(ctx, product.Encode(product.Product{Name: "Avocado Toast", Code: "10008", Price: decimal.NewFromInt(20), Category: product.CategorySandwiches}))
	require.NoError(t, err)

	c := New()
	unsubscribe := c.Watch(coll.Feed(ByName), zap.NewNop())
	defer unsubscribe()

	select {
	case <-c.Loaded():
	case <-time.After(time.Second):
		t.Fatal("catalog not loaded")
	}
	require.Eventually(t, func() bool { return c.Count() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Avocado Toast", c.Products()[0].Name)
}

func TestSections(t *testing.T) {
	sections := Sections(seedProducts())
	require.Len(t, sections, 3)
	assert.Equal(t, "Sandwiches/Wraps", sections[0].Title)
	assert.Len(t, sections[0].Products, 2)
	assert.Equal(t, "Croissants/Muffins", sections[1].Title)
	assert.Len(t, sections[1].Products, 1)
	assert.Equal(t, "Starbucks Coffee", sections[2].Title)
}
