package main

import (
	"context"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/food-kart/internal/docstore"
	"github.com/xenking/food-kart/internal/domain/catalog"
	"github.com/xenking/food-kart/internal/domain/product"
	"github.com/xenking/food-kart/internal/pkg/clock"
)

const (
	bloomCapacity = 100_000
	bloomFPR      = 0.001
)

type report struct {
	Added      int
	Duplicates int
	Rejected   int
}

// importer adds products through the catalog editor. Known codes are kept in
// a bloom filter so most new codes skip the exact lookup.
type importer struct {
	editor  *catalog.Editor
	catalog *catalog.Catalog
	seen    *bloom.BloomFilter
	codes   map[string]string
	lg      *zap.Logger
}

func newImporter(ctx context.Context, products docstore.Collection, lg *zap.Logger) (*importer, error) {
	docs, err := products.Get(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load existing products")
	}
	existing, skipped := product.DecodeAll(docs)
	if skipped > 0 {
		lg.Warn("Skipped unreadable products", zap.Int("count", skipped))
	}

	cat := catalog.New()
	cat.Replace(existing)
	im := &importer{
		editor:  catalog.NewEditor(products, cat, clock.RealClock{}),
		catalog: cat,
		seen:    bloom.NewWithEstimates(uint(max(bloomCapacity, 2*len(existing))), bloomFPR),
		codes:   make(map[string]string, len(existing)),
		lg:      lg,
	}
	for _, p := range existing {
		im.remember(p)
	}
	lg.Info("Existing catalog loaded", zap.Int("products", len(existing)))
	return im, nil
}

func (im *importer) remember(p product.Product) {
	im.seen.AddString(p.Code)
	im.codes[p.Code] = p.Name
}

// duplicate reports the product already holding code.
func (im *importer) duplicate(code string) (string, bool) {
	if !im.seen.TestString(code) {
		return "", false
	}
	name, ok := im.codes[code]
	return name, ok
}

func (im *importer) logDuplicate(code, existing, name string) {
	im.lg.Warn("Duplicate product code",
		zap.String("code", code),
		zap.String("existing", existing),
		zap.String("name", name),
	)
}

// Import adds records in order. Invalid and duplicate records are logged and
// counted; a store failure stops the import.
func (im *importer) Import(ctx context.Context, records []catalog.Fields) (report, error) {
	var rep report
	for _, rec := range records {
		code := strings.TrimSpace(rec.Code)
		if name, ok := im.duplicate(code); ok {
			im.logDuplicate(code, name, rec.Name)
			rep.Duplicates++
			continue
		}

		p, err := im.editor.AddProduct(ctx, rec)
		var dup *catalog.DuplicateCodeError
		switch {
		case err == nil:
			im.remember(p)
			rep.Added++
		case errors.As(err, &dup):
			im.logDuplicate(dup.Code, dup.ProductName, rec.Name)
			rep.Duplicates++
		case errors.Is(err, catalog.ErrValidation):
			im.lg.Warn("Product rejected", zap.String("code", code), zap.String("name", rec.Name), zap.Error(err))
			rep.Rejected++
		default:
			return rep, err
		}
	}
	return rep, nil
}
