package product

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/food-kart/internal/docstore"
)

// Encode renders p as a stored document. The identifier is not part of the
// document body.
func Encode(p Product) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("code", func(e *jx.Encoder) { e.Str(p.Code) })
		e.Field("price", func(e *jx.Encoder) { EncodeDecimal(e, p.Price) })
		e.Field("category", func(e *jx.Encoder) { e.Str(string(p.Category)) })
		e.Field("ingredients", func(e *jx.Encoder) { e.Str(p.Ingredients) })
		e.Field("imageUrl", func(e *jx.Encoder) { e.Str(p.ImageURL) })
		e.Field("isAvailable", func(e *jx.Encoder) { e.Bool(p.IsAvailable) })
		if !p.CreatedAt.IsZero() {
			e.Field("createdAt", func(e *jx.Encoder) { e.Str(docstore.FormatTime(p.CreatedAt)) })
		}
	})
	return e.Bytes()
}

// Decode reads a stored product. Unknown fields are ignored; isAvailable
// defaults to true when absent.
func Decode(doc docstore.Document) (Product, error) {
	p := Product{ID: doc.ID, IsAvailable: true}
	err := jx.DecodeBytes(doc.Data).Obj(func(d *jx.Decoder, key string) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		var err error
		switch key {
		case "name":
			p.Name, err = d.Str()
		case "code":
			p.Code, err = decodeText(d)
		case "price":
			p.Price, err = DecodeDecimal(d)
		case "category":
			var s string
			s, err = d.Str()
			p.Category = Category(s)
		case "ingredients":
			p.Ingredients, err = d.Str()
		case "imageUrl":
			p.ImageURL, err = d.Str()
		case "isAvailable":
			p.IsAvailable, err = d.Bool()
		case "createdAt":
			var s string
			if s, err = d.Str(); err == nil {
				p.CreatedAt, _ = docstore.ParseTime(s)
			}
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	if err != nil {
		return Product{}, errors.Wrapf(err, "decode product %s", doc.ID)
	}
	return p, nil
}

// DecodeAll decodes every document, skipping the ones that fail. It returns
// the number skipped so the caller can log it.
func DecodeAll(docs []docstore.Document) ([]Product, int) {
	out := make([]Product, 0, len(docs))
	skipped := 0
	for _, doc := range docs {
		p, err := Decode(doc)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, p)
	}
	return out, skipped
}

// EncodeDecimal writes v as a JSON number.
func EncodeDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.String()))
}

// DecodeDecimal reads a JSON number or numeric string.
func DecodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	default:
		return decimal.Zero, errors.Errorf("unexpected %s for decimal", d.Next())
	}
}

// decodeText reads a string, accepting numbers as their literal text.
func decodeText(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Number {
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	}
	return d.Str()
}
