package order

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/food-kart/internal/docstore"
	"github.com/xenking/food-kart/internal/domain/product"
)

// Encode renders o as a stored document.
func Encode(o Order) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range o.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("code", func(e *jx.Encoder) { e.Str(it.Code) })
						e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
						e.Field("price", func(e *jx.Encoder) { product.EncodeDecimal(e, it.Price) })
					})
				}
			})
		})
		e.Field("productCodes", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, c := range o.ProductCodes {
					e.Str(c)
				}
			})
		})
		e.Field("totalPrice", func(e *jx.Encoder) { product.EncodeDecimal(e, o.TotalPrice) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(docstore.FormatTime(o.CreatedAt)) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		if o.CompletedAt != nil {
			e.Field("completedAt", func(e *jx.Encoder) { e.Str(docstore.FormatTime(*o.CompletedAt)) })
		}
	})
	return e.Bytes()
}

// CompletePatch is the merge-patch that marks an order completed at t.
func CompletePatch(t time.Time) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(string(StatusCompleted)) })
		e.Field("completedAt", func(e *jx.Encoder) { e.Str(docstore.FormatTime(t)) })
	})
	return e.Bytes()
}

// Decode reads a stored order. It returns *DataShapeError when items is
// missing, not an array, or empty. Other damaged fields fall back to
// display defaults: unnamed items, missing codes, quantity 1, price 0,
// status pending and a total computed from the items.
func Decode(doc docstore.Document) (Order, error) {
	o := Order{ID: doc.ID, Status: StatusPending}
	var (
		hasItems bool
		hasTotal bool
	)
	err := jx.DecodeBytes(doc.Data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "items":
			if d.Next() != jx.Array {
				return d.Skip()
			}
			hasItems = true
			return d.Arr(func(d *jx.Decoder) error {
				it, err := decodeItem(d)
				if err != nil {
					return err
				}
				o.Items = append(o.Items, it)
				return nil
			})
		case "productCodes":
			if d.Next() != jx.Array {
				return d.Skip()
			}
			return d.Arr(func(d *jx.Decoder) error {
				if d.Next() != jx.String {
					return d.Skip()
				}
				s, err := d.Str()
				if err != nil {
					return err
				}
				o.ProductCodes = append(o.ProductCodes, s)
				return nil
			})
		case "totalPrice":
			if t := d.Next(); t != jx.Number && t != jx.String {
				return d.Skip()
			}
			v, err := product.DecodeDecimal(d)
			if err == nil {
				o.TotalPrice, hasTotal = v, true
			}
			return nil
		case "createdAt":
			o.CreatedAt = decodeTime(d)
			return nil
		case "completedAt":
			if t := decodeTime(d); !t.IsZero() {
				o.CompletedAt = &t
			}
			return nil
		case "status":
			if d.Next() != jx.String {
				return d.Skip()
			}
			s, err := d.Str()
			if err != nil {
				return err
			}
			if s != "" {
				o.Status = Status(s)
			}
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return Order{}, &DataShapeError{OrderID: doc.ID, Reason: err.Error()}
	}
	switch {
	case !hasItems:
		return Order{}, &DataShapeError{OrderID: doc.ID, Reason: "items missing"}
	case len(o.Items) == 0:
		return Order{}, &DataShapeError{OrderID: doc.ID, Reason: "items empty"}
	}
	if !hasTotal {
		o.TotalPrice = Total(o.Items)
	}
	if len(o.ProductCodes) == 0 {
		o.ProductCodes = ProductCodes(o.Items)
	}
	return o, nil
}

// Header reads the creation time and status of any stored record, including
// one Decode rejects. Unreadable fields give a zero time and StatusPending.
func Header(doc docstore.Document) (time.Time, Status) {
	var (
		createdAt time.Time
		status    = StatusPending
	)
	if raw, ok := docstore.Field(doc.Data, "createdAt"); ok {
		createdAt = decodeTime(jx.DecodeBytes(raw))
	}
	if raw, ok := docstore.Field(doc.Data, "status"); ok {
		if s := decodeString(jx.DecodeBytes(raw)); s != "" {
			status = Status(s)
		}
	}
	return createdAt, status
}

func decodeItem(d *jx.Decoder) (Item, error) {
	it := Item{Code: UnknownItemCode, Name: UnknownItemName, Quantity: 1, Price: decimal.Zero}
	if d.Next() != jx.Object {
		return it, d.Skip()
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "code":
			if s := decodeString(d); s != "" {
				it.Code = s
			}
		case "name":
			if s := decodeString(d); s != "" {
				it.Name = s
			}
		case "quantity":
			if d.Next() != jx.Number {
				return d.Skip()
			}
			num, err := d.Num()
			if err != nil {
				return errors.Wrap(err, "quantity")
			}
			if n, err := num.Int64(); err == nil && n > 0 {
				it.Quantity = int(n)
			}
		case "price":
			if t := d.Next(); t != jx.Number && t != jx.String {
				return d.Skip()
			}
			if v, err := product.DecodeDecimal(d); err == nil {
				it.Price = v
			}
		default:
			return d.Skip()
		}
		return nil
	})
	return it, err
}

// decodeString reads a string or number as text and skips anything else.
func decodeString(d *jx.Decoder) string {
	switch d.Next() {
	case jx.String:
		s, _ := d.Str()
		return s
	case jx.Number:
		n, _ := d.Num()
		return n.String()
	default:
		_ = d.Skip()
		return ""
	}
}

func decodeTime(d *jx.Decoder) time.Time {
	s := decodeString(d)
	if s == "" {
		return time.Time{}
	}
	t, err := docstore.ParseTime(s)
	if err != nil {
		return time.Time{}
	}
	return t
}
