package mongo

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xenking/food-kart/internal/docstore"
)

// fromJSON converts a document body to BSON. Relaxed Extended JSON keeps
// plain JSON numbers and strings as they are.
func fromJSON(data []byte) (bson.D, error) {
	var doc bson.D
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return nil, errors.Wrap(err, "json to bson")
	}
	out := doc[:0]
	for _, e := range doc {
		if e.Key == "_id" {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// toDocument converts a stored BSON document back to the JSON body and its
// hex identifier.
func toDocument(raw bson.D) (docstore.Document, error) {
	var (
		id   string
		body = make(bson.D, 0, len(raw))
	)
	for _, e := range raw {
		if e.Key != "_id" {
			body = append(body, e)
			continue
		}
		oid, ok := e.Value.(primitive.ObjectID)
		if !ok {
			return docstore.Document{}, errors.Errorf("unexpected _id type %T", e.Value)
		}
		id = oid.Hex()
	}
	data, err := bson.MarshalExtJSON(body, false, false)
	if err != nil {
		return docstore.Document{}, errors.Wrap(err, "bson to json")
	}
	return docstore.Document{ID: id, Data: data}, nil
}

// patchUpdate turns a merge-patch into $set and $unset stages. It returns a
// nil update for an empty patch.
func patchUpdate(patch []byte) (bson.D, error) {
	var (
		set   bson.D
		unset bson.D
	)
	err := jx.DecodeBytes(patch).Obj(func(d *jx.Decoder, key string) error {
		if key == "_id" {
			return d.Skip()
		}
		if d.Next() == jx.Null {
			unset = append(unset, bson.E{Key: key, Value: ""})
			return d.Null()
		}
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		var wrapped bson.D
		var e jx.Encoder
		e.Obj(func(e *jx.Encoder) {
			e.FieldStart("v")
			e.Raw(raw)
		})
		if err := bson.UnmarshalExtJSON(e.Bytes(), false, &wrapped); err != nil {
			return errors.Wrap(err, key)
		}
		set = append(set, bson.E{Key: key, Value: wrapped[0].Value})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode patch")
	}

	var update bson.D
	if len(set) > 0 {
		update = append(update, bson.E{Key: "$set", Value: set})
	}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}
	return update, nil
}
