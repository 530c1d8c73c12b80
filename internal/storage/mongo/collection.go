package mongo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/xenking/food-kart/internal/docstore"
)

var _ docstore.Collection = (*Collection)(nil)

// Collection is a MongoDB collection holding JSON documents.
type Collection struct {
	coll    *mongo.Collection
	name    string
	store   *Store
	backoff time.Duration
}

func (c *Collection) Add(ctx context.Context, data []byte) (string, error) {
	if !docstore.ValidObject(data) {
		return "", docstore.Fail("add", c.name, errors.New("document must be a JSON object"))
	}
	doc, err := fromJSON(data)
	if err != nil {
		return "", docstore.Fail("add", c.name, err)
	}
	res, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", docstore.Fail("add", c.name, errors.Wrap(err, "insert"))
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", docstore.Fail("add", c.name, errors.Errorf("unexpected inserted id %T", res.InsertedID))
	}
	return oid.Hex(), nil
}

func (c *Collection) Get(ctx context.Context) ([]docstore.Document, error) {
	cur, err := c.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, docstore.Fail("get", c.name, errors.Wrap(err, "find"))
	}
	defer func() { _ = cur.Close(ctx) }()

	var docs []docstore.Document
	for cur.Next(ctx) {
		var raw bson.D
		if err := cur.Decode(&raw); err != nil {
			return nil, docstore.Fail("get", c.name, errors.Wrap(err, "decode"))
		}
		doc, err := toDocument(raw)
		if err != nil {
			return nil, docstore.Fail("get", c.name, err)
		}
		docs = append(docs, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, docstore.Fail("get", c.name, errors.Wrap(err, "cursor"))
	}
	return docs, nil
}

func (c *Collection) Update(ctx context.Context, id string, patch []byte) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return docstore.Fail("update", c.name, docstore.ErrNotFound)
	}
	update, err := patchUpdate(patch)
	if err != nil {
		return docstore.Fail("update", c.name, err)
	}
	if update == nil {
		n, err := c.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: oid}})
		if err != nil {
			return docstore.Fail("update", c.name, errors.Wrap(err, "count"))
		}
		if n == 0 {
			return docstore.Fail("update", c.name, docstore.ErrNotFound)
		}
		return nil
	}
	res, err := c.coll.UpdateByID(ctx, oid, update)
	if err != nil {
		return docstore.Fail("update", c.name, errors.Wrap(err, "update"))
	}
	if res.MatchedCount == 0 {
		return docstore.Fail("update", c.name, docstore.ErrNotFound)
	}
	return nil
}

func (c *Collection) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := c.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}}); err != nil {
		return docstore.Fail("delete", c.name, errors.Wrap(err, "delete"))
	}
	return nil
}

// Feed watches the collection with a change stream, which requires a
// replica set or sharded cluster.
func (c *Collection) Feed(q docstore.Query) docstore.ChangeFeed {
	return feed{c: c, q: q}
}

type feed struct {
	c *Collection
	q docstore.Query
}

func (f feed) Subscribe(onSnapshot func([]docstore.Document), onError func(error)) docstore.Unsubscribe {
	s := docstore.NewSubscription(func(ctx context.Context) ([]docstore.Document, error) {
		docs, err := f.c.Get(ctx)
		if err != nil {
			return nil, err
		}
		docstore.Sort(docs, f.q)
		return docs, nil
	}, onSnapshot, onError)

	f.c.store.track(s)
	go f.c.watch(s)
	return func() {
		f.c.store.untrack(s)
		s.Close()
	}
}

// watch turns change events into snapshot requests until s is closed,
// reopening the stream after failures.
func (c *Collection) watch(s *docstore.Subscription) {
	ctx := s.Context()
	for {
		err := c.stream(ctx, s)
		if ctx.Err() != nil {
			return
		}
		s.Fail(docstore.Fail("watch", c.name, err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.backoff):
		}
	}
}

func (c *Collection) stream(ctx context.Context, s *docstore.Subscription) error {
	cs, err := c.coll.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return errors.Wrap(err, "open change stream")
	}
	defer func() { _ = cs.Close(context.Background()) }()

	// Anything written before the stream opened is picked up here.
	s.Notify()
	for cs.Next(ctx) {
		s.Notify()
	}
	if err := cs.Err(); err != nil {
		return errors.Wrap(err, "change stream")
	}
	return errors.New("change stream closed")
}
