// Package mongo implements the document store on MongoDB. Live feeds use
// change streams and need a replica set.
package mongo

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/xenking/food-kart/internal/docstore"
)

var _ docstore.Store = (*Store)(nil)

// Store serves collections from one MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database

	mu   sync.Mutex
	subs map[*docstore.Subscription]struct{}
}

// Connect opens a client and verifies it with a ping.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "ping")
	}

	return &Store{
		client: client,
		db:     client.Database(database),
		subs:   map[*docstore.Subscription]struct{}{},
	}, nil
}

func (s *Store) Collection(name string) docstore.Collection {
	return &Collection{coll: s.db.Collection(name), name: name, store: s, backoff: time.Second}
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close stops all feeds and disconnects.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	for sub := range s.subs {
		sub.Close()
	}
	s.subs = map[*docstore.Subscription]struct{}{}
	s.mu.Unlock()

	return s.client.Disconnect(ctx)
}

func (s *Store) track(sub *docstore.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub] = struct{}{}
}

func (s *Store) untrack(sub *docstore.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, sub)
}
