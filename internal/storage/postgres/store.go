package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xenking/food-kart/internal/docstore"
)

var _ docstore.Store = (*Store)(nil)

// Store serves collections from the documents table. The pool is owned by
// the caller.
type Store struct {
	pool     *pgxpool.Pool
	listener *listener
}

// NewStore returns a Store over pool.
func NewStore(pool *pgxpool.Pool, lg *zap.Logger) *Store {
	return &Store{pool: pool, listener: newListener(pool, lg)}
}

func (s *Store) Collection(name string) docstore.Collection {
	return &Collection{pool: s.pool, name: name, listener: s.listener}
}

// Close stops the change feed. It does not close the pool.
func (s *Store) Close(context.Context) error {
	s.listener.stop()
	return nil
}
