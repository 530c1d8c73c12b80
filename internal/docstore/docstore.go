// Package docstore defines the document collection contract shared by the
// customer and admin sides: add, get, merge-patch update, delete and ordered
// live snapshots. Backends live in this package (memory) and under
// internal/storage.
package docstore

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
)

// Collection names used by the service.
const (
	Products = "products"
	Orders   = "orders"
)

// ErrNotFound is returned by Update when the document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is a stored record. Data is a JSON object without the identifier.
type Document struct {
	ID   string
	Data []byte
}

// Direction is the sort direction of a feed query.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Query orders a feed by a top-level JSON field.
type Query struct {
	OrderBy   string
	Direction Direction
}

// Unsubscribe stops a subscription. It is safe to call more than once.
type Unsubscribe func()

// ChangeFeed delivers full snapshots of a collection. The first snapshot is
// delivered right after Subscribe, then one per change. Each snapshot is the
// complete, ordered state of the collection.
type ChangeFeed interface {
	Subscribe(onSnapshot func([]Document), onError func(error)) Unsubscribe
}

// Collection is a single document collection.
type Collection interface {
	// Add assigns an identifier and persists data.
	Add(ctx context.Context, data []byte) (string, error)
	// Get returns all documents in unspecified order.
	Get(ctx context.Context) ([]Document, error)
	// Update merges the top-level fields of patch into the document. A null
	// field in patch removes the field.
	Update(ctx context.Context, id string, patch []byte) error
	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, id string) error
	// Feed returns a live ordered view of the collection.
	Feed(q Query) ChangeFeed
}

// Store opens collections by name.
type Store interface {
	Collection(name string) Collection
	Close(ctx context.Context) error
}

// PersistenceError reports a failed store operation.
type PersistenceError struct {
	Op         string
	Collection string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("docstore: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Fail wraps err into a PersistenceError unless it already is one.
func Fail(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Collection: collection, Err: err}
}
