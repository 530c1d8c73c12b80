package docstore

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps collections in process memory.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]*MemoryCollection
	newID       func() string
}

// NewMemoryStore returns an empty store that assigns UUID identifiers.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: map[string]*MemoryCollection{},
		newID:       uuid.NewString,
	}
}

// Collection returns the named collection, creating it on first use.
func (s *MemoryStore) Collection(name string) Collection {
	return s.collection(name)
}

func (s *MemoryStore) collection(name string) *MemoryCollection {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		c = &MemoryCollection{
			name:  name,
			docs:  map[string][]byte{},
			subs:  map[*Subscription]struct{}{},
			newID: s.newID,
		}
		s.collections[name] = c
	}
	return c
}

// Close stops every live subscription.
func (s *MemoryStore) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.collections {
		c.closeAll()
	}
	return nil
}

var _ Collection = (*MemoryCollection)(nil)

// MemoryCollection is a Collection backed by a map.
type MemoryCollection struct {
	name  string
	newID func() string

	mu   sync.RWMutex
	docs map[string][]byte
	subs map[*Subscription]struct{}
}

// Put stores data under a fixed id, replacing any existing document. It is
// meant for seeding fixtures.
func (c *MemoryCollection) Put(id string, data []byte) {
	c.mu.Lock()
	c.docs[id] = append([]byte(nil), data...)
	c.mu.Unlock()
	c.notify()
}

func (c *MemoryCollection) Add(_ context.Context, data []byte) (string, error) {
	if !ValidObject(data) {
		return "", Fail("add", c.name, errors.New("document must be a JSON object"))
	}
	id := c.newID()

	c.mu.Lock()
	c.docs[id] = append([]byte(nil), data...)
	c.mu.Unlock()

	c.notify()
	return id, nil
}

func (c *MemoryCollection) Get(context.Context) ([]Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	docs := make([]Document, 0, len(c.docs))
	for id, data := range c.docs {
		docs = append(docs, Document{ID: id, Data: data})
	}
	return docs, nil
}

func (c *MemoryCollection) Update(_ context.Context, id string, patch []byte) error {
	c.mu.Lock()
	doc, ok := c.docs[id]
	if !ok {
		c.mu.Unlock()
		return Fail("update", c.name, ErrNotFound)
	}
	merged, err := MergePatch(doc, patch)
	if err != nil {
		c.mu.Unlock()
		return Fail("update", c.name, err)
	}
	c.docs[id] = merged
	c.mu.Unlock()

	c.notify()
	return nil
}

func (c *MemoryCollection) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	_, ok := c.docs[id]
	delete(c.docs, id)
	c.mu.Unlock()

	if ok {
		c.notify()
	}
	return nil
}

func (c *MemoryCollection) Feed(q Query) ChangeFeed {
	return memoryFeed{c: c, q: q}
}

func (c *MemoryCollection) notify() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for s := range c.subs {
		s.Notify()
	}
}

func (c *MemoryCollection) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for s := range c.subs {
		s.Close()
		delete(c.subs, s)
	}
}

type memoryFeed struct {
	c *MemoryCollection
	q Query
}

func (f memoryFeed) Subscribe(onSnapshot func([]Document), onError func(error)) Unsubscribe {
	load := func(ctx context.Context) ([]Document, error) {
		docs, err := f.c.Get(ctx)
		if err != nil {
			return nil, err
		}
		Sort(docs, f.q)
		return docs, nil
	}
	s := NewSubscription(load, onSnapshot, onError)

	f.c.mu.Lock()
	f.c.subs[s] = struct{}{}
	f.c.mu.Unlock()

	return func() {
		f.c.mu.Lock()
		delete(f.c.subs, s)
		f.c.mu.Unlock()
		s.Close()
	}
}
