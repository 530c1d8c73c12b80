// Package monitor follows the order collection for the admin board: it keeps
// the latest snapshot, separates well-formed orders from damaged records,
// derives daily stats and applies admin actions.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/food-kart/internal/docstore"
	"github.com/xenking/food-kart/internal/domain/confirm"
	"github.com/xenking/food-kart/internal/domain/order"
	"github.com/xenking/food-kart/internal/pkg/clock"
)

// Prompts asked before admin actions.
const (
	CompletePrompt = "Mark this order as completed?"
	DeletePrompt   = "Are you sure you want to delete this order?"
	CleanupPrompt  = "This will delete all orders with invalid data. Continue?"
)

// NewestFirst is the feed query the board is built from.
var NewestFirst = docstore.Query{OrderBy: "createdAt", Direction: docstore.Desc}

// ErrAlreadyCompleted is returned when completing an order twice.
var ErrAlreadyCompleted = errors.New("order already completed")

// ProductCounter reports the catalog size for the stats panel.
type ProductCounter interface {
	Count() int
}

// Invalid is a stored order that failed shape validation. CreatedAt and
// Status are read leniently so the record still counts in Stats.
type Invalid struct {
	ID        string
	Reason    string
	CreatedAt time.Time
	Status    order.Status
}

// Stats are derived on every read, never stored.
type Stats struct {
	OrdersToday int
	Pending     int
	Products    int
}

// Board is what the admin screen renders.
type Board struct {
	Orders     []order.Order
	Invalid    []Invalid
	HasInvalid bool
	Stats      Stats
}

// Monitor holds the latest order snapshot.
type Monitor struct {
	orders   docstore.Collection
	products ProductCounter
	clock    clock.Clock
	location *time.Location

	mu      sync.RWMutex
	valid   []order.Order
	invalid []Invalid

	listenersMu sync.Mutex
	listeners   map[chan Board]struct{}
}

// New returns a Monitor over the orders collection. Days for the stats
// panel start at midnight in loc.
func New(orders docstore.Collection, products ProductCounter, clk clock.Clock, loc *time.Location) *Monitor {
	if loc == nil {
		loc = time.Local
	}
	return &Monitor{
		orders:    orders,
		products:  products,
		clock:     clk,
		location:  loc,
		listeners: map[chan Board]struct{}{},
	}
}

// Watch subscribes to the order feed, newest first, until the returned
// function is called.
func (m *Monitor) Watch(lg *zap.Logger) docstore.Unsubscribe {
	return m.orders.Feed(NewestFirst).Subscribe(m.Apply, func(err error) {
		lg.Error("Order feed failed", zap.Error(err))
	})
}

// Apply replaces the order list with a snapshot. One damaged record never
// hides the others.
func (m *Monitor) Apply(docs []docstore.Document) {
	valid, invalid := Partition(docs)

	m.mu.Lock()
	m.valid = valid
	m.invalid = invalid
	m.mu.Unlock()

	m.broadcast(m.Board())
}

// Partition splits a snapshot into well-formed orders and damaged records,
// keeping snapshot order.
func Partition(docs []docstore.Document) ([]order.Order, []Invalid) {
	valid := make([]order.Order, 0, len(docs))
	var invalid []Invalid
	for _, doc := range docs {
		o, err := order.Decode(doc)
		if err != nil {
			reason := err.Error()
			var shape *order.DataShapeError
			if errors.As(err, &shape) {
				reason = shape.Reason
			}
			createdAt, status := order.Header(doc)
			invalid = append(invalid, Invalid{ID: doc.ID, Reason: reason, CreatedAt: createdAt, Status: status})
			continue
		}
		valid = append(valid, o)
	}
	return valid, invalid
}

// Board returns the current view with fresh stats.
func (m *Monitor) Board() Board {
	m.mu.RLock()
	valid := m.valid
	invalid := m.invalid
	m.mu.RUnlock()

	return Board{
		Orders:     valid,
		Invalid:    invalid,
		HasInvalid: len(invalid) > 0,
		Stats:      m.stats(valid, invalid),
	}
}

// stats counts every record in the snapshot, damaged ones included.
func (m *Monitor) stats(orders []order.Order, invalid []Invalid) Stats {
	now := m.clock.Now().In(m.location)
	y, mo, d := now.Date()
	midnight := time.Date(y, mo, d, 0, 0, 0, 0, m.location)

	s := Stats{Products: m.products.Count()}
	count := func(createdAt time.Time, status order.Status) {
		if !createdAt.IsZero() && !createdAt.Before(midnight) {
			s.OrdersToday++
		}
		if status != order.StatusCompleted {
			s.Pending++
		}
	}
	for _, o := range orders {
		count(o.CreatedAt, o.Status)
	}
	for _, inv := range invalid {
		count(inv.CreatedAt, inv.Status)
	}
	return s
}

// Listen returns a channel receiving the board after every snapshot. Slow
// readers only see the latest board. The stop function must be called.
func (m *Monitor) Listen() (<-chan Board, func()) {
	ch := make(chan Board, 1)
	m.listenersMu.Lock()
	m.listeners[ch] = struct{}{}
	m.listenersMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.listenersMu.Lock()
			delete(m.listeners, ch)
			m.listenersMu.Unlock()
		})
	}
}

func (m *Monitor) broadcast(b Board) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	for ch := range m.listeners {
		select {
		case <-ch:
		default:
		}
		ch <- b
	}
}

// CompleteOrder marks an order completed after confirmation. Completed is
// terminal. Damaged records can only be deleted.
func (m *Monitor) CompleteOrder(ctx context.Context, id string, c confirm.Confirmer) error {
	if inv, ok := m.findInvalid(id); ok {
		return &order.DataShapeError{OrderID: id, Reason: inv.Reason}
	}
	if o, ok := m.find(id); ok && !o.Pending() {
		return ErrAlreadyCompleted
	}
	if err := confirm.Ask(ctx, c, CompletePrompt); err != nil {
		return err
	}
	if err := m.orders.Update(ctx, id, order.CompletePatch(m.clock.Now())); err != nil {
		zctx.From(ctx).Error("Failed to complete order", zap.String("order_id", id), zap.Error(err))
		return err
	}
	zctx.From(ctx).Info("Order completed", zap.String("order_id", id))
	return nil
}

// DeleteOrder permanently removes an order after confirmation.
func (m *Monitor) DeleteOrder(ctx context.Context, id string, c confirm.Confirmer) error {
	if err := confirm.Ask(ctx, c, DeletePrompt); err != nil {
		return err
	}
	if err := m.orders.Delete(ctx, id); err != nil {
		zctx.From(ctx).Error("Failed to delete order", zap.String("order_id", id), zap.Error(err))
		return err
	}
	zctx.From(ctx).Info("Order deleted", zap.String("order_id", id))
	return nil
}

// BulkDeleteInvalid scans the whole collection once and deletes every
// record without a non-empty items array. It returns how many were deleted;
// when some deletes fail the count covers the successful ones.
func (m *Monitor) BulkDeleteInvalid(ctx context.Context, c confirm.Confirmer) (int, error) {
	if err := confirm.Ask(ctx, c, CleanupPrompt); err != nil {
		return 0, err
	}
	lg := zctx.From(ctx)

	docs, err := m.orders.Get(ctx)
	if err != nil {
		lg.Error("Failed to scan orders", zap.Error(err))
		return 0, err
	}
	_, invalid := Partition(docs)

	var (
		deleted int
		errs    []error
	)
	for _, inv := range invalid {
		if err := m.orders.Delete(ctx, inv.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		deleted++
	}
	if len(errs) > 0 {
		lg.Error("Failed to delete some invalid orders",
			zap.Int("deleted", deleted),
			zap.Int("failed", len(errs)),
			zap.Error(errs[0]),
		)
		return deleted, errs[0]
	}
	lg.Info("Deleted invalid orders", zap.Int("count", deleted))
	return deleted, nil
}

func (m *Monitor) find(id string) (order.Order, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.valid {
		if o.ID == id {
			return o, true
		}
	}
	return order.Order{}, false
}

func (m *Monitor) findInvalid(id string) (Invalid, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, inv := range m.invalid {
		if inv.ID == id {
			return inv, true
		}
	}
	return Invalid{}, false
}
