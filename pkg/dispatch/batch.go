package dispatch

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/finenotify/finenotify/modules/notifications/domain/delivery"
)

// Batch is the operator-held ordered set of delivery items prepared from one
// input file, plus the provider-id reverse index kept alongside it so
// incoming events resolve to a row in O(1). It is the client's own state:
// it never shares memory with the server store, only message ids.
type Batch struct {
	mu        sync.RWMutex
	items     []*delivery.Item
	indexByID map[string]int
}

var ErrIndexOutOfRange = errors.New("dispatch: item index out of range")

func NewBatch(items []*delivery.Item) *Batch {
	owned := make([]*delivery.Item, len(items))
	for i, item := range items {
		clone := *item
		clone.Index = i
		owned[i] = &clone
	}
	return &Batch{
		items:     owned,
		indexByID: make(map[string]int),
	}
}

func (b *Batch) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

// Item returns a copy of the item at index.
func (b *Batch) Item(index int) (delivery.Item, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if index < 0 || index >= len(b.items) {
		return delivery.Item{}, ErrIndexOutOfRange
	}
	return *b.items[index], nil
}

// Items returns a copy of every item in batch order.
func (b *Batch) Items() []delivery.Item {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]delivery.Item, len(b.items))
	for i, item := range b.items {
		out[i] = *item
	}
	return out
}

// Lookup resolves a provider message id to its item index.
func (b *Batch) Lookup(id string) (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	index, ok := b.indexByID[id]
	return index, ok
}

// States returns the final per-index state map consumed by the report
// exporter.
func (b *Batch) States() map[int]delivery.Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[int]delivery.Status, len(b.items))
	for i, item := range b.items {
		out[i] = item.Status
	}
	return out
}

// Settled reports whether every item has either failed locally or reached a
// state no further callback can change.
func (b *Batch) Settled() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, item := range b.items {
		if !item.Status.Terminal() {
			return false
		}
	}
	return len(b.items) > 0
}

func (b *Batch) setStatus(index int, status delivery.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.items) {
		return
	}
	b.items[index].Status = status
}

// advance moves the item forward only; stale events never regress a row.
func (b *Batch) advance(index int, status delivery.Status) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.items) {
		return false
	}
	item := b.items[index]
	if !status.Advances(item.Status) {
		return false
	}
	item.Status = status
	return true
}

func (b *Batch) attach(index int, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.items) {
		return ErrIndexOutOfRange
	}
	if err := b.items[index].AttachMessageID(id); err != nil {
		return err
	}
	b.indexByID[id] = index
	return nil
}
