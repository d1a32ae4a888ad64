// Package memory is the in-process remote store used in development and
// tests. It mimics the document-store contract: owner-scoped records,
// snapshot delivery on subscribe and after every change.
package memory

import (
	"context"
	"fmt"
	"sync"

	"tally/internal/remote"
)

// Collection holds the records of one entity kind, keyed by owner and ID.
type Collection[T remote.Record] struct {
	mu      sync.Mutex
	records map[string]map[string]T
	order   map[string][]string
	nextSub int
	subs    map[int]subscriber[T]
}

type subscriber[T remote.Record] struct {
	owner string
	fn    func([]T)
}

func NewCollection[T remote.Record]() *Collection[T] {
	return &Collection[T]{
		records: make(map[string]map[string]T),
		order:   make(map[string][]string),
		subs:    make(map[int]subscriber[T]),
	}
}

// Subscribe registers onSnapshot for the owner's records and delivers the
// current snapshot immediately, like a real document store would.
func (c *Collection[T]) Subscribe(_ context.Context, ownerID string, onSnapshot func([]T)) (func(), error) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = subscriber[T]{owner: ownerID, fn: onSnapshot}
	snapshot := c.snapshotLocked(ownerID)
	c.mu.Unlock()

	onSnapshot(snapshot)

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}, nil
}

// Create adds the record, failing with ErrAlreadyExists on an ID collision.
func (c *Collection[T]) Create(_ context.Context, ownerID string, rec T) error {
	id := remote.RecordID(rec)
	c.mu.Lock()
	owned, ok := c.records[ownerID]
	if !ok {
		owned = make(map[string]T)
		c.records[ownerID] = owned
	}
	if _, exists := owned[id]; exists {
		c.mu.Unlock()
		return fmt.Errorf("create %s: %w", id, remote.ErrAlreadyExists)
	}
	owned[id] = rec
	c.order[ownerID] = append(c.order[ownerID], id)
	c.mu.Unlock()

	c.notify(ownerID)
	return nil
}

// Update overwrites the record, inserting it when absent.
func (c *Collection[T]) Update(_ context.Context, ownerID string, rec T) error {
	id := remote.RecordID(rec)
	c.mu.Lock()
	owned, ok := c.records[ownerID]
	if !ok {
		owned = make(map[string]T)
		c.records[ownerID] = owned
	}
	if _, exists := owned[id]; !exists {
		c.order[ownerID] = append(c.order[ownerID], id)
	}
	owned[id] = rec
	c.mu.Unlock()

	c.notify(ownerID)
	return nil
}

// Delete removes the record. Deleting an absent record succeeds silently.
func (c *Collection[T]) Delete(_ context.Context, ownerID, id string) error {
	c.mu.Lock()
	owned := c.records[ownerID]
	if _, exists := owned[id]; !exists {
		c.mu.Unlock()
		return nil
	}
	delete(owned, id)
	ids := c.order[ownerID]
	for i, existing := range ids {
		if existing == id {
			c.order[ownerID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	c.notify(ownerID)
	return nil
}

// All returns the owner's records in insertion order.
func (c *Collection[T]) All(ownerID string) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(ownerID)
}

func (c *Collection[T]) snapshotLocked(ownerID string) []T {
	ids := c.order[ownerID]
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.records[ownerID][id])
	}
	return out
}

func (c *Collection[T]) notify(ownerID string) {
	c.mu.Lock()
	snapshot := c.snapshotLocked(ownerID)
	fns := make([]func([]T), 0, len(c.subs))
	for _, sub := range c.subs {
		if sub.owner == ownerID {
			fns = append(fns, sub.fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}
