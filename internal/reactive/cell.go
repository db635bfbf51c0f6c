// Package reactive provides observable state cells, derivations recomputed
// from them, cancellable units of work and scopes that own their teardown.
package reactive

import (
	"sort"
	"sync"
)

// Source is anything that can tell a watcher its value changed.
type Source interface {
	// Watch registers fn to be called after every change. The returned
	// function unregisters it; calling it more than once is a no-op.
	Watch(fn func()) (unwatch func())
}

// Cell is an observable value. It is safe for concurrent use.
type Cell[T any] struct {
	mu     sync.RWMutex
	value  T
	nextID uint64
	subs   map[uint64]func(T)
}

// NewCell returns a cell holding v.
func NewCell[T any](v T) *Cell[T] {
	return &Cell[T]{value: v, subs: make(map[uint64]func(T))}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set replaces the value and notifies subscribers.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	subs := c.snapshot()
	c.mu.Unlock()
	notify(subs, v)
}

// Update applies fn to the current value atomically and notifies subscribers
// with the result.
func (c *Cell[T]) Update(fn func(T) T) {
	c.mu.Lock()
	v := fn(c.value)
	c.value = v
	subs := c.snapshot()
	c.mu.Unlock()
	notify(subs, v)
}

// setIf stores v and notifies subscribers only when ok, called with the
// cell locked, returns true.
func (c *Cell[T]) setIf(v T, ok func() bool) {
	c.mu.Lock()
	if !ok() {
		c.mu.Unlock()
		return
	}
	c.value = v
	subs := c.snapshot()
	c.mu.Unlock()
	notify(subs, v)
}

// Subscribe calls fn with the new value after every change.
func (c *Cell[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// Watch implements Source.
func (c *Cell[T]) Watch(fn func()) (unwatch func()) {
	return c.Subscribe(func(T) { fn() })
}

// snapshot must be called with c.mu held. Subscribers are returned in
// registration order.
func (c *Cell[T]) snapshot() []func(T) {
	ids := make([]uint64, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]func(T), 0, len(ids))
	for _, id := range ids {
		out = append(out, c.subs[id])
	}
	return out
}

func notify[T any](subs []func(T), v T) {
	for _, fn := range subs {
		fn(v)
	}
}
