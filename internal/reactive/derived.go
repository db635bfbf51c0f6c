package reactive

import (
	"sync"
	"sync/atomic"
)

// Derived holds the result of a pure computation over other sources. The
// computation runs once at construction and again, from scratch, whenever
// any input changes.
//
// Subscribers may write the inputs from inside a notification; the nested
// recomputation publishes its own result. A result older than the one
// already published is dropped, so subscribers should read Get rather than
// rely on the order of notifications.
type Derived[T any] struct {
	mu      sync.Mutex // serializes computations
	gen     uint64     // guarded by mu
	shown   uint64     // guarded by out.mu
	compute func() T
	out     *Cell[T]
	unwatch []func()
	closed  atomic.Bool
	once    sync.Once
}

// Derive builds a Derived over inputs. compute must read the current value
// of every input it depends on.
func Derive[T any](compute func() T, inputs ...Source) *Derived[T] {
	d := &Derived[T]{compute: compute, out: NewCell(compute())}
	for _, in := range inputs {
		d.unwatch = append(d.unwatch, in.Watch(d.recompute))
	}
	return d
}

func (d *Derived[T]) recompute() {
	if d.closed.Load() {
		return
	}
	d.mu.Lock()
	d.gen++
	gen := d.gen
	v := d.compute()
	d.mu.Unlock()

	d.out.setIf(v, func() bool {
		if gen <= d.shown {
			return false
		}
		d.shown = gen
		return true
	})
}

// Get returns the last computed value.
func (d *Derived[T]) Get() T { return d.out.Get() }

// Subscribe calls fn after every recomputation.
func (d *Derived[T]) Subscribe(fn func(T)) (unsubscribe func()) { return d.out.Subscribe(fn) }

// Watch implements Source.
func (d *Derived[T]) Watch(fn func()) (unwatch func()) { return d.out.Watch(fn) }

// Close detaches the derivation from its inputs. It is idempotent.
func (d *Derived[T]) Close() {
	d.once.Do(func() {
		d.closed.Store(true)
		for _, u := range d.unwatch {
			u()
		}
	})
}
