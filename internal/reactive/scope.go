package reactive

import (
	"context"
	"sync"
	"time"
)

// Scope owns the asynchronous work of one view: subscriptions, in-flight
// tasks and timers. Close tears all of it down exactly once.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	idle     *sync.Cond // signalled when active drops to zero
	closed   bool
	active   int
	cleanups []func()
}

// NewScope returns an open scope whose context derives from parent.
func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	s := &Scope{ctx: ctx, cancel: cancel}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// Context is cancelled when the scope closes.
func (s *Scope) Context() context.Context { return s.ctx }

// Defer registers fn to run on Close, in reverse registration order. On an
// already closed scope fn runs immediately.
func (s *Scope) Defer(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn()
		return
	}
	s.cleanups = append(s.cleanups, fn)
	s.mu.Unlock()
}

// Run calls fn only while the scope is open and reports whether it did.
// Close waits for running callbacks. fn may call Run, Closed or Defer again
// but must not call Close.
func (s *Scope) Run(fn func()) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.active++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active--
		if s.active == 0 {
			s.idle.Broadcast()
		}
		s.mu.Unlock()
	}()
	fn()
	return true
}

// AfterFunc schedules fn once after d. The timer is stopped on Close and fn
// never runs once Close has returned.
func (s *Scope) AfterFunc(d time.Duration, fn func()) {
	t := time.AfterFunc(d, func() { s.Run(fn) })
	s.Defer(func() { t.Stop() })
}

// Closed reports whether Close has been called. It never waits for running
// callbacks.
func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close cancels the context, waits for running guarded callbacks and runs
// the registered cleanups. It is idempotent.
func (s *Scope) Close() {
	s.cancel()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for s.active > 0 {
		s.idle.Wait()
	}
	cleanups := s.cleanups
	s.cleanups = nil
	s.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}
