package reactive

import "context"

// Task is a cold unit of work: nothing happens until it is activated with
// Run or Go, and each activation runs the work once.
type Task[T any] struct {
	run func(ctx context.Context) (T, error)
}

// NewTask wraps run as a Task.
func NewTask[T any](run func(ctx context.Context) (T, error)) Task[T] {
	return Task[T]{run: run}
}

// Run activates the task and blocks until it completes or ctx is done.
func (t Task[T]) Run(ctx context.Context) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	return t.run(ctx)
}

// Go activates the task in its own goroutine and calls done with the result.
// Calling cancel before completion aborts the work and done is not called.
func (t Task[T]) Go(ctx context.Context, done func(T, error)) (cancel func()) {
	ctx, cancel = context.WithCancel(ctx)
	go func() {
		defer cancel()
		v, err := t.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		if done != nil {
			done(v, err)
		}
	}()
	return cancel
}
