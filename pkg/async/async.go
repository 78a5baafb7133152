package async

import (
	"context"
	"sync"
	"time"
)

// Future represents the eventual result of an asynchronous computation.
// It settles exactly once; every waiter observes the same result.
type Future[U any] struct {
	result U
	err    error
	once   sync.Once
	done   chan struct{}
}

func newFuture[U any]() *Future[U] {
	return &Future[U]{done: make(chan struct{})}
}

// settle stores the outcome if the future has not settled yet.
// Reports whether this call settled it.
func (f *Future[U]) settle(res U, err error) bool {
	settled := false
	f.once.Do(func() {
		f.result = res
		f.err = err
		settled = true
		close(f.done)
	})
	return settled
}

// Await waits for the future to settle or for ctx to be done.
// Context cancellation only abandons the wait; the computation keeps running.
func (f *Future[U]) Await(ctx context.Context) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero U
		return zero, ctx.Err()
	}
}

// AwaitWithTimeout waits for the future with a timeout.
// If the timeout elapses first it returns ErrTimeout.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.result, f.err
	case <-timer.C:
		var zero U
		return zero, ErrTimeout
	}
}

// Done returns a channel that is closed once the future settles.
func (f *Future[U]) Done() <-chan struct{} {
	return f.done
}

// IsComplete checks if the future has settled without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Then invokes fn with the outcome once the future settles.
// fn always runs on its own goroutine, never on the caller's stack.
func (f *Future[U]) Then(fn func(U, error)) {
	if fn == nil {
		return
	}
	go func() {
		<-f.done
		fn(f.result, f.err)
	}()
}

// Promise is the write side of a Future, settled by whoever owns the computation.
type Promise[U any] struct {
	future *Future[U]
}

// NewPromise creates an unsettled promise.
func NewPromise[U any]() *Promise[U] {
	return &Promise[U]{future: newFuture[U]()}
}

// Future returns the read side of the promise.
func (p *Promise[U]) Future() *Future[U] {
	return p.future
}

// Resolve settles the promise with a result. Reports false if it was already settled.
func (p *Promise[U]) Resolve(res U) bool {
	return p.future.settle(res, nil)
}

// Reject settles the promise with an error. Reports false if it was already settled.
func (p *Promise[U]) Reject(err error) bool {
	var zero U
	return p.future.settle(zero, err)
}

// Resolved returns a future already settled with res.
func Resolved[U any](res U) *Future[U] {
	f := newFuture[U]()
	f.settle(res, nil)
	return f
}

// Rejected returns a future already settled with err.
func Rejected[U any](err error) *Future[U] {
	f := newFuture[U]()
	var zero U
	f.settle(zero, err)
	return f
}

// Async executes fn on a new goroutine and returns a Future for its result.
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := newFuture[U]()

	go func() {
		// Early exit prevents running work for an already canceled context
		select {
		case <-ctx.Done():
			var zero U
			f.settle(zero, ctx.Err())
			return
		default:
		}

		f.settle(fn(ctx, param))
	}()

	return f
}
