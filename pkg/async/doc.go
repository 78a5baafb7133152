// Package async provides generic helpers for computations that complete
// later, possibly on another goroutine.
//
// A Future is the read side of such a computation. It settles exactly once
// and can be awaited any number of times, by any number of goroutines:
//
//	res, err := future.Await(ctx)
//
// Futures come from three places:
//   - Async starts a function on its own goroutine and returns its Future.
//   - NewPromise returns a Promise whose owner settles it later with Resolve
//     or Reject. Only the first settlement wins, so several code paths may
//     race to complete the same promise safely.
//   - Resolved and Rejected return futures that are already settled.
//
// Then delivers the outcome to a callback on a separate goroutine, which is
// how callback-style APIs are built on top of futures without ever invoking
// the callback before the caller's stack unwinds.
//
// # Error Handling
//
// Await returns the context error when the context is done before the future
// settles; AwaitWithTimeout returns ErrTimeout. Neither cancels the
// computation itself.
package async
