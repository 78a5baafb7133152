package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/mongokeeper/pkg/async"
)

// Connect starts a connect sequence, or joins the one in progress, and waits
// for it to finish. ctx only bounds the wait: the sequence keeps running when
// ctx expires and can be awaited again or stopped with Close.
//
// Settings are merged into the stored configuration before the sequence
// starts. They are ignored when a sequence is already in progress.
func (m *Manager) Connect(ctx context.Context, s Settings) (*mongo.Client, error) {
	return m.start(s).Await(ctx)
}

// ConnectAsync is Connect returning a future instead of blocking.
func (m *Manager) ConnectAsync(s Settings) *async.Future[*mongo.Client] {
	return m.start(s)
}

// ConnectCallback is Connect reporting through cb. cb runs exactly once, on
// its own goroutine, even when the outcome is already known.
func (m *Manager) ConnectCallback(s Settings, cb func(*mongo.Client, error)) {
	m.start(s).Then(cb)
}

// CloseAsync is Close returning a future instead of blocking.
func (m *Manager) CloseAsync(force bool) *async.Future[struct{}] {
	return async.Async(context.Background(), force, func(ctx context.Context, force bool) (struct{}, error) {
		return struct{}{}, m.Close(ctx, force)
	})
}

// CloseCallback is Close reporting through cb, on its own goroutine.
func (m *Manager) CloseCallback(force bool, cb func(error)) {
	m.CloseAsync(force).Then(func(_ struct{}, err error) {
		if cb != nil {
			cb(err)
		}
	})
}
