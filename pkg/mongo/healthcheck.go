package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Healthcheck returns a health check function suitable for readiness/liveness probes
// or HTTP health endpoints. It reports ErrNotConnected while the manager has no live client.
func Healthcheck(m *Manager) func(context.Context) error {
	return m.Healthcheck
}

// Healthcheck pings the live client.
func (m *Manager) Healthcheck(ctx context.Context) error {
	client := m.Client()
	if client == nil {
		return errors.Join(ErrHealthcheckFailed, ErrNotConnected)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}
