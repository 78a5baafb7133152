// Package mongo keeps a single shared MongoDB connection alive for the whole
// process.
//
// A Manager resolves its configuration from layered Settings, connects with a
// bounded or unbounded number of attempts separated by a constant delay, and
// reconnects on its own when the driver reports the connection lost. Callers
// get the live client, database and collection handles through accessors that
// return nil while no connection is established.
//
// # Usage
//
//	import (
//		"context"
//		"github.com/dmitrymomot/mongokeeper/pkg/mongo"
//	)
//
//	func main() {
//		m := mongo.New(mongo.WithSettings(mongo.Settings{
//			mongo.KeyHost:               "db.internal",
//			mongo.KeyDatabase:           "orders",
//			mongo.KeyMaxConnectAttempts: 5,
//		}))
//
//		client, err := m.Connect(context.Background(), nil)
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer m.Close(context.Background(), false)
//
//		_ = client
//		orders := m.Collection("orders")
//		_ = orders
//	}
//
// Connect blocks until the sequence finishes. ConnectAsync returns a future,
// and ConnectCallback reports through a callback. Concurrent callers join the
// sequence already in progress.
//
// # Configuration
//
// Settings keys are validated when merged. Invalid values are logged as
// warnings and the previous value is kept. Later merges win over earlier ones,
// which win over the defaults. Settings can also be read from the environment
// (SettingsFromEnv) or from a YAML file (SettingsFromFile).
//
// The connection string is either set explicitly under KeyConnectionString or
// derived as <protocol>://<host>:<port>/<database>.
//
// # Lifecycle
//
//	idle -> connecting -> connected -> reconnecting -> connecting ...
//	            |              \-> idle (reconnect disabled)
//	            \-> failed (attempts exhausted)
//
// Close returns the manager to idle from any state and cancels a connect
// sequence in progress.
//
// # Error Handling
//
// Failures are reported with sentinel errors compatible with errors.Is.
// A sequence that gives up returns *AttemptsExhaustedError, which matches
// ErrMaxAttemptsExceeded and wraps the last connect failure.
//
// # See Also
//
// Documentation for the official driver: https://pkg.go.dev/go.mongodb.org/mongo-driver/v2.
package mongo
