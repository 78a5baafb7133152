// Package logger provides a thin factory around Go's log/slog package plus
// attribute constructors that keep key names consistent across the module.
//
// New creates a *slog.Logger configured by Option functions:
//
//   - WithFormat / WithTextFormatter / WithJSONFormatter select the handler.
//   - WithLevel sets the minimum level.
//   - WithOutput redirects output (stdout by default).
//   - WithAttr adds static attributes to every record.
//   - WithDevelopment / WithProduction apply per-environment presets.
//
// # Usage
//
//	import "github.com/dmitrymomot/mongokeeper/pkg/logger"
//
//	log := logger.New(logger.WithDevelopment("orders"))
//	log.Debug("trying to connect",
//	    logger.Attempt(1),
//	    logger.MaxAttempts(3),
//	)
//
// The returned logger satisfies mongo.Logger and can be handed to the
// connection manager with mongo.WithLogger.
package logger
