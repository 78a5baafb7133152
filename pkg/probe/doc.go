// Package probe serves liveness, readiness and status endpoints for a process
// that keeps a MongoDB connection, so orchestrators can tell a live process
// from one that is ready for traffic.
//
// Handler builds a chi router with three routes:
//
//	GET /livez   always 200 "ALIVE"
//	GET /readyz  200 "READY" when every Check passes, otherwise 503 "NOT_READY"
//	GET /status  the StatusFunc document encoded as JSON
//
// Server runs the handler with read/write timeouts and shuts it down
// gracefully when the Run context ends:
//
//	srv := probe.NewFromConfig(cfg, probe.WithLogger(log))
//	err := srv.Run(ctx, probe.Handler(probe.Routes{
//		Ready:  []probe.Check{manager.Healthcheck},
//		Status: func() any { return manager.State() },
//	}))
//
// Errors from Run and Shutdown wrap ErrStart and ErrShutdown.
package probe
