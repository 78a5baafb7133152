package probe

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/mongokeeper/pkg/logger"
)

// Check reports whether a dependency is ready.
type Check func(context.Context) error

// StatusFunc returns the document served on /status.
type StatusFunc func() any

// Routes is what the probe handler serves.
type Routes struct {
	Ready        []Check
	Status       StatusFunc
	CheckTimeout time.Duration // per check, 0 means the request context only
	Logger       *slog.Logger
}

// Handler mounts the probe endpoints:
//
//	GET /livez   always 200 "ALIVE"
//	GET /readyz  200 "READY" when every check passes, otherwise 503 "NOT_READY"
//	GET /status  the Status document as JSON, 404 when Status is nil
func Handler(routes Routes) http.Handler {
	log := routes.Logger
	if log == nil {
		log = logger.Discard()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ALIVE"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		for _, check := range routes.Ready {
			if err := runCheck(req.Context(), check, routes.CheckTimeout); err != nil {
				log.WarnContext(req.Context(), "readiness check failed", logger.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	})

	if routes.Status != nil {
		r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(routes.Status()); err != nil {
				log.ErrorContext(req.Context(), "failed to encode status", logger.Error(err))
			}
		})
	}

	return r
}

func runCheck(ctx context.Context, check Check, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return check(ctx)
}
