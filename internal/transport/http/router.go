// Package httptransport assembles the HTTP surface: cross-cutting middleware,
// operational endpoints, and each module's routes.
package httptransport

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"legatum/internal/platform/middleware"
	platformredis "legatum/internal/platform/redis"
	"legatum/pkg/platform/httputil"
)

// Handlers collects the per-module route registrars main has wired.
type Handlers struct {
	Allocations interface{ Register(chi.Router) }
	Assets      interface{ Register(chi.Router) }
	Beneficiary interface{ Register(chi.Router) }
}

// Health backs /healthz. Nil dependencies are skipped, so a memory-backed
// deployment reports healthy with nothing to probe.
type Health struct {
	DB    *sql.DB
	Redis *platformredis.Client
}

// NewRouter wires middleware, operational endpoints, and module routes.
func NewRouter(logger *slog.Logger, h Handlers, health Health) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logging(logger))

	r.Get("/healthz", healthz(health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	h.Allocations.Register(r)
	h.Assets.Register(r)
	h.Beneficiary.Register(r)

	return r
}

func healthz(health Health) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{}
		healthy := true

		if health.DB != nil {
			if err := health.DB.PingContext(r.Context()); err != nil {
				checks["postgres"] = "down"
				healthy = false
			} else {
				checks["postgres"] = "up"
			}
		}
		if health.Redis != nil {
			if err := health.Redis.Health(r.Context()); err != nil {
				checks["redis"] = "down"
				healthy = false
			} else {
				checks["redis"] = "up"
			}
		}

		status := http.StatusOK
		state := "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		httputil.WriteJSON(w, status, map[string]any{"status": state, "checks": checks})
	}
}
