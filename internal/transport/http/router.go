package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"oidcop/internal/platform/metrics"
	"oidcop/internal/platform/middleware"
	"oidcop/pkg/platform/middleware/metadata"
)

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	Logger   *zap.Logger
	Metrics  *metrics.HTTP
	Gatherer prometheus.Gatherer
	// Health checks run on /healthz, keyed by component name.
	Health map[string]HealthCheck
}

// NewRouter wires the shared middleware, the protocol endpoints of h and the
// operational endpoints.
func NewRouter(h *Handler, cfg RouterConfig) chi.Router {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(cfg.Metrics))

	h.Register(r)

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/healthz", healthHandler(cfg.Health))
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}
		writeJSON(w, status, body)
	}
}
