package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"oidcop/internal/platform/logger"
	"oidcop/pkg/platform/middleware/metadata"
)

type Metrics struct {
	Rejected *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Rejected: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "oidcop_ratelimit_rejected_total",
			Help: "Requests rejected by the rate limiter.",
		}, []string{"route"}),
	}
}

// Middleware rejects requests over the limit with 429 and a
// temporarily_unavailable error. The key is the client IP recorded by
// metadata.ClientMetadata. Limiter errors let the request through.
func Middleware(l Limiter, route string, m *Metrics, base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := metadata.ClientIPFromRequest(r)
			if md, ok := metadata.From(ctx); ok {
				key = md.ClientIP
			}

			res, err := l.Allow(ctx, route+"|"+key)
			if err != nil {
				logger.From(ctx, base).Warn("rate limiter unavailable", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if res.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			if m != nil {
				m.Rejected.WithLabelValues(route).Inc()
			}
			retry := int(res.RetryAfter(time.Now()).Round(time.Second) / time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"temporarily_unavailable","error_description":"Too many requests"}`))
		})
	}
}
