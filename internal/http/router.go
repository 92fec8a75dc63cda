package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"gitea.jw6.us/james/calconv/internal/config"
	"gitea.jw6.us/james/calconv/internal/convert"
	"gitea.jw6.us/james/calconv/internal/http/ratelimit"
	"gitea.jw6.us/james/calconv/internal/metrics"
)

// HealthChecker is the readiness probe contract; satisfied by the
// postgres-backed store.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter wires the conversion API routes.
func NewRouter(cfg *config.Config, health HealthChecker, conv *convert.Converter, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Conversion endpoint: 20 requests per second, burst of 50 (sync
	// clients re-upload whole calendars)
	convRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(20), 50, 5*time.Minute, cfg.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := health.HealthCheck(ctx); err != nil {
			http.Error(w, "unready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	convHandler := NewConvertHandler(conv, log)
	r.Route("/convert", func(r chi.Router) {
		r.Use(convRateLimiter.Middleware())
		r.Post("/", convHandler.Convert)
	})

	return r
}
