// Package httptransport assembles the public HTTP surface. It wires the
// per-domain handlers onto one chi router behind the shared middleware
// chain; no business logic lives here.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"absher/internal/platform/metrics"
	"absher/internal/platform/middleware"
	"absher/pkg/httputil"
)

// Registrar is implemented by every domain handler.
type Registrar interface {
	Register(r chi.Router)
}

// Options carries the cross-cutting pieces the router needs.
type Options struct {
	Logger            *slog.Logger
	Metrics           *metrics.Metrics
	RateLimiter       *middleware.RateLimiter
	CORSAllowedOrigin string
	RequestTimeout    time.Duration

	// Health is polled by GET /health; nil checks are skipped.
	Health func(ctx context.Context) error
}

// NewRouter builds the full router. JSON endpoints sit behind the strict
// content-type check; the voice handler is mounted outside it because
// transcription uploads are multipart.
func NewRouter(opts Options, jsonHandlers []Registrar, voiceHandler Registrar) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.CORS(opts.CORSAllowedOrigin))
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(middleware.LatencyMiddleware(opts.Metrics))
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Middleware())
	}

	r.Get("/health", handleHealth(opts.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		for _, h := range jsonHandlers {
			h.Register(r)
		}
	})

	if voiceHandler != nil {
		voiceHandler.Register(r)
	}

	return r
}

func handleHealth(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
					"reason": err.Error(),
				})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
