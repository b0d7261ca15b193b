package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-dispatch/metrics"
	"github.com/marcelsud/webhook-dispatch/stub"
	"github.com/marcelsud/webhook-dispatch/webhook"
	"github.com/rs/zerolog"
)

const adminTimeout = 30 * time.Second

// OutcomeReader returns recent firing outcomes, newest first
type OutcomeReader interface {
	Recent(ctx context.Context, n int) ([]webhook.OutcomeRecord, error)
}

type options struct {
	outcomes  OutcomeReader
	collector metrics.Collector
	metrics   http.Handler
}

// Option configures the optional admin endpoints
type Option func(*options)

// WithOutcomes enables GET /__admin/webhooks/outcomes
func WithOutcomes(reader OutcomeReader) Option {
	return func(o *options) {
		o.outcomes = reader
	}
}

// WithCollector enables GET /__admin/webhooks/metrics
func WithCollector(collector metrics.Collector) Option {
	return func(o *options) {
		o.collector = collector
	}
}

// WithMetricsHandler mounts a Prometheus handler on /metrics
func WithMetricsHandler(handler http.Handler) Option {
	return func(o *options) {
		o.metrics = handler
	}
}

/* Handlers sets up the stub server
 * Admin routes live under /__admin; every other request is answered from the mapping store
 */
func Handlers(logger zerolog.Logger, store *stub.Store, registry *stub.Registry, opts ...Option) *chi.Mux {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Route("/__admin", func(r chi.Router) {
		r.Use(middleware.Timeout(adminTimeout))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"healthy"}`))
		})

		r.Get("/mappings", listMappings(store).ServeHTTP)
		r.Post("/mappings", createMapping(store).ServeHTTP)
		r.Delete("/mappings", resetMappings(store).ServeHTTP)
		r.Get("/mappings/{id}", getMapping(store).ServeHTTP)
		r.Delete("/mappings/{id}", deleteMapping(store).ServeHTTP)

		r.Get("/webhooks/outcomes", getOutcomes(o.outcomes).ServeHTTP)
		r.Get("/webhooks/metrics", getMetrics(o.collector).ServeHTTP)
	})

	if o.metrics != nil {
		r.Method(http.MethodGet, "/metrics", o.metrics)
	}

	serve := serveStub(logger, store, registry)
	r.NotFound(serve)
	r.MethodNotAllowed(serve)

	return r
}
