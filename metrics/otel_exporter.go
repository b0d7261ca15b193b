package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/marcelsud/webhook-dispatch/webhook"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

/* OTelExporter publishes firing metrics in Prometheus format
 * Gauges are read from a Collector on every scrape; request latency is recorded as firings finish,
 * so the exporter must also be registered as a dispatcher observer
 */
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *promclient.Registry
	collector     Collector
	duration      metric.Float64Histogram
}

// gauge describes one observable gauge backed by the collector
type gauge struct {
	name        string
	description string
	observe     metric.Int64Callback
}

// NewOTelExporter creates an exporter with its own Prometheus registry
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	registry := promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		registry:      registry,
		collector:     collector,
	}

	meter := meterProvider.Meter("github.com/marcelsud/webhook-dispatch/metrics")
	if err := oe.registerInstruments(meter); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

func (oe *OTelExporter) registerInstruments(meter metric.Meter) error {
	gauges := []gauge{
		{"webhook.firings.count", "Number of finished webhook firings by outcome", oe.observeOutcomeCounts},
		{"webhook.firings.inflight", "Number of webhook firings delayed or awaiting a response", oe.observeInFlight},
		{"webhook.throughput", "Number of webhook firings completed over a time window", oe.observeThroughput},
	}
	for _, g := range gauges {
		_, err := meter.Int64ObservableGauge(g.name,
			metric.WithDescription(g.description),
			metric.WithUnit("{firings}"),
			metric.WithInt64Callback(g.observe),
		)
		if err != nil {
			return fmt.Errorf("creating %s gauge: %w", g.name, err)
		}
	}

	var err error
	oe.duration, err = meter.Float64Histogram("webhook.request.duration",
		metric.WithDescription("Duration of outbound webhook requests, delay excluded"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("creating request duration histogram: %w", err)
	}
	return nil
}

// FiringStarted implements webhook.Observer
func (oe *OTelExporter) FiringStarted(context.Context, string) {}

// FiringFinished records the latency of firings that reached the network
func (oe *OTelExporter) FiringFinished(ctx context.Context, outcome webhook.Outcome) {
	if outcome.Kind == webhook.ResolutionFailed {
		return
	}
	oe.duration.Record(ctx, outcome.Latency.Seconds(), metric.WithAttributes(
		attribute.String("webhook.outcome", outcome.Kind.String()),
		attribute.String("http.request.method", outcome.Method),
	))
}

func (oe *OTelExporter) observeOutcomeCounts(ctx context.Context, observer metric.Int64Observer) error {
	counts, err := oe.collector.GetOutcomeCounts(ctx)
	if err != nil {
		return err
	}
	for outcome, count := range counts {
		observer.Observe(count, metric.WithAttributes(attribute.String("webhook.outcome", outcome)))
	}
	return nil
}

func (oe *OTelExporter) observeInFlight(ctx context.Context, observer metric.Int64Observer) error {
	n, err := oe.collector.GetInFlight(ctx)
	if err != nil {
		return err
	}
	observer.Observe(n)
	return nil
}

func (oe *OTelExporter) observeThroughput(ctx context.Context, observer metric.Int64Observer) error {
	tp, err := oe.collector.GetThroughput(ctx)
	if err != nil {
		return err
	}
	windows := map[string]int64{
		"1m":  tp.LastMinute,
		"5m":  tp.LastFiveMinutes,
		"15m": tp.LastFifteenMinutes,
	}
	for window, n := range windows {
		observer.Observe(n, metric.WithAttributes(attribute.String("time.window", window)))
	}
	return nil
}

// Handler serves the exporter's registry in Prometheus text format
func (oe *OTelExporter) Handler() http.Handler {
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	return oe.meterProvider.Shutdown(ctx)
}
