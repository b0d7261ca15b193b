package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewTracerProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled without an endpoint", func(t *testing.T) {
		tp, err := NewTracerProvider(ctx, Config{ServiceName: "webhook-dispatch"})
		require.NoError(t, err)

		_, span := tp.Tracer().Start(ctx, "webhook.firing")
		defer span.End()

		assert.False(t, span.SpanContext().IsValid())
		assert.NoError(t, tp.Shutdown(ctx))
	})

	t.Run("exports spans when an endpoint is set", func(t *testing.T) {
		tp, err := NewTracerProvider(ctx, Config{
			Endpoint:    "localhost:4317",
			Insecure:    true,
			SampleRatio: 1,
			ServiceName: "webhook-dispatch",
		})
		require.NoError(t, err)

		_, span := tp.Tracer().Start(ctx, "webhook.firing")
		span.End()

		assert.True(t, span.SpanContext().IsValid())
		assert.True(t, span.SpanContext().IsSampled())

		shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	})
}

func TestSampler(t *testing.T) {
	cases := map[string]struct {
		ratio float64
		want  sdktrace.Sampler
	}{
		"always":  {ratio: 1, want: sdktrace.AlwaysSample()},
		"above 1": {ratio: 2, want: sdktrace.AlwaysSample()},
		"never":   {ratio: 0, want: sdktrace.NeverSample()},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want.Description(), sampler(tc.ratio).Description())
		})
	}

	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}
