package webhook_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/marcelsud/webhook-dispatch/webhook"
	"github.com/marcelsud/webhook-dispatch/webhook/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDispatcher_Fire(t *testing.T) {
	t.Run("sends the declared request and reports its status", func(t *testing.T) {
		target := newTargetServer(t, http.StatusOK)
		sink := newRecordingSink()
		d := newDispatcher(t, webhook.NewLogNotifier(sink))

		spec, err := webhook.NewBuilder().
			WithMethod("POST").
			WithURL(target.URL+"/callback").
			WithHeader("Content-Type", "application/json").
			WithHeader("X-Multi", "one", "two").
			WithBody(`{ "result": "SUCCESS" }`).
			Build()
		require.NoError(t, err)

		d.Fire(spec, newInboundContext())

		req := target.next(t)
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/callback", req.Path)
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		assert.Equal(t, []string{"one", "two"}, req.Header.Values("X-Multi"))
		assert.Equal(t, `{ "result": "SUCCESS" }`, req.Body)

		line := sink.next(t)
		assert.Equal(t, webhook.Info, line.Severity)
		assert.Equal(t, "Webhook POST request to "+target.URL+"/callback returned status 200", line.Line)
	})

	t.Run("fire returns before the delay elapses", func(t *testing.T) {
		target := newTargetServer(t, http.StatusOK)
		d := newDispatcher(t, newRecordingNotifier())

		spec, err := webhook.NewBuilder().
			WithMethod("GET").
			WithURL(target.URL + "/delayed").
			WithFixedDelay(1000).
			Build()
		require.NoError(t, err)

		start := time.Now()
		d.Fire(spec, newInboundContext())
		assert.Less(t, time.Since(start), 100*time.Millisecond)

		req := target.next(t)
		elapsed := req.At.Sub(start)
		assert.GreaterOrEqual(t, elapsed, 1000*time.Millisecond)
		assert.LessOrEqual(t, elapsed, 1500*time.Millisecond)
	})

	t.Run("random delay stays within its range", func(t *testing.T) {
		target := newTargetServer(t, http.StatusOK)
		d := newDispatcher(t, newRecordingNotifier())

		spec, err := webhook.NewBuilder().
			WithMethod("GET").
			WithURL(target.URL+"/random").
			WithRandomDelay(500, 1000).
			Build()
		require.NoError(t, err)

		start := time.Now()
		d.Fire(spec, newInboundContext())

		req := target.next(t)
		elapsed := req.At.Sub(start)
		assert.GreaterOrEqual(t, elapsed, 500*time.Millisecond)
		assert.LessOrEqual(t, elapsed, 1500*time.Millisecond)
	})

	t.Run("non-2xx status is still a completed exchange", func(t *testing.T) {
		target := newTargetServer(t, http.StatusInternalServerError)
		sink := newRecordingSink()
		d := newDispatcher(t, webhook.NewLogNotifier(sink))

		spec, err := webhook.NewBuilder().WithMethod("PUT").WithURL(target.URL + "/fails").Build()
		require.NoError(t, err)

		d.Fire(spec, newInboundContext())

		line := sink.next(t)
		assert.Equal(t, webhook.Info, line.Severity)
		assert.Contains(t, line.Line, "returned status 500")
	})

	t.Run("unresolvable url is reported once and never sent", func(t *testing.T) {
		target := newTargetServer(t, http.StatusOK)
		notifier := newRecordingNotifier()
		d := newDispatcher(t, notifier)

		spec, err := webhook.NewBuilder().
			WithMethod("POST").
			WithURL("{{originalRequest.url}}").
			Build()
		require.NoError(t, err)

		d.Fire(spec, newInboundContext())
		waitIdle(t, d)

		outcome := notifier.next(t)
		assert.Equal(t, webhook.ResolutionFailed, outcome.Kind)
		assert.ErrorIs(t, outcome.Err, webhook.ErrInvalidURL)
		assert.Equal(t, "{{originalRequest.url}}", outcome.URL)
		assert.Empty(t, notifier.outcomes)
		assert.Equal(t, int64(0), target.count.Load())
	})

	t.Run("concurrent firings are independent", func(t *testing.T) {
		const n = 50
		target := newTargetServer(t, http.StatusOK)
		notifier := newRecordingNotifier()
		d := newDispatcher(t, notifier)

		start := time.Now()
		for i := 0; i < n; i++ {
			spec, err := webhook.NewBuilder().
				WithMethod("POST").
				WithURL(target.URL+"/concurrent").
				WithBody("{{parameters.n}}").
				WithExtraParameter("n", i).
				WithFixedDelay(200).
				Build()
			require.NoError(t, err)
			d.Fire(spec, newInboundContext())
		}
		waitIdle(t, d)

		assert.Less(t, time.Since(start), 2*time.Second, "delays must run in parallel")
		assert.Equal(t, int64(n), target.count.Load())

		bodies := make(map[string]struct{}, n)
		for i := 0; i < n; i++ {
			bodies[target.next(t).Body] = struct{}{}
			outcome := notifier.next(t)
			assert.Equal(t, webhook.Completed, outcome.Kind)
			assert.Equal(t, http.StatusOK, outcome.StatusCode)
		}
		assert.Len(t, bodies, n)
	})

	t.Run("one failing webhook does not affect another", func(t *testing.T) {
		target := newTargetServer(t, http.StatusOK)
		notifier := newRecordingNotifier()
		d := newDispatcher(t, notifier)
		deadURL := unreachableURL(t) + "/callback"

		reachable, err := webhook.NewBuilder().WithMethod("POST").WithURL(target.URL + "/callback").Build()
		require.NoError(t, err)
		unreachable, err := webhook.NewBuilder().WithMethod("POST").WithURL(deadURL).Build()
		require.NoError(t, err)

		tc := newInboundContext()
		d.Fire(reachable, tc)
		d.Fire(unreachable, tc)
		waitIdle(t, d)

		byURL := map[string]webhook.Outcome{}
		for i := 0; i < 2; i++ {
			outcome := notifier.next(t)
			byURL[outcome.URL] = outcome
		}

		assert.Equal(t, webhook.Completed, byURL[target.URL+"/callback"].Kind)
		failed := byURL[deadURL]
		assert.Equal(t, webhook.TransportFailed, failed.Kind)
		var transportErr *webhook.TransportError
		assert.ErrorAs(t, failed.Err, &transportErr)
		assert.Equal(t, int64(1), target.count.Load())
	})

	t.Run("slow target times out", func(t *testing.T) {
		slow := newSlowServer(t)
		notifier := newRecordingNotifier()
		d := newDispatcher(t, notifier, webhook.WithSender(webhook.NewSender(100*time.Millisecond, nil)))

		spec, err := webhook.NewBuilder().WithMethod("GET").WithURL(slow.URL).Build()
		require.NoError(t, err)

		d.Fire(spec, newInboundContext())

		outcome := notifier.next(t)
		assert.Equal(t, webhook.TransportFailed, outcome.Kind)
		var transportErr *webhook.TransportError
		require.ErrorAs(t, outcome.Err, &transportErr)
		assert.True(t, transportErr.Timeout())
	})

	t.Run("shutdown cancels pending delays", func(t *testing.T) {
		target := newTargetServer(t, http.StatusOK)
		notifier := newRecordingNotifier()
		d := webhook.NewDispatcher(nil, notifier)

		spec, err := webhook.NewBuilder().
			WithMethod("POST").
			WithURL(target.URL + "/never").
			WithFixedDelay(10_000).
			Build()
		require.NoError(t, err)

		d.Fire(spec, newInboundContext())

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, d.Shutdown(ctx))

		outcome := notifier.next(t)
		assert.Equal(t, webhook.TransportFailed, outcome.Kind)
		assert.ErrorIs(t, outcome.Err, webhook.ErrShutdown)
		assert.Equal(t, int64(0), target.count.Load())
	})

	t.Run("observers see the start and the outcome", func(t *testing.T) {
		target := newTargetServer(t, http.StatusAccepted)
		observer := mocks.NewObserver(t)
		observer.On("FiringStarted", mock.Anything, mock.AnythingOfType("string")).Once()
		observer.On("FiringFinished", mock.Anything, webhook.MatchOutcome(func(o webhook.Outcome) bool {
			return o.Kind == webhook.Completed && o.StatusCode == http.StatusAccepted && o.FiringID != ""
		})).Once()

		notifier := mocks.NewNotifier(t)
		notifier.On("Notify", mock.Anything, webhook.MatchOutcome(func(o webhook.Outcome) bool {
			return o.Method == http.MethodDelete && o.URL == target.URL+"/observed"
		})).Once()

		d := newDispatcher(t, notifier, webhook.WithObserver(observer))

		spec, err := webhook.NewBuilder().WithMethod("DELETE").WithURL(target.URL + "/observed").Build()
		require.NoError(t, err)

		d.Fire(spec, newInboundContext())
		waitIdle(t, d)
	})

	t.Run("each firing is traced", func(t *testing.T) {
		target := newTargetServer(t, http.StatusCreated)
		recorder := tracetest.NewSpanRecorder()
		provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

		d := newDispatcher(t, newRecordingNotifier(), webhook.WithTracer(provider.Tracer("test")))

		spec, err := webhook.NewBuilder().WithMethod("POST").WithURL(target.URL + "/traced").Build()
		require.NoError(t, err)

		d.Fire(spec, newInboundContext())
		waitIdle(t, d)

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, "webhook.firing", spans[0].Name())
		attrs := make(map[attribute.Key]attribute.Value)
		for _, kv := range spans[0].Attributes() {
			attrs[kv.Key] = kv.Value
		}
		assert.Equal(t, "completed", attrs["webhook.outcome"].AsString())
		assert.Equal(t, int64(http.StatusCreated), attrs["http.response.status_code"].AsInt64())
		assert.Equal(t, target.URL+"/traced", attrs["url.full"].AsString())
		assert.NotEmpty(t, attrs["webhook.firing_id"].AsString())
	})
}
