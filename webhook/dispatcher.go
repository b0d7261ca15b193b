package webhook

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/marcelsud/webhook-dispatch/webhook"

// ErrShutdown is the cause attached to firings cut short by Shutdown
var ErrShutdown = errors.New("dispatcher shut down")

/* Observer is told when a firing starts and when it finishes
 * Observers see every firing but never change what is notified
 */
type Observer interface {
	FiringStarted(ctx context.Context, firingID string)
	FiringFinished(ctx context.Context, outcome Outcome)
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithSender replaces the default sender
func WithSender(sender *Sender) Option {
	return func(d *Dispatcher) {
		d.sender = sender
	}
}

// WithDelayPolicy replaces the default delay policy
func WithDelayPolicy(policy DelayPolicy) Option {
	return func(d *Dispatcher) {
		d.policy = policy
	}
}

// WithObserver adds an observer of firing lifecycle events
func WithObserver(observer Observer) Option {
	return func(d *Dispatcher) {
		d.observers = append(d.observers, observer)
	}
}

// WithLogger sets the logger used for firing lifecycle debug events
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithTracer sets the tracer used for firing spans
func WithTracer(tracer trace.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = tracer
	}
}

/* Dispatcher runs every firing on its own goroutine
 * Fire never blocks the caller; firings share nothing but the immutable spec and the Sender
 */
type Dispatcher struct {
	resolver  *Resolver
	sender    *Sender
	policy    DelayPolicy
	notifier  Notifier
	observers []Observer
	logger    zerolog.Logger
	tracer    trace.Tracer

	ctx    context.Context
	cancel context.CancelCauseFunc
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher resolving templates with engine and reporting to notifier
func NewDispatcher(engine TemplateEngine, notifier Notifier, opts ...Option) *Dispatcher {
	ctx, cancel := context.WithCancelCause(context.Background())
	d := &Dispatcher{
		resolver: NewResolver(engine),
		notifier: notifier,
		logger:   zerolog.Nop(),
		tracer:   otel.Tracer(tracerName),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.sender == nil {
		d.sender = NewSender(DefaultTimeout, nil)
	}
	return d
}

// Fire schedules one firing of spec for the transaction captured in tc and returns immediately
func (d *Dispatcher) Fire(spec RequestSpec, tc TemplateContext) {
	firingID := uuid.NewString()
	tc = tc.WithParameters(spec.extraParameters)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(firingID, spec, tc)
	}()
}

// Wait blocks until every accepted firing has finished or ctx is done
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight webhooks: %w", ctx.Err())
	}
}

// Shutdown cancels pending delays and calls, then waits for every firing to report
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.cancel(ErrShutdown)
	return d.Wait(ctx)
}

// run performs one firing and reports it exactly once
func (d *Dispatcher) run(firingID string, spec RequestSpec, tc TemplateContext) {
	ctx, span := d.tracer.Start(d.ctx, "webhook.firing",
		trace.WithAttributes(attribute.String("webhook.firing_id", firingID)),
	)
	defer span.End()

	for _, o := range d.observers {
		o.FiringStarted(ctx, firingID)
	}

	outcome := d.execute(ctx, firingID, spec, tc)

	span.SetAttributes(
		attribute.String("http.request.method", outcome.Method),
		attribute.String("url.full", outcome.URL),
		attribute.String("webhook.outcome", outcome.Kind.String()),
		attribute.Int("http.response.status_code", outcome.StatusCode),
		attribute.Int64("webhook.delay_ms", outcome.Delay.Milliseconds()),
	)
	if outcome.Err != nil {
		span.SetStatus(codes.Error, outcome.Err.Error())
	}

	d.notifier.Notify(ctx, outcome)

	for _, o := range d.observers {
		o.FiringFinished(ctx, outcome)
	}
}

func (d *Dispatcher) execute(ctx context.Context, firingID string, spec RequestSpec, tc TemplateContext) Outcome {
	outcome := Outcome{
		FiringID: firingID,
		Method:   spec.method,
		URL:      spec.url,
		FiredAt:  time.Now(),
	}

	req, err := d.resolver.Resolve(spec, tc)
	if err != nil {
		outcome.Kind = ResolutionFailed
		outcome.Err = err
		return outcome
	}
	outcome.Method = req.Method
	outcome.URL = req.URL

	wait := d.policy.ComputeWait(spec.delay)
	outcome.Delay = wait
	d.logger.Debug().
		Str("firing_id", firingID).
		Str("method", req.Method).
		Str("url", req.URL).
		Int64("delay_ms", wait.Milliseconds()).
		Msg("webhook scheduled")

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			outcome.Kind = TransportFailed
			outcome.Err = &TransportError{Err: fmt.Errorf("cancelled before sending: %w", context.Cause(ctx))}
			return outcome
		case <-timer.C:
		}
	}

	start := time.Now()
	status, err := d.sender.Send(ctx, req)
	outcome.Latency = time.Since(start)
	if err != nil {
		outcome.Kind = TransportFailed
		outcome.Err = err
		return outcome
	}

	outcome.Kind = Completed
	outcome.StatusCode = status
	return outcome
}
