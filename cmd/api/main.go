package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-dispatch/config"
	"github.com/marcelsud/webhook-dispatch/internal/http/chi"
	"github.com/marcelsud/webhook-dispatch/metrics"
	"github.com/marcelsud/webhook-dispatch/stub"
	"github.com/marcelsud/webhook-dispatch/telemetry"
	"github.com/marcelsud/webhook-dispatch/webhook"
	"github.com/marcelsud/webhook-dispatch/webhook/handlebars"
	whredis "github.com/marcelsud/webhook-dispatch/webhook/redis"
	"github.com/rs/zerolog"
)

const recentOutcomes = 1000

/* The api binary is the stub server
 * It wires config, the dispatcher and its observers, the mapping store and the HTTP layer,
 * then drains in-flight webhooks on the way out
 */

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	logger := httplog.NewLogger("webhook-dispatch", httplog.Options{
		JSON: cfg.LogJSON,
	})
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	tracing, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Endpoint:    cfg.TracingEndpoint,
		Insecure:    cfg.TracingInsecure,
		SampleRatio: cfg.TracingSampleRatio,
		ServiceName: "webhook-dispatch",
	})
	if err != nil {
		return err
	}
	defer tracing.Shutdown(context.Background())
	if cfg.TracingEndpoint != "" {
		logger.Info().Str("endpoint", cfg.TracingEndpoint).Msg("tracing enabled")
	}

	memory := metrics.NewMemoryCollector(recentOutcomes)
	var (
		collector metrics.Collector = memory
		outcomes  chi.OutcomeReader = memory
	)
	dispatcherOpts := []webhook.Option{
		webhook.WithSender(webhook.NewSender(cfg.WebhookTimeout, nil)),
		webhook.WithObserver(memory),
		webhook.WithLogger(logger),
		webhook.WithTracer(tracing.Tracer()),
	}

	if cfg.JournalEnabled() {
		client, err := whredis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		journal := whredis.NewJournal(client,
			whredis.WithMaxLen(cfg.JournalMaxLen),
			whredis.WithInFlightTTL(cfg.WebhookTimeout*2),
			whredis.WithLogger(logger),
		)
		defer journal.Close()

		collector = metrics.NewRedisCollector(journal)
		outcomes = journal
		dispatcherOpts = append(dispatcherOpts, webhook.WithObserver(journal))
		logger.Info().Str("addr", cfg.RedisAddr).Msg("outcome journal enabled")
	}

	handlerOpts := []chi.Option{chi.WithOutcomes(outcomes), chi.WithCollector(collector)}
	if cfg.MetricsEnabled {
		exporter, err := metrics.NewOTelExporter(collector)
		if err != nil {
			return err
		}
		defer exporter.Shutdown(context.Background())
		dispatcherOpts = append(dispatcherOpts, webhook.WithObserver(exporter))
		handlerOpts = append(handlerOpts, chi.WithMetricsHandler(exporter.Handler()))
	}

	dispatcher := webhook.NewDispatcher(
		handlebars.New(),
		webhook.NewLogNotifier(webhook.NewZerologSink(logger)),
		dispatcherOpts...,
	)

	registry := stub.NewRegistry(webhook.NewAction(dispatcher))
	store := stub.NewStore(registry)
	if cfg.MappingsDir != "" {
		n, err := stub.NewLoader(store, logger).LoadDir(cfg.MappingsDir)
		if err != nil {
			return err
		}
		logger.Info().Int("mappings", n).Str("dir", cfg.MappingsDir).Msg("mappings loaded")
	}

	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      chi.Handlers(logger, store, registry, handlerOpts...),
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, cfg.ShutdownTimeout, errShutdown)
	logger.Info().Str("port", cfg.Port).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	if err := <-errShutdown; err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}

	return drain(dispatcher, cfg.ShutdownTimeout, logger)
}

func shutdown(server *http.Server, ctxShutdown context.Context, timeout time.Duration, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), timeout)
	defer stop()

	if err := server.Shutdown(ctxTimeout); err != nil {
		errShutdown <- fmt.Errorf("forcing closing the server: %w", err)
		return
	}
	errShutdown <- nil
}

// drain lets pending webhooks finish, cancelling whatever is left once timeout expires
func drain(dispatcher *webhook.Dispatcher, timeout time.Duration, logger zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := dispatcher.Wait(ctx); err == nil {
		logger.Info().Msg("all webhooks delivered")
		return nil
	}

	logger.Warn().Msg("cancelling pending webhooks")
	ctxCancel, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := dispatcher.Shutdown(ctxCancel); err != nil {
		return fmt.Errorf("shutting down dispatcher: %w", err)
	}
	return nil
}
