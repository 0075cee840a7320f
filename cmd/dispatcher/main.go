package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/StrongheartedX/firecrawl/internal/config"
	"github.com/StrongheartedX/firecrawl/internal/logging"
	"github.com/StrongheartedX/firecrawl/internal/metrics"
	"github.com/StrongheartedX/firecrawl/internal/queue"
	"github.com/StrongheartedX/firecrawl/internal/tracing"
	"github.com/StrongheartedX/firecrawl/internal/webhook"
)

const serviceName = "webhook-dispatcher"

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(serviceName, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			AttachStacktrace: true,
		}); err != nil {
			logger.Error("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("tracing init failed", zap.Error(err))
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	reg := prometheus.NewRegistry()
	metrics.MustRegister(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	httpSrv := &http.Server{Addr: cfg.HTTPPort, Handler: mux}
	go func() {
		logger.Info("http server starting", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	consumer, err := queue.NewConsumer(cfg.RabbitMQURL, cfg.QueueName, cfg.PrefetchCount)
	if err != nil {
		logger.Fatal("queue connect failed", zap.Error(err))
	}
	deliveries, err := consumer.Deliveries()
	if err != nil {
		logger.Fatal("queue consume failed", zap.Error(err))
	}

	client := webhook.NewClient(nil)
	store := webhook.NewLogStore(nil, cfg.SupabaseURL, cfg.SupabaseServiceToken)
	policy := webhook.Policy{MaxRetries: cfg.MaxRetries, Delay: cfg.RetryDelay()}
	dispatcher := webhook.NewDispatcher(client, store, policy, cfg.PrefetchCount, logger)

	done := make(chan struct{})
	go func() {
		dispatcher.Run(ctx, deliveries)
		close(done)
	}()

	logger.Info("webhook dispatcher started",
		zap.String("queue", cfg.QueueName),
		zap.Int("prefetch", cfg.PrefetchCount),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("retry_delay", cfg.RetryDelay()),
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	// Cancel aborts inter-attempt waits; attempts already on the wire
	// finish or hit their timeout. Closing the consumer returns unhandled
	// messages to the broker and drains the workers.
	cancel()
	if err := consumer.Close(); err != nil {
		logger.Error("queue close failed", zap.Error(err))
	}
	<-done
	_ = httpSrv.Shutdown(context.Background())
	logger.Info("webhook dispatcher stopped")
}
