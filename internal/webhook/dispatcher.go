package webhook

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/StrongheartedX/firecrawl/internal/metrics"
	"github.com/StrongheartedX/firecrawl/internal/tracing"
)

// Acknowledger is the slice of amqp.Delivery the dispatcher needs, split
// out so the per-message flow is testable without a broker.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Dispatcher drives each queue message through decode, the retry loop, the
// outcome log and the final acknowledgment. The worker count matches the
// channel prefetch, so the broker never hands us more than we can hold.
type Dispatcher struct {
	client  *Client
	store   *LogStore
	policy  Policy
	workers int
	logger  *zap.Logger

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(client *Client, store *LogStore, policy Policy, workers int, logger *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		client:  client,
		store:   store,
		policy:  policy,
		workers: workers,
		logger:  logger,
		sleep:   sleepCtx,
	}
}

// Run consumes deliveries until the channel closes. Each worker owns one
// message end-to-end, so a slow or retrying delivery never delays the start
// of another. ctx gates only the inter-attempt waits; attempts already on
// the wire finish or hit their own timeout.
func (d *Dispatcher) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range deliveries {
				d.Process(ctx, msg.Body, msg)
			}
		}()
	}
	wg.Wait()
}

// Process handles one raw queue message end-to-end: decode, attempt loop,
// terminal log, acknowledgment.
func (d *Dispatcher) Process(ctx context.Context, body []byte, ack Acknowledger) {
	msg, err := DecodeMessage(body)
	if err != nil {
		d.logger.Error("rejecting malformed message", zap.Error(err))
		metrics.MalformedTotal.Inc()
		sentry.CaptureException(err)
		if nackErr := ack.Nack(false, false); nackErr != nil {
			d.logger.Error("nack failed", zap.Error(nackErr))
		}
		return
	}

	logger := d.logger.With(
		zap.String("team_id", msg.TeamID),
		zap.String("job_id", msg.JobID),
		zap.String("event", msg.Event),
		zap.String("webhook_url", msg.WebhookURL),
	)

	// Attempts and the outcome log run detached from shutdown; only the
	// wait between attempts observes cancellation.
	attemptCtx := context.WithoutCancel(ctx)
	attemptCtx, span := tracing.StartSpan(attemptCtx, "webhook.delivery",
		attribute.String("team_id", msg.TeamID),
		attribute.String("job_id", msg.JobID),
		attribute.String("event", msg.Event),
	)
	defer span.End()

	for {
		start := time.Now()
		out := d.client.Deliver(attemptCtx, msg)
		metrics.AttemptDuration.Observe(time.Since(start).Seconds())
		tracing.AddSpanEvent(attemptCtx, "webhook.attempt",
			attribute.Int("retry_count", msg.RetryCount),
			attribute.Int("status_code", out.StatusCode),
		)

		decision := d.policy.Decide(msg.RetryCount, out)
		switch decision.Action {
		case Succeed:
			logger.Info("webhook delivered",
				zap.Int("status_code", out.StatusCode),
				zap.Int("retry_count", msg.RetryCount),
			)
			metrics.DeliveriesTotal.WithLabelValues("delivered").Inc()
			d.finish(attemptCtx, logger, msg, out, ack)
			return

		case Fail:
			logger.Warn("webhook delivery failed",
				zap.Int("status_code", out.StatusCode),
				zap.String("reason", out.Reason),
				zap.Int("retry_count", msg.RetryCount),
			)
			metrics.DeliveriesTotal.WithLabelValues("failed").Inc()
			tracing.SetSpanError(attemptCtx, errors.New(out.Reason))
			d.finish(attemptCtx, logger, msg, out, ack)
			return

		case Retry:
			msg.RetryCount++
			metrics.RetriesTotal.WithLabelValues(metricReason(out)).Inc()
			logger.Info("retrying webhook delivery",
				zap.String("reason", out.Reason),
				zap.Int("retry_count", msg.RetryCount),
				zap.Duration("wait", decision.Wait),
			)
			if err := d.sleep(ctx, decision.Wait); err != nil {
				// Shutting down mid-wait: hand the message back to the
				// broker instead of holding it for the full delay.
				if nackErr := ack.Nack(false, true); nackErr != nil {
					logger.Error("requeue failed", zap.Error(nackErr))
				}
				return
			}
		}
	}
}

// finish writes the terminal log entry and acknowledges the message. Log
// persistence is best-effort: its failure never blocks the ack.
func (d *Dispatcher) finish(ctx context.Context, logger *zap.Logger, msg *Message, out Outcome, ack Acknowledger) {
	if err := d.store.Insert(ctx, NewLog(msg, out)); err != nil {
		logger.Error("outcome log insert failed", zap.Error(err))
		metrics.LogFailuresTotal.Inc()
		sentry.CaptureException(err)
	}
	if err := ack.Ack(false); err != nil {
		logger.Error("ack failed", zap.Error(err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
