package saga

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/draftea/order-fulfillment/shared/events"
	"github.com/draftea/order-fulfillment/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ events.BatchHandler = (*StageRunner)(nil)

// Deduplicator remembers which messages a stage has already finished.
// A key is marked only after its message was processed or its failure
// reported, so an interrupted message is still processed on redelivery.
type Deduplicator interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

// StageRunner is the per-message failure boundary around a stage handler.
// Messages in a batch run sequentially; a failing or panicking message is
// converted into an error event and never affects its siblings.
type StageRunner struct {
	stage   Stage
	handler events.EventHandler
	sink    *ErrorSink
	dedup   Deduplicator
	logger  *slog.Logger
}

type StageOption func(*StageRunner)

// WithErrorSink routes failures to sink. Without one, failures are only logged.
func WithErrorSink(sink *ErrorSink) StageOption {
	return func(r *StageRunner) {
		r.sink = sink
	}
}

func WithDeduplicator(d Deduplicator) StageOption {
	return func(r *StageRunner) {
		r.dedup = d
	}
}

func NewStageRunner(stage Stage, handler events.EventHandler, logger *slog.Logger, opts ...StageOption) *StageRunner {
	r := &StageRunner{
		stage:   stage,
		handler: handler,
		logger:  logger.With(slog.String("stage", stage.String())),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *StageRunner) HandlerID() string {
	return r.stage.String()
}

// HandleBatch returns an error only when ctx ends before the batch does.
func (r *StageRunner) HandleBatch(ctx context.Context, evts []*events.Event) error {
	for _, evt := range evts {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.HandleMessage(ctx, evt)
	}
	return nil
}

// HandleMessage processes one message. It never returns a failure to the caller.
func (r *StageRunner) HandleMessage(ctx context.Context, evt *events.Event) {
	start := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "saga.stage."+r.stage.String(),
		trace.WithAttributes(
			attribute.String("saga.stage", r.stage.String()),
			attribute.String("messaging.destination", evt.Topic.String()),
			attribute.String("messaging.message_id", evt.ID.String()),
		),
	)
	defer span.End()

	logger := telemetry.LogWithTrace(ctx, r.logger).With(
		slog.String("event_id", evt.ID.String()),
		slog.String("topic", evt.Topic.String()),
	)

	outcome := "ok"
	defer func() {
		telemetry.RecordCounter(ctx, "saga_messages_total", "Messages processed by saga stages", 1,
			attribute.String("stage", r.stage.String()),
			attribute.String("outcome", outcome),
		)
		telemetry.RecordHistogram(ctx, "saga_message_duration_seconds", "Saga stage message processing time",
			time.Since(start).Seconds(),
			attribute.String("stage", r.stage.String()),
		)
	}()

	dedupKey := r.stage.String() + ":" + evt.ID.String()
	if r.dedup != nil {
		seen, err := r.dedup.Seen(ctx, dedupKey)
		if err != nil {
			logger.WarnContext(ctx, "redelivery check failed, processing anyway", slog.Any("error", err))
		} else if seen {
			outcome = "duplicate"
			logger.InfoContext(ctx, "skipping redelivered message")
			return
		}
	}

	if err := r.invoke(ctx, evt); err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		logger.ErrorContext(ctx, "message processing failed", slog.Any("error", err))

		if r.sink != nil {
			r.sink.Report(ctx, evt, err, FailureStatus(r.stage), fmt.Sprintf("error in %s stage", r.stage))
		}
	}

	// An interrupted message stays unmarked and is processed again on
	// redelivery.
	if ctx.Err() != nil {
		outcome = "interrupted"
		return
	}

	if r.dedup != nil {
		if err := r.dedup.Mark(ctx, dedupKey); err != nil {
			logger.WarnContext(ctx, "failed to mark message as processed", slog.Any("error", err))
		}
	}
}

func (r *StageRunner) invoke(ctx context.Context, evt *events.Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.ErrorContext(ctx, "handler panicked", slog.String("stack", string(debug.Stack())))
			err = errors.Errorf("panic: %v", p)
		}
	}()

	return r.handler.Handle(ctx, evt)
}
