package saga

import (
	"context"
	"log/slog"

	"github.com/draftea/order-fulfillment/shared/events"
	"github.com/draftea/order-fulfillment/shared/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// ErrorEvent is the payload published on the error topic.
type ErrorEvent struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	OrderID    string `json:"orderId,omitempty"`
	CustomerID string `json:"customerId,omitempty"`
	Status     Status `json:"status"`
}

// Compensator is invoked after every reported failure. It is the hook for
// undoing completed stages; the saga itself never compensates.
type Compensator interface {
	Compensate(ctx context.Context, failure ErrorEvent) error
}

// NoopCompensator leaves completed stages in place.
type NoopCompensator struct{}

func (NoopCompensator) Compensate(context.Context, ErrorEvent) error { return nil }

// ErrorSink turns stage failures into events on the error topic.
type ErrorSink struct {
	publisher   events.Publisher
	compensator Compensator
	logger      *slog.Logger
}

type ErrorSinkOption func(*ErrorSink)

func WithCompensator(c Compensator) ErrorSinkOption {
	return func(s *ErrorSink) {
		s.compensator = c
	}
}

func NewErrorSink(publisher events.Publisher, logger *slog.Logger, opts ...ErrorSinkOption) *ErrorSink {
	s := &ErrorSink{
		publisher:   publisher,
		compensator: NoopCompensator{},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// correlation holds the identifiers recoverable from an arbitrary payload.
type correlation struct {
	OrderID    string `json:"orderId"`
	CustomerID string `json:"customerId"`
}

// Report publishes one error event for a failed inbound message. The orderId
// is recovered from the raw payload when it is a JSON object carrying one.
// Publish failures are logged and swallowed.
func (s *ErrorSink) Report(ctx context.Context, inbound *events.Event, cause error, status Status, details string) {
	failure := ErrorEvent{
		Error:   cause.Error(),
		Details: details,
		Status:  status,
	}

	if inbound != nil {
		var c correlation
		if err := inbound.UnmarshalPayload(&c); err == nil {
			failure.OrderID = c.OrderID
			failure.CustomerID = c.CustomerID
		}
	}

	s.Publish(ctx, failure)
}

// Publish sends an already-built error event.
func (s *ErrorSink) Publish(ctx context.Context, failure ErrorEvent) {
	logger := telemetry.LogWithTrace(ctx, s.logger)

	evt := events.NewEvent(events.TopicError, failure)
	if failure.OrderID != "" {
		evt.WithMetadata(events.MetadataCorrelationID, failure.OrderID)
	}

	if err := s.publisher.Publish(ctx, evt); err != nil {
		logger.ErrorContext(ctx, "failed to publish error event",
			slog.String("status", failure.Status.String()),
			slog.String("order_id", failure.OrderID),
			slog.String("cause", failure.Error),
			slog.Any("error", err),
		)
		return
	}

	telemetry.RecordCounter(ctx, "saga_errors_reported_total", "Error events published to the error sink", 1,
		attribute.String("status", failure.Status.String()),
	)

	if err := s.compensator.Compensate(ctx, failure); err != nil {
		logger.ErrorContext(ctx, "compensation failed",
			slog.String("order_id", failure.OrderID),
			slog.Any("error", err),
		)
	}
}
