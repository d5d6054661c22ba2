package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/draftea/order-fulfillment/billing-service/domain"
	"github.com/draftea/order-fulfillment/shared/events"
	"github.com/draftea/order-fulfillment/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// ProcessPaymentCommand is built from an InvoiceCreated event
type ProcessPaymentCommand struct {
	InvoiceID  string
	OrderID    string
	CustomerID string
	Amount     float64
}

// ProcessPayment captures the invoiced amount and records the result
type ProcessPayment struct {
	paymentRepository domain.PaymentRepository
	capturer          domain.Capturer
	eventPublisher    events.Publisher
	captureTimeout    time.Duration
	logger            *slog.Logger
}

func NewProcessPayment(
	paymentRepository domain.PaymentRepository,
	capturer domain.Capturer,
	eventPublisher events.Publisher,
	captureTimeout time.Duration,
	logger *slog.Logger,
) *ProcessPayment {
	return &ProcessPayment{
		paymentRepository: paymentRepository,
		capturer:          capturer,
		eventPublisher:    eventPublisher,
		captureTimeout:    captureTimeout,
		logger:            logger,
	}
}

// Execute writes exactly one payment record and publishes exactly one event:
// PaymentConfirmed on success or PaymentFailed on decline. Errors from any
// step are returned unpublished.
func (uc *ProcessPayment) Execute(ctx context.Context, cmd *ProcessPaymentCommand) error {
	logger := telemetry.LogWithTrace(ctx, uc.logger)

	outcome, err := uc.capture(ctx, cmd)
	if err != nil {
		return errors.Wrap(err, "failed to capture payment")
	}

	payment := domain.ProcessPayment(cmd.InvoiceID, cmd.OrderID, cmd.CustomerID, cmd.Amount, outcome)

	if err := uc.paymentRepository.Save(ctx, payment); err != nil {
		return errors.Wrap(err, "failed to save payment")
	}

	if err := uc.eventPublisher.Publish(ctx, payment.Events()...); err != nil {
		return errors.Wrap(err, "failed to publish events")
	}

	logger.InfoContext(ctx, "payment processed",
		slog.String("payment_id", payment.PaymentID),
		slog.String("order_id", payment.OrderID),
		slog.String("payment_status", payment.PaymentStatus.String()),
	)

	return nil
}

func (uc *ProcessPayment) capture(ctx context.Context, cmd *ProcessPaymentCommand) (domain.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.captureTimeout)
	defer cancel()

	start := time.Now()
	outcome, err := uc.capturer.Capture(ctx, domain.CaptureRequest{
		Amount:     cmd.Amount,
		CustomerID: cmd.CustomerID,
		InvoiceID:  cmd.InvoiceID,
		OrderID:    cmd.OrderID,
	})

	result := string(outcome)
	if err != nil {
		result = "error"
	}
	telemetry.RecordHistogram(ctx, "payment_capture_duration_seconds", "Payment capture latency", time.Since(start).Seconds(),
		attribute.String("outcome", result),
	)

	return outcome, err
}
