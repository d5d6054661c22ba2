package application

import (
	"context"
	"log/slog"

	"github.com/draftea/order-fulfillment/shared/events"
	"github.com/draftea/order-fulfillment/shared/saga"
	"github.com/draftea/order-fulfillment/shared/telemetry"
	"github.com/draftea/order-fulfillment/shipment-service/domain"
	"github.com/pkg/errors"
)

// ShipOrderCommand is built from a PaymentConfirmed event
type ShipOrderCommand struct {
	OrderID       string
	CustomerID    string
	PaymentStatus string
}

// ShipOrder dispatches orders whose payment is confirmed
type ShipOrder struct {
	shipmentRepository domain.ShipmentRepository
	eventPublisher     events.Publisher
	logger             *slog.Logger
}

func NewShipOrder(
	shipmentRepository domain.ShipmentRepository,
	eventPublisher events.Publisher,
	logger *slog.Logger,
) *ShipOrder {
	return &ShipOrder{
		shipmentRepository: shipmentRepository,
		eventPublisher:     eventPublisher,
		logger:             logger,
	}
}

// Execute skips, without writing or publishing, any command whose payment
// status is not exactly PAYMENT_CONFIRMED.
func (uc *ShipOrder) Execute(ctx context.Context, cmd *ShipOrderCommand) error {
	logger := telemetry.LogWithTrace(ctx, uc.logger)

	if cmd.PaymentStatus != saga.StatusPaymentConfirmed.String() {
		logger.WarnContext(ctx, "payment not confirmed, skipping shipment",
			slog.String("order_id", cmd.OrderID),
			slog.String("payment_status", cmd.PaymentStatus),
		)
		return nil
	}

	shipment := domain.ShipOrder(cmd.OrderID, cmd.CustomerID)

	if err := uc.shipmentRepository.Save(ctx, shipment); err != nil {
		return errors.Wrap(err, "failed to save shipment")
	}

	if err := uc.eventPublisher.Publish(ctx, shipment.Events()...); err != nil {
		return errors.Wrap(err, "failed to publish events")
	}

	logger.InfoContext(ctx, "order shipped",
		slog.String("shipment_id", shipment.ShipmentID),
		slog.String("order_id", shipment.OrderID),
		slog.String("tracking_number", shipment.TrackingNumber),
	)

	return nil
}
