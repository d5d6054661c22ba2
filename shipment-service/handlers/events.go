package handlers

import (
	"context"
	"log/slog"

	"github.com/draftea/order-fulfillment/shared/events"
	"github.com/draftea/order-fulfillment/shared/telemetry"
	"github.com/draftea/order-fulfillment/shipment-service/application"
	"github.com/pkg/errors"
)

var _ events.EventHandler = (*ShipmentEventHandlers)(nil)

// PaymentConfirmedData is the part of PaymentConfirmed the shipment stage reads
type PaymentConfirmedData struct {
	OrderID       string `json:"orderId"`
	PaymentStatus string `json:"paymentStatus"`
	CustomerID    string `json:"customerId"`
}

// ShipmentEventHandlers handles payment events
type ShipmentEventHandlers struct {
	shipOrder *application.ShipOrder
	logger    *slog.Logger
}

func NewShipmentEventHandlers(shipOrder *application.ShipOrder, logger *slog.Logger) *ShipmentEventHandlers {
	return &ShipmentEventHandlers{
		shipOrder: shipOrder,
		logger:    logger,
	}
}

// Handle implements the events.EventHandler interface
func (h *ShipmentEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.Topic {
	case events.TopicPaymentSuccess, "":
		return h.HandlePaymentConfirmed(ctx, event)
	default:
		telemetry.LogWithTrace(ctx, h.logger).WarnContext(ctx, "ignoring event from unexpected topic",
			slog.String("topic", event.Topic.String()),
		)
		return nil
	}
}

// HandlePaymentConfirmed ships one order
func (h *ShipmentEventHandlers) HandlePaymentConfirmed(ctx context.Context, event *events.Event) error {
	var data PaymentConfirmedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse payment confirmed data")
	}

	if data.OrderID == "" {
		return errors.New("payment confirmed data has no orderId")
	}

	return h.shipOrder.Execute(ctx, &application.ShipOrderCommand{
		OrderID:       data.OrderID,
		CustomerID:    data.CustomerID,
		PaymentStatus: data.PaymentStatus,
	})
}
