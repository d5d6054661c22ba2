package handlers

import (
	"context"
	"log/slog"

	"github.com/draftea/order-fulfillment/invoice-service/application"
	"github.com/draftea/order-fulfillment/shared/events"
	"github.com/draftea/order-fulfillment/shared/telemetry"
	"github.com/pkg/errors"
)

var _ events.EventHandler = (*InvoiceEventHandlers)(nil)

// OrderCreatedData is the part of OrderCreated the invoice stage reads
type OrderCreatedData struct {
	OrderID     string  `json:"orderId"`
	CustomerID  string  `json:"customerId"`
	TotalAmount float64 `json:"totalAmount"`
}

// InvoiceEventHandlers handles order events
type InvoiceEventHandlers struct {
	createInvoice *application.CreateInvoice
	logger        *slog.Logger
}

func NewInvoiceEventHandlers(createInvoice *application.CreateInvoice, logger *slog.Logger) *InvoiceEventHandlers {
	return &InvoiceEventHandlers{
		createInvoice: createInvoice,
		logger:        logger,
	}
}

// Handle implements the events.EventHandler interface
func (h *InvoiceEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.Topic {
	case events.TopicOrder, "":
		return h.HandleOrderCreated(ctx, event)
	default:
		telemetry.LogWithTrace(ctx, h.logger).WarnContext(ctx, "ignoring event from unexpected topic",
			slog.String("topic", event.Topic.String()),
		)
		return nil
	}
}

// HandleOrderCreated invoices one order
func (h *InvoiceEventHandlers) HandleOrderCreated(ctx context.Context, event *events.Event) error {
	var data OrderCreatedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse order created data")
	}

	if data.OrderID == "" {
		return errors.New("order created data has no orderId")
	}

	return h.createInvoice.Execute(ctx, &application.CreateInvoiceCommand{
		OrderID:     data.OrderID,
		CustomerID:  data.CustomerID,
		TotalAmount: data.TotalAmount,
	})
}
