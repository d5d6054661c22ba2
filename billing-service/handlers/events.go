package handlers

import (
	"context"
	"log/slog"

	"github.com/draftea/order-fulfillment/billing-service/application"
	"github.com/draftea/order-fulfillment/shared/events"
	"github.com/draftea/order-fulfillment/shared/telemetry"
	"github.com/pkg/errors"
)

var _ events.EventHandler = (*PaymentEventHandlers)(nil)

// InvoiceCreatedData is the part of InvoiceCreated the payment stage reads
type InvoiceCreatedData struct {
	InvoiceID  string  `json:"invoiceId"`
	OrderID    string  `json:"orderId"`
	CustomerID string  `json:"customerId"`
	Amount     float64 `json:"amount"`
}

// PaymentEventHandlers handles invoice events
type PaymentEventHandlers struct {
	processPayment *application.ProcessPayment
	logger         *slog.Logger
}

func NewPaymentEventHandlers(processPayment *application.ProcessPayment, logger *slog.Logger) *PaymentEventHandlers {
	return &PaymentEventHandlers{
		processPayment: processPayment,
		logger:         logger,
	}
}

// Handle implements the events.EventHandler interface
func (h *PaymentEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.Topic {
	case events.TopicInvoice, "":
		return h.HandleInvoiceCreated(ctx, event)
	default:
		telemetry.LogWithTrace(ctx, h.logger).WarnContext(ctx, "ignoring event from unexpected topic",
			slog.String("topic", event.Topic.String()),
		)
		return nil
	}
}

// HandleInvoiceCreated captures payment for one invoice
func (h *PaymentEventHandlers) HandleInvoiceCreated(ctx context.Context, event *events.Event) error {
	var data InvoiceCreatedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to parse invoice created data")
	}

	if data.OrderID == "" || data.InvoiceID == "" {
		return errors.New("invoice created data has no orderId or invoiceId")
	}

	return h.processPayment.Execute(ctx, &application.ProcessPaymentCommand{
		InvoiceID:  data.InvoiceID,
		OrderID:    data.OrderID,
		CustomerID: data.CustomerID,
		Amount:     data.Amount,
	})
}
