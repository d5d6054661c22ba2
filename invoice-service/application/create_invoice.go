package application

import (
	"context"
	"log/slog"

	"github.com/draftea/order-fulfillment/invoice-service/domain"
	"github.com/draftea/order-fulfillment/shared/events"
	"github.com/draftea/order-fulfillment/shared/telemetry"
	"github.com/pkg/errors"
)

// CreateInvoiceCommand is built from an OrderCreated event
type CreateInvoiceCommand struct {
	OrderID     string
	CustomerID  string
	TotalAmount float64
}

// CreateInvoice issues one invoice per order event
type CreateInvoice struct {
	invoiceRepository domain.InvoiceRepository
	eventPublisher    events.Publisher
	logger            *slog.Logger
}

func NewCreateInvoice(
	invoiceRepository domain.InvoiceRepository,
	eventPublisher events.Publisher,
	logger *slog.Logger,
) *CreateInvoice {
	return &CreateInvoice{
		invoiceRepository: invoiceRepository,
		eventPublisher:    eventPublisher,
		logger:            logger,
	}
}

func (uc *CreateInvoice) Execute(ctx context.Context, cmd *CreateInvoiceCommand) error {
	invoice := domain.CreateInvoice(cmd.OrderID, cmd.CustomerID, cmd.TotalAmount)

	if err := uc.invoiceRepository.Save(ctx, invoice); err != nil {
		return errors.Wrap(err, "failed to save invoice")
	}

	if err := uc.eventPublisher.Publish(ctx, invoice.Events()...); err != nil {
		return errors.Wrap(err, "failed to publish events")
	}

	telemetry.LogWithTrace(ctx, uc.logger).InfoContext(ctx, "invoice created",
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("order_id", invoice.OrderID),
	)

	return nil
}
