package domain

import (
	"context"
	"time"

	"github.com/draftea/order-fulfillment/shared/events"
	"github.com/draftea/order-fulfillment/shared/models"
	"github.com/draftea/order-fulfillment/shared/saga"
)

// Invoice is the record written by the invoice stage
type Invoice struct {
	InvoiceID  string      `json:"invoiceId" dynamodbav:"invoiceId"`
	OrderID    string      `json:"orderId" dynamodbav:"orderId"`
	CustomerID string      `json:"customerId" dynamodbav:"customerId"`
	Amount     float64     `json:"amount" dynamodbav:"amount"`
	Status     saga.Status `json:"status" dynamodbav:"status"`
	CreatedAt  time.Time   `json:"createdAt" dynamodbav:"createdAt"`

	events []*events.Event
}

// CreateInvoice bills the full order total and records InvoiceCreated.
func CreateInvoice(orderID, customerID string, amount float64) *Invoice {
	invoice := &Invoice{
		InvoiceID:  models.NewPrefixedID(models.KindInvoice),
		OrderID:    orderID,
		CustomerID: customerID,
		Amount:     amount,
		Status:     saga.StatusInvoiceCreated,
		CreatedAt:  time.Now().UTC(),
	}

	invoice.recordEvent(events.NewEvent(events.TopicInvoice, InvoiceCreatedData{
		InvoiceID:  invoice.InvoiceID,
		OrderID:    invoice.OrderID,
		CustomerID: invoice.CustomerID,
		Amount:     invoice.Amount,
		CreatedAt:  invoice.CreatedAt,
		Status:     invoice.Status,
	}).WithMetadata(events.MetadataCorrelationID, orderID))

	return invoice
}

// Events returns domain events
func (i *Invoice) Events() []*events.Event {
	return i.events
}

func (i *Invoice) recordEvent(event *events.Event) {
	i.events = append(i.events, event)
}

func (i *Invoice) RecordKind() models.Kind  { return models.KindInvoice }
func (i *Invoice) RecordID() string         { return i.InvoiceID }
func (i *Invoice) RecordOrderID() string    { return i.OrderID }
func (i *Invoice) RecordCustomerID() string { return i.CustomerID }
func (i *Invoice) RecordStatus() string     { return i.Status.String() }
func (i *Invoice) RecordTime() time.Time    { return i.CreatedAt }

// InvoiceCreatedData is published on invoice-events
type InvoiceCreatedData struct {
	InvoiceID  string      `json:"invoiceId"`
	OrderID    string      `json:"orderId"`
	CustomerID string      `json:"customerId"`
	Amount     float64     `json:"amount"`
	CreatedAt  time.Time   `json:"createdAt"`
	Status     saga.Status `json:"status"`
}

// InvoiceRepository interface
type InvoiceRepository interface {
	Save(ctx context.Context, invoice *Invoice) error
}
