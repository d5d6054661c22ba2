package domain

import (
	"context"
	"time"

	"github.com/draftea/order-fulfillment/shared/events"
	"github.com/draftea/order-fulfillment/shared/models"
	"github.com/draftea/order-fulfillment/shared/saga"
)

// Payment is the record written by the payment stage
type Payment struct {
	PaymentID     string      `json:"paymentId" dynamodbav:"paymentId"`
	OrderID       string      `json:"orderId" dynamodbav:"orderId"`
	InvoiceID     string      `json:"invoiceId" dynamodbav:"invoiceId"`
	Amount        float64     `json:"amount" dynamodbav:"amount"`
	PaymentStatus saga.Status `json:"paymentStatus" dynamodbav:"paymentStatus"`
	CustomerID    string      `json:"customerId" dynamodbav:"customerId"`
	ProcessedAt   time.Time   `json:"processedAt" dynamodbav:"processedAt"`

	events []*events.Event
}

// ProcessPayment records the capture outcome. PAID confirms the payment and
// emits PaymentConfirmed on the success topic; any other outcome fails it and
// emits PaymentFailed on the error topic.
func ProcessPayment(invoiceID, orderID, customerID string, amount float64, outcome Outcome) *Payment {
	payment := &Payment{
		PaymentID:   models.NewPrefixedID(models.KindPayment),
		OrderID:     orderID,
		InvoiceID:   invoiceID,
		Amount:      amount,
		CustomerID:  customerID,
		ProcessedAt: time.Now().UTC(),
	}

	var event *events.Event
	if outcome.IsPaid() {
		payment.PaymentStatus = saga.StatusPaymentConfirmed
		event = events.NewEvent(events.TopicPaymentSuccess, PaymentConfirmedData{
			OrderID:       orderID,
			InvoiceID:     invoiceID,
			PaymentStatus: payment.PaymentStatus,
			PaidAt:        payment.ProcessedAt,
			CustomerID:    customerID,
		})
	} else {
		payment.PaymentStatus = saga.StatusPaymentFailed
		event = events.NewEvent(events.TopicError, PaymentFailedData{
			OrderID:       orderID,
			InvoiceID:     invoiceID,
			PaymentStatus: payment.PaymentStatus,
			Status:        payment.PaymentStatus,
			Details:       "payment " + outcome.String(),
			FailedAt:      payment.ProcessedAt,
			CustomerID:    customerID,
		})
	}

	payment.recordEvent(event.WithMetadata(events.MetadataCorrelationID, orderID))
	return payment
}

// Events returns domain events
func (p *Payment) Events() []*events.Event {
	return p.events
}

func (p *Payment) recordEvent(event *events.Event) {
	p.events = append(p.events, event)
}

func (p *Payment) RecordKind() models.Kind  { return models.KindPayment }
func (p *Payment) RecordID() string         { return p.PaymentID }
func (p *Payment) RecordOrderID() string    { return p.OrderID }
func (p *Payment) RecordCustomerID() string { return p.CustomerID }
func (p *Payment) RecordStatus() string     { return p.PaymentStatus.String() }
func (p *Payment) RecordTime() time.Time    { return p.ProcessedAt }

// PaymentConfirmedData is published on payment-success-events
type PaymentConfirmedData struct {
	OrderID       string      `json:"orderId"`
	InvoiceID     string      `json:"invoiceId"`
	PaymentStatus saga.Status `json:"paymentStatus"`
	PaidAt        time.Time   `json:"paidAt"`
	CustomerID    string      `json:"customerId"`
}

// PaymentFailedData is published on error-events when capture is declined.
// Status duplicates PaymentStatus so notification can classify it.
type PaymentFailedData struct {
	OrderID       string      `json:"orderId"`
	InvoiceID     string      `json:"invoiceId"`
	PaymentStatus saga.Status `json:"paymentStatus"`
	Status        saga.Status `json:"status"`
	Details       string      `json:"details"`
	FailedAt      time.Time   `json:"failedAt"`
	CustomerID    string      `json:"customerId"`
}

// PaymentRepository interface
type PaymentRepository interface {
	Save(ctx context.Context, payment *Payment) error
}
