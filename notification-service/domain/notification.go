package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/draftea/order-fulfillment/shared/models"
	"github.com/draftea/order-fulfillment/shared/saga"
)

const StatusSent = "SENT"

// Message is the union of fields the notification stage reads from any saga
// event.
type Message struct {
	Status         string `json:"status"`
	PaymentStatus  string `json:"paymentStatus"`
	OrderID        string `json:"orderId"`
	CustomerID     string `json:"customerId"`
	InvoiceID      string `json:"invoiceId"`
	TrackingNumber string `json:"trackingNumber"`
	Error          string `json:"error"`
	Details        string `json:"details"`
}

// Tag is status when it belongs to the status model, otherwise paymentStatus
// when present.
func (m Message) Tag() string {
	if _, ok := saga.ParseStatus(m.Status); ok || m.PaymentStatus == "" {
		return m.Status
	}
	return m.PaymentStatus
}

// Notification is a rendered customer message
type Notification struct {
	Subject string
	Body    string
	Status  saga.Status
}

// Classify renders the notification for a message. It returns false when the
// tag is outside the status model.
func Classify(m Message) (Notification, bool) {
	status, ok := saga.ParseStatus(m.Tag())
	if !ok {
		return Notification{}, false
	}

	n := Notification{Status: status}
	switch status {
	case saga.StatusOrderCreated:
		n.Subject = "Order Received"
		n.Body = fmt.Sprintf("Your order %s has been received.", m.OrderID)
	case saga.StatusInvoiceCreated:
		n.Subject = "Invoice Issued"
		n.Body = fmt.Sprintf("Invoice %s for your order %s has been issued.", m.InvoiceID, m.OrderID)
	case saga.StatusPaymentConfirmed:
		n.Subject = "Payment Confirmed"
		n.Body = fmt.Sprintf("Payment for your order %s has been confirmed.", m.OrderID)
	case saga.StatusShipped:
		n.Subject = "Shipment Dispatched"
		n.Body = fmt.Sprintf("Your order %s has been shipped. Tracking number: %s", m.OrderID, m.TrackingNumber)
	case saga.StatusOrderError, saga.StatusInvoiceError, saga.StatusPaymentFailed, saga.StatusShipmentError:
		details := m.Error
		if details == "" {
			details = m.Details
		}
		n.Subject = "Order Issue"
		n.Body = fmt.Sprintf("There was an issue with your order %s. Please contact support. Error details: %s", m.OrderID, details)
	default:
		return Notification{}, false
	}

	return n, true
}

// NotificationLog records one sent notification
type NotificationLog struct {
	LogID       string      `json:"logId" dynamodbav:"logId"`
	OrderID     string      `json:"orderId,omitempty" dynamodbav:"orderId,omitempty"`
	CustomerID  string      `json:"customerId" dynamodbav:"customerId"`
	Subject     string      `json:"subject" dynamodbav:"subject"`
	Body        string      `json:"body" dynamodbav:"body"`
	SentAt      time.Time   `json:"sentAt" dynamodbav:"sentAt"`
	Status      string      `json:"status" dynamodbav:"status"`
	EventStatus saga.Status `json:"eventStatus" dynamodbav:"eventStatus"`
}

func NewNotificationLog(m Message, n Notification) *NotificationLog {
	return &NotificationLog{
		LogID:       models.NewPrefixedID(models.KindNotification),
		OrderID:     m.OrderID,
		CustomerID:  m.CustomerID,
		Subject:     n.Subject,
		Body:        n.Body,
		SentAt:      time.Now().UTC(),
		Status:      StatusSent,
		EventStatus: n.Status,
	}
}

func (l *NotificationLog) RecordKind() models.Kind { return models.KindNotification }
func (l *NotificationLog) RecordID() string { return l.LogID }
func (l *NotificationLog) RecordOrderID() string { return l.OrderID }
func (l *NotificationLog) RecordCustomerID() string { return l.CustomerID }

// RecordStatus reports the saga status that triggered the notification, not
// the delivery status.
func (l *NotificationLog) RecordStatus() string { return l.EventStatus.String() }
func (l *NotificationLog) RecordTime() time.Time { return l.SentAt }

// NotificationLogRepository interface
type NotificationLogRepository interface {
	Save(ctx context.Context, log *NotificationLog) error
}
