package domain

import (
	"context"
	"time"

	"github.com/draftea/order-fulfillment/shared/events"
	"github.com/draftea/order-fulfillment/shared/models"
	"github.com/draftea/order-fulfillment/shared/saga"
	"github.com/pkg/errors"
)

var (
	ErrInvalidOrder  = errors.New("invalid order")
	ErrOrderNotFound = errors.New("order not found")
)

// Item is one order line
type Item struct {
	ProductID string  `json:"productId" dynamodbav:"productId"`
	Quantity  int     `json:"quantity" dynamodbav:"quantity"`
	Price     float64 `json:"price" dynamodbav:"price"`
}

// Order is the record written by the intake stage
type Order struct {
	OrderID       string      `json:"orderId" dynamodbav:"orderId"`
	CustomerID    string      `json:"customerId" dynamodbav:"customerId"`
	Items         []Item      `json:"items" dynamodbav:"items"`
	TotalAmount   float64     `json:"totalAmount" dynamodbav:"totalAmount"`
	PaymentMethod string      `json:"paymentMethod,omitempty" dynamodbav:"paymentMethod,omitempty"`
	Status        saga.Status `json:"status" dynamodbav:"status"`
	CreatedAt     time.Time   `json:"createdAt" dynamodbav:"createdAt"`

	events []*events.Event
}

// CreateOrder builds an ORDER_CREATED order and records its OrderCreated event.
// Input is expected to be validated already.
func CreateOrder(customerID string, items []Item, paymentMethod string) *Order {
	order := &Order{
		OrderID:       models.NewPrefixedID(models.KindOrder),
		CustomerID:    customerID,
		Items:         items,
		TotalAmount:   TotalAmount(items),
		PaymentMethod: paymentMethod,
		Status:        saga.StatusOrderCreated,
		CreatedAt:     time.Now().UTC(),
	}

	order.recordEvent(events.NewEvent(events.TopicOrder, OrderCreatedData{
		OrderID:       order.OrderID,
		CustomerID:    order.CustomerID,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
		Items:         order.Items,
		Status:        order.Status,
	}).WithMetadata(events.MetadataCorrelationID, order.OrderID))

	return order
}

// TotalAmount is the sum of price times quantity over every item.
func TotalAmount(items []Item) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// Events returns domain events
func (o *Order) Events() []*events.Event {
	return o.events
}

func (o *Order) recordEvent(event *events.Event) {
	o.events = append(o.events, event)
}

func (o *Order) RecordKind() models.Kind  { return models.KindOrder }
func (o *Order) RecordID() string         { return o.OrderID }
func (o *Order) RecordOrderID() string    { return o.OrderID }
func (o *Order) RecordCustomerID() string { return o.CustomerID }
func (o *Order) RecordStatus() string     { return o.Status.String() }
func (o *Order) RecordTime() time.Time    { return o.CreatedAt }

// OrderCreatedData is published on order-events
type OrderCreatedData struct {
	OrderID       string      `json:"orderId"`
	CustomerID    string      `json:"customerId"`
	TotalAmount   float64     `json:"totalAmount"`
	PaymentMethod string      `json:"paymentMethod"`
	Items         []Item      `json:"items"`
	Status        saga.Status `json:"status"`
}

// OrderRepository interface
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
}

// ProgressReader lists the saga observations recorded for an order.
type ProgressReader interface {
	ObservationsByOrderID(ctx context.Context, orderID string) ([]saga.Observation, error)
}
