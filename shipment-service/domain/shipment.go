package domain

import (
	"context"
	"time"

	"github.com/draftea/order-fulfillment/shared/events"
	"github.com/draftea/order-fulfillment/shared/models"
	"github.com/draftea/order-fulfillment/shared/saga"
)

// Shipment is the record written by the shipment stage
type Shipment struct {
	ShipmentID     string      `json:"shipmentId" dynamodbav:"shipmentId"`
	OrderID        string      `json:"orderId" dynamodbav:"orderId"`
	TrackingNumber string      `json:"trackingNumber" dynamodbav:"trackingNumber"`
	Status         saga.Status `json:"status" dynamodbav:"status"`
	CustomerID     string      `json:"customerId" dynamodbav:"customerId"`
	ShippedAt      time.Time   `json:"shippedAt" dynamodbav:"shippedAt"`

	events []*events.Event
}

// ShipOrder dispatches a paid order and records Shipped.
func ShipOrder(orderID, customerID string) *Shipment {
	shipment := &Shipment{
		ShipmentID:     models.NewPrefixedID(models.KindShipment),
		OrderID:        orderID,
		TrackingNumber: models.NewTrackingNumber(),
		Status:         saga.StatusShipped,
		CustomerID:     customerID,
		ShippedAt:      time.Now().UTC(),
	}

	shipment.recordEvent(events.NewEvent(events.TopicShipment, ShippedData{
		ShipmentID:     shipment.ShipmentID,
		OrderID:        shipment.OrderID,
		TrackingNumber: shipment.TrackingNumber,
		Status:         shipment.Status,
		ShippedAt:      shipment.ShippedAt,
		CustomerID:     shipment.CustomerID,
	}).WithMetadata(events.MetadataCorrelationID, orderID))

	return shipment
}

// Events returns domain events
func (s *Shipment) Events() []*events.Event {
	return s.events
}

func (s *Shipment) recordEvent(event *events.Event) {
	s.events = append(s.events, event)
}

func (s *Shipment) RecordKind() models.Kind  { return models.KindShipment }
func (s *Shipment) RecordID() string         { return s.ShipmentID }
func (s *Shipment) RecordOrderID() string    { return s.OrderID }
func (s *Shipment) RecordCustomerID() string { return s.CustomerID }
func (s *Shipment) RecordStatus() string     { return s.Status.String() }
func (s *Shipment) RecordTime() time.Time    { return s.ShippedAt }

// ShippedData is published on shipment-events
type ShippedData struct {
	ShipmentID     string      `json:"shipmentId"`
	OrderID        string      `json:"orderId"`
	TrackingNumber string      `json:"trackingNumber"`
	Status         saga.Status `json:"status"`
	ShippedAt      time.Time   `json:"shippedAt"`
	CustomerID     string      `json:"customerId"`
}

// ShipmentRepository interface
type ShipmentRepository interface {
	Save(ctx context.Context, shipment *Shipment) error
}
