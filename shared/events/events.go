package events

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/draftea/order-fulfillment/shared/models"
)

var (
	ErrInvalidTopic    = errors.New("invalid topic")
	ErrInvalidPayload  = errors.New("invalid payload")
	ErrInvalidReceiver = errors.New("receiver should be a pointer")
)

// Topic represents an event topic with pattern matching support
type Topic string

// Saga topics. The error topic is the error sink.
const (
	TopicOrder          Topic = "order-events"
	TopicInvoice        Topic = "invoice-events"
	TopicPaymentSuccess Topic = "payment-success-events"
	TopicShipment       Topic = "shipment-events"
	TopicError          Topic = "error-events"

	// TopicAll matches every saga topic.
	TopicAll Topic = "#-events"
)

// Topics lists every saga topic.
func Topics() []Topic {
	return []Topic{TopicOrder, TopicInvoice, TopicPaymentSuccess, TopicShipment, TopicError}
}

func NewTopic(topic string) (Topic, error) {
	if topic == "" {
		return "", ErrInvalidTopic
	}
	return Topic(topic), nil
}

// Matches supports "#" as a leading or trailing wildcard and "*" as a
// single dot-separated segment.
func (t Topic) Matches(pattern Topic) bool {
	topicStr := t.String()
	patternStr := pattern.String()

	if patternStr == "#" {
		return true
	}

	if strings.HasPrefix(patternStr, "#") && strings.HasSuffix(patternStr, "#") {
		return strings.Contains(
			topicStr,
			strings.TrimSuffix(strings.TrimPrefix(patternStr, "#"), "#"),
		)
	}

	if strings.HasPrefix(patternStr, "#") {
		return strings.HasSuffix(topicStr, strings.TrimPrefix(patternStr, "#"))
	}

	if strings.HasSuffix(patternStr, "#") {
		return strings.HasPrefix(topicStr, strings.TrimSuffix(patternStr, "#"))
	}

	return matchPattern(strings.Split(patternStr, "."), strings.Split(topicStr, "."))
}

func (t Topic) String() string {
	return string(t)
}

func matchPattern(patternParts, topicParts []string) bool {
	if len(patternParts) != len(topicParts) {
		return false
	}

	if len(patternParts) == 0 {
		return true
	}

	if patternParts[0] == "*" || patternParts[0] == topicParts[0] {
		return matchPattern(patternParts[1:], topicParts[1:])
	}

	return false
}

// Metadata carries transport attributes alongside the payload
type Metadata map[string]string

// Metadata keys set by the transports.
const (
	MetadataTopic         = "topic"
	MetadataEventID       = "event_id"
	MetadataReceiveCount  = "receive_count"
	MetadataTransportID   = "transport_message_id"
	MetadataCorrelationID = "correlation_id"
)

func (m Metadata) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Set is a no-op on a nil map; use Event.WithMetadata to allocate lazily.
func (m Metadata) Set(key string, value string) {
	if m == nil {
		return
	}
	m[key] = value
}

func (m Metadata) Merge(metadata Metadata) Metadata {
	if m == nil {
		m = make(Metadata)
	}
	for k, v := range metadata {
		m[k] = v
	}
	return m
}

func (m Metadata) Clone() Metadata {
	clone := Metadata{}
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

// Event is one message on a saga topic. Data holds the payload, either a
// typed value on the publishing side or json.RawMessage on the consuming side.
type Event struct {
	ID        models.ID   `json:"id"`
	Topic     Topic       `json:"topic"`
	Data      interface{} `json:"data"`
	Metadata  Metadata    `json:"metadata"`
	Timestamp time.Time   `json:"timestamp"`
}

// Publisher publishes events
type Publisher interface {
	Publish(ctx context.Context, events ...*Event) error
}

// EventHandler handles a single delivered event
type EventHandler interface {
	Handle(ctx context.Context, event *Event) error
}

// EventHandlerFunc adapts a function to EventHandler
type EventHandlerFunc func(ctx context.Context, event *Event) error

func (f EventHandlerFunc) Handle(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// BatchHandler receives every batch a transport delivers. An error means the
// batch was interrupted and its messages should be redelivered.
type BatchHandler interface {
	HandlerID() string
	HandleBatch(ctx context.Context, events []*Event) error
}

// NewEvent creates a new event on topic
func NewEvent(topic Topic, data interface{}) *Event {
	return &Event{
		ID:        models.GenerateUUID(),
		Topic:     topic,
		Data:      data,
		Metadata:  make(Metadata),
		Timestamp: time.Now().UTC(),
	}
}

// WithMetadata adds metadata
func (e *Event) WithMetadata(key string, value string) *Event {
	if e.Metadata == nil {
		e.Metadata = make(Metadata)
	}
	e.Metadata.Set(key, value)
	return e
}

// MarshalPayload marshals the event payload
func (e *Event) MarshalPayload() (json.RawMessage, error) {
	if b, ok := e.Data.([]byte); ok {
		return b, nil
	}

	if b, ok := e.Data.(json.RawMessage); ok {
		return b, nil
	}

	return json.Marshal(e.Data)
}

// UnmarshalPayload unmarshals the event payload into the given interface
func (e *Event) UnmarshalPayload(v interface{}) error {
	vValue := reflect.ValueOf(v)
	if vValue.Kind() != reflect.Ptr || vValue.IsNil() {
		return ErrInvalidReceiver
	}

	if e.Data == nil {
		return ErrInvalidPayload
	}

	vValue = vValue.Elem()
	payloadValue := reflect.ValueOf(e.Data)
	if vValue.Type() == payloadValue.Type() {
		vValue.Set(payloadValue)
		return nil
	}

	raw, err := e.MarshalPayload()
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, v)
}

// Clone creates a copy of the event
func (e *Event) Clone() *Event {
	return &Event{
		ID:        e.ID,
		Topic:     e.Topic,
		Data:      e.Data,
		Metadata:  e.Metadata.Clone(),
		Timestamp: e.Timestamp,
	}
}
