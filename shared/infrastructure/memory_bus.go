package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/draftea/order-fulfillment/shared/events"
	"github.com/draftea/order-fulfillment/shared/models"
	"github.com/pkg/errors"
	"gocloud.dev/pubsub"
	"gocloud.dev/pubsub/mempubsub"
	"golang.org/x/sync/errgroup"
)

var _ events.Publisher = (*MemoryBus)(nil)

// MemoryBus is an in-process fan-out transport with the same delivery
// contract as SNS to SQS: each subscription receives its own copy of every
// message sent after it was created.
type MemoryBus struct {
	mu          sync.Mutex
	topics      map[events.Topic]*pubsub.Topic
	subs        []*pubsub.Subscription
	ackDeadline time.Duration
	logger      *slog.Logger
}

// NewMemoryBus registers the given topics. Publishing to any other topic fails.
func NewMemoryBus(logger *slog.Logger, topics ...events.Topic) *MemoryBus {
	b := &MemoryBus{
		topics:      make(map[events.Topic]*pubsub.Topic, len(topics)),
		ackDeadline: time.Minute,
		logger:      logger,
	}
	for _, t := range topics {
		b.topics[t] = mempubsub.NewTopic()
	}
	return b
}

func (b *MemoryBus) Publish(ctx context.Context, evts ...*events.Event) error {
	for _, evt := range evts {
		b.mu.Lock()
		topic, ok := b.topics[evt.Topic]
		b.mu.Unlock()
		if !ok {
			return errors.Wrapf(ErrUnknownTopic, "topic %q", evt.Topic)
		}

		payload, err := evt.MarshalPayload()
		if err != nil {
			return errors.Wrap(err, "failed to marshal payload")
		}

		metadata := evt.Metadata.Clone()
		metadata[events.MetadataTopic] = evt.Topic.String()
		metadata[events.MetadataEventID] = evt.ID.String()

		if err := topic.Send(ctx, &pubsub.Message{
			Body:       payload,
			Metadata:   metadata,
			LoggableID: evt.ID.String(),
		}); err != nil {
			return errors.Wrapf(err, "failed to send to %s", evt.Topic)
		}
	}
	return nil
}

// Subscribe creates one subscription per registered topic matching pattern.
// Subscriptions exist from this call on; Run starts delivery.
func (b *MemoryBus) Subscribe(pattern events.Topic, handler events.BatchHandler) (*MemorySubscriber, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := &MemorySubscriber{
		handler: handler,
		logger:  b.logger.With(slog.String("handler", handler.HandlerID())),
	}
	for name, topic := range b.topics {
		if !name.Matches(pattern) {
			continue
		}
		sub := mempubsub.NewSubscription(topic, b.ackDeadline)
		s.subs = append(s.subs, sub)
		b.subs = append(b.subs, sub)
	}

	if len(s.subs) == 0 {
		return nil, errors.Wrapf(ErrUnknownTopic, "pattern %q", pattern)
	}
	return s, nil
}

// Close shuts down every subscription and topic.
func (b *MemoryBus) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for _, sub := range b.subs {
		if err := sub.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for _, topic := range b.topics {
		if err := topic.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	b.subs = nil

	if len(errs) > 0 {
		return errors.Errorf("errors closing memory bus: %v", errs)
	}
	return nil
}

// MemorySubscriber delivers messages from its subscriptions one at a time.
type MemorySubscriber struct {
	subs    []*pubsub.Subscription
	handler events.BatchHandler
	logger  *slog.Logger
}

// Run blocks until ctx ends or a subscription is shut down.
func (s *MemorySubscriber) Run(ctx context.Context) error {
	gr, ctx := errgroup.WithContext(ctx)
	for _, sub := range s.subs {
		gr.Go(func() error {
			return s.receive(ctx, sub)
		})
	}

	err := gr.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (s *MemorySubscriber) receive(ctx context.Context, sub *pubsub.Subscription) error {
	for {
		msg, err := sub.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "memory subscription closed")
		}

		evt := &events.Event{
			ID:        models.ID(msg.Metadata[events.MetadataEventID]),
			Topic:     events.Topic(msg.Metadata[events.MetadataTopic]),
			Data:      json.RawMessage(msg.Body),
			Metadata:  events.Metadata(msg.Metadata).Clone(),
			Timestamp: time.Now().UTC(),
		}

		if err := s.handler.HandleBatch(ctx, []*events.Event{evt}); err != nil {
			if msg.Nackable() {
				msg.Nack()
			}
			s.logger.WarnContext(ctx, "batch interrupted", slog.String("event_id", evt.ID.String()), slog.Any("error", err))
			continue
		}
		msg.Ack()
	}
}
