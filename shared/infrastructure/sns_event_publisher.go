package infrastructure

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/draftea/order-fulfillment/shared/events"
	"github.com/draftea/order-fulfillment/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var _ events.Publisher = (*SNSEventPublisher)(nil)

const maxBatchSize = 10

var ErrUnknownTopic = errors.New("no topic ARN configured")

// SNSAPI is the subset of the SNS client the publisher needs
type SNSAPI interface {
	PublishBatch(ctx context.Context, params *sns.PublishBatchInput, optFns ...func(*sns.Options)) (*sns.PublishBatchOutput, error)
}

// SNSEventPublisher publishes each event to the SNS topic mapped to its Topic.
// The message body is the bare payload JSON; the topic name and metadata
// travel as message attributes.
type SNSEventPublisher struct {
	client    SNSAPI
	topicArns map[events.Topic]string
}

// NewSNSEventPublisher creates a new SNSEventPublisher
func NewSNSEventPublisher(client SNSAPI, topicArns map[events.Topic]string) *SNSEventPublisher {
	return &SNSEventPublisher{
		client:    client,
		topicArns: topicArns,
	}
}

// NewSNSEventPublisherFromConfig builds the SNS client from an AWS config
func NewSNSEventPublisherFromConfig(cfg aws.Config, topicArns map[events.Topic]string) *SNSEventPublisher {
	return NewSNSEventPublisher(sns.NewFromConfig(cfg), topicArns)
}

// Publish publishes events to SNS, batching per topic
func (p *SNSEventPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	if len(evts) == 0 {
		return nil
	}

	byTopic := make(map[events.Topic][]*events.Event)
	for _, evt := range evts {
		if _, ok := p.topicArns[evt.Topic]; !ok {
			return errors.Wrapf(ErrUnknownTopic, "topic %q", evt.Topic)
		}
		byTopic[evt.Topic] = append(byTopic[evt.Topic], evt)
	}

	gr, ctx := errgroup.WithContext(ctx)

	for topic, topicEvents := range byTopic {
		topicArn := p.topicArns[topic]
		for _, eventBatch := range splitToChunks(topicEvents, maxBatchSize) {
			gr.Go(func() error {
				return p.batchPublish(ctx, topicArn, eventBatch)
			})
		}
	}

	return gr.Wait()
}

func (p *SNSEventPublisher) batchPublish(ctx context.Context, topicArn string, evts []*events.Event) error {
	requests := make([]types.PublishBatchRequestEntry, len(evts))

	for i, event := range evts {
		payload, err := event.MarshalPayload()
		if err != nil {
			return errors.Wrap(err, "failed to marshal payload")
		}

		attrs := map[string]types.MessageAttributeValue{
			events.MetadataTopic: {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.Topic.String()),
			},
			events.MetadataEventID: {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.ID.String()),
			},
		}

		for k, v := range event.Metadata {
			if k == events.MetadataTransportID || k == events.MetadataReceiveCount || v == "" {
				continue
			}

			attrs[k] = types.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(v),
			}
		}

		requests[i] = types.PublishBatchRequestEntry{
			Id:                aws.String(event.ID.String()),
			Message:           aws.String(string(payload)),
			MessageAttributes: attrs,
		}
	}

	res, err := p.client.PublishBatch(
		ctx,
		&sns.PublishBatchInput{
			TopicArn:                   aws.String(topicArn),
			PublishBatchRequestEntries: requests,
		},
	)
	if err != nil {
		return errors.Wrap(err, "failed to publish batch to SNS")
	}

	failed := make(map[string]string, len(res.Failed))
	for _, entry := range res.Failed {
		failed[aws.ToString(entry.Id)] = aws.ToString(entry.Code) + ": " + aws.ToString(entry.Message)
	}

	var failures []string
	for _, event := range evts {
		topic := attribute.String("topic", event.Topic.String())
		if reason, ok := failed[event.ID.String()]; ok {
			failures = append(failures, fmt.Sprintf("%s (%s)", event.ID, reason))
			telemetry.RecordCounter(ctx, "events_published_total", "Events handed to the transport", 1,
				topic, attribute.Bool("success", false))
			continue
		}
		telemetry.RecordCounter(ctx, "events_published_total", "Events handed to the transport", 1,
			topic, attribute.Bool("success", true))
	}

	if len(failures) > 0 {
		return errors.Errorf("SNS rejected %d of %d entries: %s", len(failures), len(evts), strings.Join(failures, ", "))
	}

	return nil
}

// splitToChunks splits slice into chunks of specified size
func splitToChunks[T any](slice []T, chunkSize int) [][]T {
	var chunks [][]T
	for i := 0; i < len(slice); i += chunkSize {
		end := i + chunkSize
		if end > len(slice) {
			end = len(slice)
		}
		chunks = append(chunks, slice[i:end])
	}
	return chunks
}
