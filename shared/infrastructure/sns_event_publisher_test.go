package infrastructure

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/draftea/order-fulfillment/shared/events"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNS struct {
	mu      sync.Mutex
	inputs  []*sns.PublishBatchInput
	failIDs map[string]bool
	err     error
}

func (f *fakeSNS) PublishBatch(_ context.Context, in *sns.PublishBatchInput, _ ...func(*sns.Options)) (*sns.PublishBatchOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)

	out := &sns.PublishBatchOutput{}
	for _, entry := range in.PublishBatchRequestEntries {
		if f.failIDs[aws.ToString(entry.Id)] {
			out.Failed = append(out.Failed, types.BatchResultErrorEntry{
				Id:      entry.Id,
				Code:    aws.String("InternalError"),
				Message: aws.String("try again"),
			})
			continue
		}
		out.Successful = append(out.Successful, types.PublishBatchResultEntry{Id: entry.Id})
	}
	return out, nil
}

var testTopicArns = map[events.Topic]string{
	events.TopicOrder:   "arn:aws:sns:us-east-1:000000000000:order-events",
	events.TopicInvoice: "arn:aws:sns:us-east-1:000000000000:invoice-events",
	events.TopicError:   "arn:aws:sns:us-east-1:000000000000:error-events",
}

func TestSNSEventPublisher_Publish(t *testing.T) {
	client := &fakeSNS{}
	publisher := NewSNSEventPublisher(client, testTopicArns)

	evt := events.NewEvent(events.TopicInvoice, map[string]interface{}{"invoiceId": "invoice_1", "orderId": "o1"})
	evt.WithMetadata(events.MetadataCorrelationID, "o1")
	evt.WithMetadata(events.MetadataTransportID, "should-not-leak")

	require.NoError(t, publisher.Publish(context.Background(), evt))
	require.Len(t, client.inputs, 1)

	in := client.inputs[0]
	assert.Equal(t, testTopicArns[events.TopicInvoice], aws.ToString(in.TopicArn))
	require.Len(t, in.PublishBatchRequestEntries, 1)

	entry := in.PublishBatchRequestEntries[0]
	assert.JSONEq(t, `{"invoiceId":"invoice_1","orderId":"o1"}`, aws.ToString(entry.Message))
	assert.Equal(t, "invoice-events", aws.ToString(entry.MessageAttributes[events.MetadataTopic].StringValue))
	assert.Equal(t, evt.ID.String(), aws.ToString(entry.MessageAttributes[events.MetadataEventID].StringValue))
	assert.Equal(t, "o1", aws.ToString(entry.MessageAttributes[events.MetadataCorrelationID].StringValue))
	assert.NotContains(t, entry.MessageAttributes, events.MetadataTransportID)
}

func TestSNSEventPublisher_BatchesPerTopic(t *testing.T) {
	client := &fakeSNS{}
	publisher := NewSNSEventPublisher(client, testTopicArns)

	var evts []*events.Event
	for i := 0; i < 12; i++ {
		evts = append(evts, events.NewEvent(events.TopicOrder, json.RawMessage(`{}`)))
	}
	evts = append(evts, events.NewEvent(events.TopicError, json.RawMessage(`{}`)))

	require.NoError(t, publisher.Publish(context.Background(), evts...))

	perArn := map[string]int{}
	for _, in := range client.inputs {
		assert.LessOrEqual(t, len(in.PublishBatchRequestEntries), maxBatchSize)
		perArn[aws.ToString(in.TopicArn)] += len(in.PublishBatchRequestEntries)
	}
	assert.Equal(t, 12, perArn[testTopicArns[events.TopicOrder]])
	assert.Equal(t, 1, perArn[testTopicArns[events.TopicError]])
	assert.Len(t, client.inputs, 3)
}

func TestSNSEventPublisher_Errors(t *testing.T) {
	t.Run("unknown topic", func(t *testing.T) {
		client := &fakeSNS{}
		publisher := NewSNSEventPublisher(client, testTopicArns)

		err := publisher.Publish(context.Background(), events.NewEvent(events.TopicShipment, json.RawMessage(`{}`)))
		assert.ErrorIs(t, err, ErrUnknownTopic)
		assert.Empty(t, client.inputs)
	})

	t.Run("client error", func(t *testing.T) {
		publisher := NewSNSEventPublisher(&fakeSNS{err: errors.New("throttled")}, testTopicArns)

		err := publisher.Publish(context.Background(), events.NewEvent(events.TopicOrder, json.RawMessage(`{}`)))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to publish batch to SNS")
	})

	t.Run("partial failure", func(t *testing.T) {
		evt := events.NewEvent(events.TopicOrder, json.RawMessage(`{}`))
		client := &fakeSNS{failIDs: map[string]bool{evt.ID.String(): true}}
		publisher := NewSNSEventPublisher(client, testTopicArns)

		err := publisher.Publish(context.Background(), evt, events.NewEvent(events.TopicOrder, json.RawMessage(`{}`)))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SNS rejected 1 of 2 entries")
		assert.Contains(t, err.Error(), "InternalError")
	})

	t.Run("no events", func(t *testing.T) {
		client := &fakeSNS{}
		assert.NoError(t, NewSNSEventPublisher(client, testTopicArns).Publish(context.Background()))
		assert.Empty(t, client.inputs)
	})
}

func TestSplitToChunks(t *testing.T) {
	chunks := splitToChunks([]int{1, 2, 3, 4, 5}, 2)
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, chunks)
	assert.Nil(t, splitToChunks([]int{}, 3))
}
