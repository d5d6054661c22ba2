package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/draftea/order-fulfillment/shared/events"
	"github.com/draftea/order-fulfillment/shared/models"
	"github.com/pkg/errors"
)

// SQSAPI is the subset of the SQS client the subscriber needs
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
}

type sqsMessage struct {
	Message types.Message
	Err     error
}

// sqsBatch is everything one ReceiveMessage call returned.
type sqsBatch struct {
	messages []*sqsMessage
	events   []*events.Event
}

// snsEnvelope is the body SQS carries when an SNS subscription does not use
// raw message delivery.
type snsEnvelope struct {
	Type              string `json:"Type"`
	MessageID         string `json:"MessageId"`
	TopicArn          string `json:"TopicArn"`
	Message           string `json:"Message"`
	MessageAttributes map[string]struct {
		Type  string `json:"Type"`
		Value string `json:"Value"`
	} `json:"MessageAttributes"`
}

// SQSEventSubscriber delivers each received SQS batch to one BatchHandler.
// Readers poll, workers run the handler, cleaners delete or back off.
type SQSEventSubscriber struct {
	mux              sync.Mutex
	inboundMessages  chan *sqsBatch
	outboundMessages chan *sqsMessage
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	running          atomic.Bool
	options          *sqsSubscriberOptions

	client   SQSAPI
	queueURL string
	handler  events.BatchHandler
	logger   *slog.Logger
}

type sqsSubscriberOptions struct {
	workers                        int32
	readers                        int32
	cleaners                       int32
	maxNumberOfMessages            int32
	waitTimeSeconds                int32
	visibilityTimeout              int32
	sleepTimeAfterEmptyReceive     time.Duration
	sleepTimeAfterError            time.Duration
	ack                            bool
	extendVisibilityTimeoutOnError bool
	receiveCountRange              int32
	visibilityTimeoutOffset        int32
	maxVisibilityTimeout           int32
}

type SQSSubscriberOption func(*sqsSubscriberOptions)

func WithWorkers(workers int32) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) {
		o.workers = workers
	}
}

func WithReaders(readers int32) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) {
		o.readers = readers
	}
}

func WithVisibilityTimeout(timeout int32) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) {
		o.visibilityTimeout = timeout
	}
}

// WithMaxMessages caps the batch size of one receive (SQS allows 1 to 10).
func WithMaxMessages(n int32) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) {
		o.maxNumberOfMessages = n
	}
}

func WithWaitTimeSeconds(seconds int32) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) {
		o.waitTimeSeconds = seconds
	}
}

func WithIdleSleep(afterEmpty, afterError time.Duration) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) {
		o.sleepTimeAfterEmptyReceive = afterEmpty
		o.sleepTimeAfterError = afterError
	}
}

// NewSQSEventSubscriber creates a new SQS event subscriber
func NewSQSEventSubscriber(
	client SQSAPI,
	queueURL string,
	handler events.BatchHandler,
	logger *slog.Logger,
	opts ...SQSSubscriberOption,
) *SQSEventSubscriber {
	options := &sqsSubscriberOptions{
		workers:                        4,
		readers:                        1,
		cleaners:                       2,
		maxNumberOfMessages:            10,
		waitTimeSeconds:                15,
		visibilityTimeout:              30,
		sleepTimeAfterEmptyReceive:     time.Second,
		sleepTimeAfterError:            20 * time.Second,
		ack:                            true,
		extendVisibilityTimeoutOnError: true,
		receiveCountRange:              3,
		visibilityTimeoutOffset:        30,
		maxVisibilityTimeout:           900, // 15 minutes
	}

	for _, opt := range opts {
		opt(options)
	}

	return &SQSEventSubscriber{
		client:   client,
		queueURL: queueURL,
		handler:  handler,
		logger: logger.With(
			slog.String("queue_url", queueURL),
			slog.String("handler", handler.HandlerID()),
		),
		options: options,
	}
}

// Start launches the reader, worker and cleaner goroutines. It is a no-op if
// the subscriber is already running.
func (s *SQSEventSubscriber) Start(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.running.Load() {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.inboundMessages = make(chan *sqsBatch, s.options.workers)
	s.outboundMessages = make(chan *sqsMessage, s.options.maxNumberOfMessages*s.options.workers)
	s.cancel = cancel

	for i := 0; i < int(s.options.workers); i++ {
		s.spawn(func() { s.startWorker(ctx) })
	}

	for i := 0; i < int(s.options.readers); i++ {
		s.spawn(func() { s.startReader(ctx) })
	}

	for i := 0; i < int(s.options.cleaners); i++ {
		s.spawn(func() { s.startCleaner(ctx) })
	}

	s.running.Store(true)
	s.logger.Info("sqs subscriber started")

	return nil
}

// Stop cancels all goroutines and waits for them to exit or ctx to end.
// Messages in flight are left to their visibility timeout.
func (s *SQSEventSubscriber) Stop(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if !s.running.Load() {
		return nil
	}

	s.cancel()
	s.cancel = nil
	s.running.Store(false)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("sqs subscriber stopped")
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "timed out waiting for sqs subscriber to stop")
	}
}

func (s *SQSEventSubscriber) spawn(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

func (s *SQSEventSubscriber) startWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-s.inboundMessages:
			s.handle(ctx, batch)
		}
	}
}

func (s *SQSEventSubscriber) startReader(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		received, err := s.read(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			s.logger.Error("failed to receive messages", slog.Any("error", err))
			sleepContext(ctx, s.options.sleepTimeAfterError)
		case err == nil && received == 0:
			sleepContext(ctx, s.options.sleepTimeAfterEmptyReceive)
		}
	}
}

func (s *SQSEventSubscriber) startCleaner(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case message := <-s.outboundMessages:
			if err := s.clean(ctx, message); err != nil && ctx.Err() == nil {
				s.logger.Error("failed to settle message",
					slog.String("message_id", aws.ToString(message.Message.MessageId)),
					slog.Any("error", err),
				)
			}
		}
	}
}

func (s *SQSEventSubscriber) read(ctx context.Context) (int, error) {
	output, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(s.queueURL),
		MaxNumberOfMessages: s.options.maxNumberOfMessages,
		WaitTimeSeconds:     s.options.waitTimeSeconds,
		VisibilityTimeout:   s.options.visibilityTimeout,
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{
			types.MessageSystemAttributeNameApproximateReceiveCount,
		},
		MessageAttributeNames: []string{"All"},
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to receive message from SQS")
	}

	if len(output.Messages) == 0 {
		return 0, nil
	}

	batch := &sqsBatch{}
	for _, message := range output.Messages {
		batch.messages = append(batch.messages, &sqsMessage{Message: message})
		batch.events = append(batch.events, toEvent(message))
	}

	select {
	case s.inboundMessages <- batch:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	return len(output.Messages), nil
}

// toEvent never fails: a body that is not JSON is handed to the stage as is
// so the failure is reported there.
func toEvent(message types.Message) *events.Event {
	body := aws.ToString(message.Body)

	evt := &events.Event{
		ID:        models.ID(aws.ToString(message.MessageId)),
		Data:      json.RawMessage(body),
		Metadata:  make(events.Metadata),
		Timestamp: time.Now().UTC(),
	}

	evt.Metadata.Set(events.MetadataTransportID, aws.ToString(message.MessageId))
	if count, ok := message.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)]; ok {
		evt.Metadata.Set(events.MetadataReceiveCount, count)
	}

	for k, v := range message.MessageAttributes {
		if v.StringValue != nil {
			evt.Metadata.Set(k, *v.StringValue)
		}
	}

	var envelope snsEnvelope
	if err := json.Unmarshal([]byte(body), &envelope); err == nil && envelope.Type == "Notification" {
		evt.Data = json.RawMessage(envelope.Message)
		if envelope.MessageID != "" {
			evt.ID = models.ID(envelope.MessageID)
		}
		for k, v := range envelope.MessageAttributes {
			evt.Metadata.Set(k, v.Value)
		}
		if _, ok := evt.Metadata[events.MetadataTopic]; !ok && envelope.TopicArn != "" {
			evt.Metadata.Set(events.MetadataTopic, envelope.TopicArn[strings.LastIndex(envelope.TopicArn, ":")+1:])
		}
	}

	if id, ok := evt.Metadata.Get(events.MetadataEventID); ok && id != "" {
		evt.ID = models.ID(id)
	}
	evt.Topic = events.Topic(evt.Metadata[events.MetadataTopic])

	return evt
}

func (s *SQSEventSubscriber) handle(ctx context.Context, batch *sqsBatch) {
	err := s.handler.HandleBatch(ctx, batch.events)

	for _, message := range batch.messages {
		message.Err = err
		select {
		case s.outboundMessages <- message:
		case <-ctx.Done():
			return
		}
	}
}

func (s *SQSEventSubscriber) clean(ctx context.Context, message *sqsMessage) error {
	if message.Err != nil {
		if s.options.extendVisibilityTimeoutOnError {
			receiveCount, err := strconv.Atoi(message.Message.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)])
			if err != nil {
				receiveCount = 1
			}

			_, err = s.client.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
				QueueUrl:          aws.String(s.queueURL),
				ReceiptHandle:     message.Message.ReceiptHandle,
				VisibilityTimeout: s.backoffVisibility(receiveCount),
			})
			if err != nil {
				return errors.Wrap(err, "failed to extend visibility timeout")
			}
		}
		return nil
	}

	if s.options.ack {
		_, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(s.queueURL),
			ReceiptHandle: message.Message.ReceiptHandle,
		})
		if err != nil {
			return errors.Wrap(err, "failed to delete message from SQS")
		}
	}

	return nil
}

func (s *SQSEventSubscriber) backoffVisibility(receiveCount int) int32 {
	visibilityTimeout := s.options.visibilityTimeout
	visibilityTimeout += (int32(receiveCount) / s.options.receiveCountRange) * s.options.visibilityTimeoutOffset

	if visibilityTimeout > s.options.maxVisibilityTimeout {
		visibilityTimeout = s.options.maxVisibilityTimeout
	}
	return visibilityTimeout
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
