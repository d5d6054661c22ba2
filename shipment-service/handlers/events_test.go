package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/draftea/order-fulfillment/shared/events"
	sharedmocks "github.com/draftea/order-fulfillment/shared/mocks"
	"github.com/draftea/order-fulfillment/shared/saga"
	"github.com/draftea/order-fulfillment/shipment-service/application"
	"github.com/draftea/order-fulfillment/shipment-service/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newStage(t *testing.T) (*saga.StageRunner, *mocks.MockShipmentRepository, *sharedmocks.MockPublisher) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := mocks.NewMockShipmentRepository(t)
	publisher := sharedmocks.NewMockPublisher(t)

	handler := NewShipmentEventHandlers(application.NewShipOrder(repo, publisher, logger), logger)
	runner := saga.NewStageRunner(saga.StageShipment, handler, logger,
		saga.WithErrorSink(saga.NewErrorSink(publisher, logger)),
	)
	return runner, repo, publisher
}

func paymentEvent(body string) *events.Event {
	return events.NewEvent(events.TopicPaymentSuccess, json.RawMessage(body))
}

func TestShipmentStage_SkipsUnconfirmedPayment(t *testing.T) {
	// no expectations: any write or publish fails the test
	runner, _, _ := newStage(t)

	runner.HandleMessage(context.Background(),
		paymentEvent(`{"orderId":"o1","paymentStatus":"PAYMENT_FAILED","customerId":"c1"}`))
}

func TestShipmentStage_Batch(t *testing.T) {
	runner, repo, publisher := newStage(t)

	repo.EXPECT().Save(mock.Anything, mock.Anything).Return(nil).Once()
	publisher.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(evt *events.Event) bool {
		return evt.Topic == events.TopicShipment
	})).Return(nil).Once()
	publisher.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(evt *events.Event) bool {
		var failure saga.ErrorEvent
		return evt.Topic == events.TopicError &&
			evt.UnmarshalPayload(&failure) == nil &&
			failure.Status == saga.StatusShipmentError
	})).Return(nil).Once()

	err := runner.HandleBatch(context.Background(), []*events.Event{
		paymentEvent(`["not","an","object"]`),
		paymentEvent(`{"orderId":"o1","paymentStatus":"PAYMENT_CONFIRMED","customerId":"c1"}`),
	})
	require.NoError(t, err)
}
