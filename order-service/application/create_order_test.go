package application

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/draftea/order-fulfillment/order-service/domain"
	"github.com/draftea/order-fulfillment/order-service/mocks"
	"github.com/draftea/order-fulfillment/shared/events"
	sharedmocks "github.com/draftea/order-fulfillment/shared/mocks"
	"github.com/draftea/order-fulfillment/shared/models"
	"github.com/draftea/order-fulfillment/shared/saga"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validCommand() *CreateOrderCommand {
	return &CreateOrderCommand{
		CustomerID:    "c1",
		Items:         []ItemCommand{{ProductID: "p1", Quantity: 2, Price: 10}},
		PaymentMethod: "card",
	}
}

func TestCreateOrder_Execute(t *testing.T) {
	tests := []struct {
		name          string
		command       *CreateOrderCommand
		setupMocks    func(*mocks.MockOrderRepository, *sharedmocks.MockPublisher)
		expectedError error
		errorContains string
		expectedTotal float64
	}{
		{
			name:    "successful order creation",
			command: validCommand(),
			setupMocks: func(repo *mocks.MockOrderRepository, publisher *sharedmocks.MockPublisher) {
				repo.EXPECT().Save(mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
					return o.CustomerID == "c1" && o.TotalAmount == 20 && o.Status == saga.StatusOrderCreated
				})).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(evt *events.Event) bool {
					data, ok := evt.Data.(domain.OrderCreatedData)
					return ok && evt.Topic == events.TopicOrder &&
						data.TotalAmount == 20 && data.PaymentMethod == "card" && len(data.Items) == 1
				})).Return(nil).Once()
			},
			expectedTotal: 20,
		},
		{
			name: "multiple items are summed",
			command: &CreateOrderCommand{
				CustomerID: "c2",
				Items: []ItemCommand{
					{ProductID: "p1", Quantity: 3, Price: 1.5},
					{ProductID: "p2", Quantity: 1, Price: 0},
					{ProductID: "p3", Quantity: 2, Price: 7},
				},
			},
			setupMocks: func(repo *mocks.MockOrderRepository, publisher *sharedmocks.MockPublisher) {
				repo.EXPECT().Save(mock.Anything, mock.Anything).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
			},
			expectedTotal: 18.5,
		},
		{
			name:          "empty items",
			command:       &CreateOrderCommand{CustomerID: "c1", Items: []ItemCommand{}},
			setupMocks:    func(*mocks.MockOrderRepository, *sharedmocks.MockPublisher) {},
			expectedError: domain.ErrInvalidOrder,
		},
		{
			name:          "missing items",
			command:       &CreateOrderCommand{CustomerID: "c1"},
			setupMocks:    func(*mocks.MockOrderRepository, *sharedmocks.MockPublisher) {},
			expectedError: domain.ErrInvalidOrder,
		},
		{
			name: "missing customer",
			command: &CreateOrderCommand{
				Items: []ItemCommand{{ProductID: "p1", Quantity: 1, Price: 1}},
			},
			setupMocks:    func(*mocks.MockOrderRepository, *sharedmocks.MockPublisher) {},
			expectedError: domain.ErrInvalidOrder,
		},
		{
			name: "blank customer",
			command: &CreateOrderCommand{
				CustomerID: "   ",
				Items:      []ItemCommand{{ProductID: "p1", Quantity: 1, Price: 1}},
			},
			setupMocks:    func(*mocks.MockOrderRepository, *sharedmocks.MockPublisher) {},
			expectedError: domain.ErrInvalidOrder,
		},
		{
			name: "zero quantity",
			command: &CreateOrderCommand{
				CustomerID: "c1",
				Items:      []ItemCommand{{ProductID: "p1", Quantity: 0, Price: 1}},
			},
			setupMocks:    func(*mocks.MockOrderRepository, *sharedmocks.MockPublisher) {},
			expectedError: domain.ErrInvalidOrder,
		},
		{
			name: "negative price",
			command: &CreateOrderCommand{
				CustomerID: "c1",
				Items:      []ItemCommand{{ProductID: "p1", Quantity: 1, Price: -5}},
			},
			setupMocks:    func(*mocks.MockOrderRepository, *sharedmocks.MockPublisher) {},
			expectedError: domain.ErrInvalidOrder,
		},
		{
			name: "blank product",
			command: &CreateOrderCommand{
				CustomerID: "c1",
				Items:      []ItemCommand{{ProductID: "", Quantity: 1, Price: 1}},
			},
			setupMocks:    func(*mocks.MockOrderRepository, *sharedmocks.MockPublisher) {},
			expectedError: domain.ErrInvalidOrder,
		},
		{
			name:          "nil command",
			command:       nil,
			setupMocks:    func(*mocks.MockOrderRepository, *sharedmocks.MockPublisher) {},
			expectedError: domain.ErrInvalidOrder,
		},
		{
			name:    "repository save error",
			command: validCommand(),
			setupMocks: func(repo *mocks.MockOrderRepository, publisher *sharedmocks.MockPublisher) {
				repo.EXPECT().Save(mock.Anything, mock.Anything).Return(errors.New("database error")).Once()
			},
			errorContains: "failed to save order",
		},
		{
			name:    "event publisher error",
			command: validCommand(),
			setupMocks: func(repo *mocks.MockOrderRepository, publisher *sharedmocks.MockPublisher) {
				repo.EXPECT().Save(mock.Anything, mock.Anything).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(errors.New("publisher error")).Once()
			},
			errorContains: "failed to publish events",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := mocks.NewMockOrderRepository(t)
			mockPublisher := sharedmocks.NewMockPublisher(t)
			tt.setupMocks(mockRepo, mockPublisher)

			useCase := NewCreateOrder(mockRepo, mockPublisher, discardLogger())
			result, err := useCase.Execute(context.Background(), tt.command)

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
			case tt.errorContains != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				assert.NotErrorIs(t, err, domain.ErrInvalidOrder)
				assert.Nil(t, result)
			default:
				require.NoError(t, err)
				assert.True(t, models.HasKind(result.OrderID, models.KindOrder))
				assert.Equal(t, "ORDER_CREATED", result.Status)
				assert.InDelta(t, tt.expectedTotal, result.TotalAmount, 1e-9)
			}
		})
	}
}

func TestCreateOrder_EventMatchesRecord(t *testing.T) {
	mockRepo := mocks.NewMockOrderRepository(t)
	mockPublisher := sharedmocks.NewMockPublisher(t)

	var saved *domain.Order
	mockRepo.EXPECT().Save(mock.Anything, mock.Anything).
		Run(func(_ context.Context, order *domain.Order) { saved = order }).
		Return(nil).Once()

	var published *events.Event
	mockPublisher.EXPECT().Publish(mock.Anything, mock.Anything).
		Run(func(_ context.Context, evts ...*events.Event) {
			require.Len(t, evts, 1)
			published = evts[0]
		}).
		Return(nil).Once()

	result, err := NewCreateOrder(mockRepo, mockPublisher, discardLogger()).Execute(context.Background(), validCommand())
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, published.UnmarshalPayload(&payload))
	assert.Equal(t, result.OrderID, payload["orderId"])
	assert.Equal(t, saved.OrderID, payload["orderId"])
	assert.Equal(t, "c1", payload["customerId"])
	assert.Equal(t, "ORDER_CREATED", payload["status"])
	assert.Equal(t, float64(20), payload["totalAmount"])

	correlation, ok := published.Metadata.Get(events.MetadataCorrelationID)
	assert.True(t, ok)
	assert.Equal(t, result.OrderID, correlation)
}
