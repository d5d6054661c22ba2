package application

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"

	"github.com/draftea/order-fulfillment/shared/events"
	sharedmocks "github.com/draftea/order-fulfillment/shared/mocks"
	"github.com/draftea/order-fulfillment/shared/models"
	"github.com/draftea/order-fulfillment/shared/saga"
	"github.com/draftea/order-fulfillment/shipment-service/domain"
	"github.com/draftea/order-fulfillment/shipment-service/mocks"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var trackingNumber = regexp.MustCompile(`^TRACK\d{10}$`)

func TestShipOrder_Execute(t *testing.T) {
	tests := []struct {
		name          string
		command       *ShipOrderCommand
		setupMocks    func(*mocks.MockShipmentRepository, *sharedmocks.MockPublisher)
		expectedError string
	}{
		{
			name:    "confirmed payment ships",
			command: &ShipOrderCommand{OrderID: "o1", CustomerID: "c1", PaymentStatus: "PAYMENT_CONFIRMED"},
			setupMocks: func(repo *mocks.MockShipmentRepository, publisher *sharedmocks.MockPublisher) {
				repo.EXPECT().Save(mock.Anything, mock.MatchedBy(func(s *domain.Shipment) bool {
					return s.OrderID == "o1" &&
						s.Status == saga.StatusShipped &&
						models.HasKind(s.ShipmentID, models.KindShipment) &&
						trackingNumber.MatchString(s.TrackingNumber)
				})).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(evt *events.Event) bool {
					data, ok := evt.Data.(domain.ShippedData)
					return ok && evt.Topic == events.TopicShipment &&
						data.OrderID == "o1" && data.CustomerID == "c1" && data.Status == saga.StatusShipped
				})).Return(nil).Once()
			},
		},
		{
			name:       "failed payment is skipped",
			command:    &ShipOrderCommand{OrderID: "o1", CustomerID: "c1", PaymentStatus: "PAYMENT_FAILED"},
			setupMocks: func(*mocks.MockShipmentRepository, *sharedmocks.MockPublisher) {},
		},
		{
			name:       "missing payment status is skipped",
			command:    &ShipOrderCommand{OrderID: "o1"},
			setupMocks: func(*mocks.MockShipmentRepository, *sharedmocks.MockPublisher) {},
		},
		{
			name:       "status match is exact",
			command:    &ShipOrderCommand{OrderID: "o1", PaymentStatus: "payment_confirmed"},
			setupMocks: func(*mocks.MockShipmentRepository, *sharedmocks.MockPublisher) {},
		},
		{
			name:    "save error",
			command: &ShipOrderCommand{OrderID: "o1", PaymentStatus: "PAYMENT_CONFIRMED"},
			setupMocks: func(repo *mocks.MockShipmentRepository, publisher *sharedmocks.MockPublisher) {
				repo.EXPECT().Save(mock.Anything, mock.Anything).Return(errors.New("throttled")).Once()
			},
			expectedError: "failed to save shipment",
		},
		{
			name:    "publish error",
			command: &ShipOrderCommand{OrderID: "o1", PaymentStatus: "PAYMENT_CONFIRMED"},
			setupMocks: func(repo *mocks.MockShipmentRepository, publisher *sharedmocks.MockPublisher) {
				repo.EXPECT().Save(mock.Anything, mock.Anything).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(errors.New("sns down")).Once()
			},
			expectedError: "failed to publish events",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockShipmentRepository(t)
			publisher := sharedmocks.NewMockPublisher(t)
			tt.setupMocks(repo, publisher)

			err := NewShipOrder(repo, publisher, slog.New(slog.NewTextHandler(io.Discard, nil))).
				Execute(context.Background(), tt.command)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}
			assert.NoError(t, err)
		})
	}
}
