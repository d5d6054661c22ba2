package application

import (
	"context"

	"github.com/draftea/order-fulfillment/order-service/domain"
	"github.com/draftea/order-fulfillment/shared/saga"
	"github.com/pkg/errors"
)

// GetOrderSagaQuery asks for the saga progress of one order
type GetOrderSagaQuery struct {
	OrderID string
}

// GetOrderSagaResponse is the derived saga state plus the records behind it
type GetOrderSagaResponse struct {
	OrderID      string             `json:"orderId"`
	State        saga.State         `json:"state"`
	FailedStage  saga.Stage         `json:"failedStage,omitempty"`
	Observations []saga.Observation `json:"observations"`
}

// GetOrderSaga rebuilds the saga state from stored records
type GetOrderSaga struct {
	progressReader domain.ProgressReader
}

func NewGetOrderSaga(progressReader domain.ProgressReader) *GetOrderSaga {
	return &GetOrderSaga{progressReader: progressReader}
}

func (uc *GetOrderSaga) Execute(ctx context.Context, query *GetOrderSagaQuery) (*GetOrderSagaResponse, error) {
	if query == nil || query.OrderID == "" {
		return nil, errors.New("order ID is required")
	}

	observations, err := uc.progressReader.ObservationsByOrderID(ctx, query.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load saga records")
	}

	if len(observations) == 0 {
		return nil, domain.ErrOrderNotFound
	}

	progress := saga.Derive(query.OrderID, observations)

	return &GetOrderSagaResponse{
		OrderID:      progress.OrderID,
		State:        progress.State,
		FailedStage:  progress.FailedStage,
		Observations: progress.Observations,
	}, nil
}
