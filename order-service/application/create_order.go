package application

import (
	"context"
	"log/slog"
	"strings"

	"github.com/draftea/order-fulfillment/order-service/domain"
	"github.com/draftea/order-fulfillment/shared/events"
	"github.com/draftea/order-fulfillment/shared/telemetry"
	validation "github.com/jellydator/validation"
	"github.com/pkg/errors"
)

// CreateOrderCommand represents an order submission
type CreateOrderCommand struct {
	CustomerID    string        `json:"customerId"`
	Items         []ItemCommand `json:"items"`
	PaymentMethod string        `json:"paymentMethod"`
}

type ItemCommand struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

var notBlank = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_not_blank", "must not be blank")
	}
	return nil
})

// Validate rejects a blank customer, an empty item list and malformed items.
func (c CreateOrderCommand) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.CustomerID, notBlank),
		validation.Field(&c.Items, validation.Required.Error("at least one item is required")),
	)
}

func (i ItemCommand) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ProductID, notBlank),
		validation.Field(&i.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&i.Price, validation.Min(0.0)),
	)
}

// CreateOrderResponse is returned on success
type CreateOrderResponse struct {
	OrderID     string  `json:"orderId"`
	Status      string  `json:"status"`
	TotalAmount float64 `json:"totalAmount"`
}

// CreateOrder is the synchronous entry point of the saga
type CreateOrder struct {
	orderRepository domain.OrderRepository
	eventPublisher  events.Publisher
	logger          *slog.Logger
}

func NewCreateOrder(
	orderRepository domain.OrderRepository,
	eventPublisher events.Publisher,
	logger *slog.Logger,
) *CreateOrder {
	return &CreateOrder{
		orderRepository: orderRepository,
		eventPublisher:  eventPublisher,
		logger:          logger,
	}
}

// Execute validates the command, persists the order and publishes OrderCreated.
// Validation failures wrap domain.ErrInvalidOrder and have no side effects.
func (uc *CreateOrder) Execute(ctx context.Context, cmd *CreateOrderCommand) (*CreateOrderResponse, error) {
	logger := telemetry.LogWithTrace(ctx, uc.logger)

	if cmd == nil {
		return nil, errors.Wrap(domain.ErrInvalidOrder, "missing command")
	}

	if err := cmd.Validate(); err != nil {
		logger.WarnContext(ctx, "invalid order request",
			slog.String("customer_id", cmd.CustomerID),
			slog.Any("error", err),
		)
		return nil, errors.Wrap(domain.ErrInvalidOrder, err.Error())
	}

	items := make([]domain.Item, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		items = append(items, domain.Item{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	order := domain.CreateOrder(cmd.CustomerID, items, cmd.PaymentMethod)

	if err := uc.orderRepository.Save(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to save order")
	}
	logger.InfoContext(ctx, "order persisted", slog.String("order_id", order.OrderID))

	if err := uc.eventPublisher.Publish(ctx, order.Events()...); err != nil {
		return nil, errors.Wrap(err, "failed to publish events")
	}

	logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.OrderID),
		slog.Float64("total_amount", order.TotalAmount),
	)

	return &CreateOrderResponse{
		OrderID:     order.OrderID,
		Status:      order.Status.String(),
		TotalAmount: order.TotalAmount,
	}, nil
}
