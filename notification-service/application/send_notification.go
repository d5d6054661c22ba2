package application

import (
	"context"
	"log/slog"

	"github.com/draftea/order-fulfillment/notification-service/domain"
	"github.com/draftea/order-fulfillment/shared/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// SendNotification renders and records a customer notification for any saga
// event. Delivery is simulated by logging.
type SendNotification struct {
	logRepository domain.NotificationLogRepository
	logger        *slog.Logger
}

func NewSendNotification(logRepository domain.NotificationLogRepository, logger *slog.Logger) *SendNotification {
	return &SendNotification{
		logRepository: logRepository,
		logger:        logger,
	}
}

// Execute returns the log it stored, or nil when the message was dropped.
// A failed write is logged and swallowed.
func (uc *SendNotification) Execute(ctx context.Context, msg domain.Message) *domain.NotificationLog {
	logger := telemetry.LogWithTrace(ctx, uc.logger)

	notification, ok := domain.Classify(msg)
	if !ok {
		logger.WarnContext(ctx, "unknown event status, no notification sent",
			slog.String("order_id", msg.OrderID),
			slog.String("tag", msg.Tag()),
		)
		return nil
	}

	logger.InfoContext(ctx, "sending email to customer",
		slog.String("customer_id", msg.CustomerID),
		slog.String("order_id", msg.OrderID),
		slog.String("subject", notification.Subject),
	)

	log := domain.NewNotificationLog(msg, notification)
	if err := uc.logRepository.Save(ctx, log); err != nil {
		logger.ErrorContext(ctx, "failed to save notification log",
			slog.String("log_id", log.LogID),
			slog.String("order_id", log.OrderID),
			slog.Any("error", err),
		)
		return nil
	}

	telemetry.RecordCounter(ctx, "notifications_sent_total", "Notifications recorded per saga status", 1,
		attribute.String("status", notification.Status.String()),
	)

	return log
}
