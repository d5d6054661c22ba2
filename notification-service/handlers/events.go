package handlers

import (
	"context"
	"log/slog"

	"github.com/draftea/order-fulfillment/notification-service/application"
	"github.com/draftea/order-fulfillment/notification-service/domain"
	"github.com/draftea/order-fulfillment/shared/events"
	"github.com/pkg/errors"
)

var _ events.EventHandler = (*NotificationEventHandlers)(nil)

// NotificationEventHandlers handles events from every saga topic
type NotificationEventHandlers struct {
	sendNotification *application.SendNotification
	logger           *slog.Logger
}

func NewNotificationEventHandlers(sendNotification *application.SendNotification, logger *slog.Logger) *NotificationEventHandlers {
	return &NotificationEventHandlers{
		sendNotification: sendNotification,
		logger:           logger,
	}
}

// Handle implements the events.EventHandler interface
func (h *NotificationEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	var msg domain.Message
	if err := event.UnmarshalPayload(&msg); err != nil {
		return errors.Wrapf(err, "failed to parse %s event", event.Topic)
	}

	h.sendNotification.Execute(ctx, msg)
	return nil
}
