package worker

import (
	"context"
	"fmt"
	"log"

	"storefront-api/internal/broker"
	"storefront-api/internal/mailer"
	"storefront-api/internal/models"
	"storefront-api/internal/util"

	"go.uber.org/zap"
)

// NotificationWorker consumes order lifecycle events and mails the customer.
// Send failures are logged, not retried.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	mailer       mailer.Mailer
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, m mailer.Mailer) *NotificationWorker {
	w := &NotificationWorker{
		consumer: consumer,
		mailer:   m,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(w.handleOrderPlaced)
	eventHandler.OnOrderCancelled(w.handleOrderCancelled)
	eventHandler.OnOrderStatusChanged(w.handleStatusChanged)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	log.Println("Starting notification worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	log.Println("Stopping notification worker...")
	return w.consumer.Close()
}

func (w *NotificationWorker) handleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	if event.UserEmail == "" {
		return nil
	}
	body := fmt.Sprintf("Your order %s has been placed. Total: %.2f.",
		event.OrderNumber, event.TotalAmount)
	w.send("order_placed", event.UserEmail, "Order confirmation", body)
	return nil
}

func (w *NotificationWorker) handleOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	if event.UserEmail == "" {
		return nil
	}
	body := fmt.Sprintf("Your order %s has been cancelled.", event.OrderNumber)
	w.send("order_cancelled", event.UserEmail, "Order cancelled", body)
	return nil
}

func (w *NotificationWorker) handleStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	if event.UserEmail == "" {
		return nil
	}
	body := fmt.Sprintf("Your order %s is now %s.", event.OrderNumber, event.ToStatus)
	w.send("status_changed", event.UserEmail, "Order update", body)
	return nil
}

func (w *NotificationWorker) send(kind, to, subject, body string) {
	if err := w.mailer.Send(to, subject, body); err != nil {
		util.NotificationsSentTotal.WithLabelValues(kind, "failure").Inc()
		w.logger.Error("Failed to send notification mail",
			zap.String("kind", kind),
			zap.String("to", to),
			zap.Error(err))
		return
	}
	util.NotificationsSentTotal.WithLabelValues(kind, "success").Inc()
}
