package worker

import (
	"context"
	"encoding/json"

	"marketplace-service/internal/broker"
	"marketplace-service/internal/models"
	"marketplace-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// AuditWorker consumes order lifecycle events and records them in the log and
// metrics. It is a passive observer; it never mutates entities.
type AuditWorker struct {
	consumer *broker.Consumer
	logger   *zap.Logger
}

// NewAuditWorker creates a new audit worker
func NewAuditWorker(consumer *broker.Consumer) *AuditWorker {
	return &AuditWorker{
		consumer: consumer,
		logger:   util.GetLogger(),
	}
}

// Start starts consuming until the context is cancelled.
func (w *AuditWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting audit worker")
	return w.consumer.StartConsuming(ctx, w.handleMessage)
}

// Stop stops the worker
func (w *AuditWorker) Stop() error {
	w.logger.Info("Stopping audit worker")
	return w.consumer.Close()
}

func (w *AuditWorker) handleMessage(ctx context.Context, msg kafka.Message) error {
	var base models.BaseEvent
	if err := json.Unmarshal(msg.Value, &base); err != nil {
		w.logger.Error("Failed to unmarshal event", zap.Error(err))
		return err
	}

	util.EventsConsumedTotal.WithLabelValues(base.EventType).Inc()

	switch base.EventType {
	case models.EventTypeOrderCreated:
		var event models.OrderCreatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return err
		}
		w.logger.Info("Audit: order created",
			zap.String("order_id", event.OrderID),
			zap.String("store_id", event.StoreID),
			zap.String("user_id", event.UserID),
			zap.Int("items", len(event.Items)))

	case models.EventTypeOrderStatusChanged:
		var event models.OrderStatusChangedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return err
		}
		w.logger.Info("Audit: order status changed",
			zap.String("order_id", event.OrderID),
			zap.String("from", event.FromStatus),
			zap.String("to", event.ToStatus))

	case models.EventTypeOrderDeleted:
		var event models.OrderDeletedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return err
		}
		w.logger.Info("Audit: order deleted", zap.String("order_id", event.OrderID))

	default:
		w.logger.Warn("Audit: unhandled event type", zap.String("type", base.EventType))
	}

	return nil
}
