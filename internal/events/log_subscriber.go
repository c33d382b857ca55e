package events

import (
	"context"

	"inventory-planner/internal/core"

	"go.uber.org/zap"
)

// LogSubscriber writes every event to log. It is the default notification
// channel until email or in-app delivery is wired.
func LogSubscriber(log *zap.Logger) Handler {
	log = log.Named("notify")
	return HandlerFunc(func(_ context.Context, env Envelope) error {
		fields := append([]zap.Field{
			zap.String("event_id", env.ID.String()),
			zap.String("event_type", env.Event.EventType()),
			zap.Time("occurred_at", env.Event.OccurredAt()),
		}, eventFields(env.Event)...)
		log.Info("domain event", fields...)
		return nil
	})
}

func eventFields(ev core.Event) []zap.Field {
	switch e := ev.(type) {
	case core.ReorderDetected:
		return []zap.Field{
			zap.Int("materials", len(e.Materials)),
			zap.Int("products", len(e.Products)),
			zap.Int("actor_id", e.Actor.ID),
		}
	case core.ReceiptProcessed:
		return []zap.Field{
			zap.Int("purchase_order_id", e.PurchaseOrderID),
			zap.Int("receipt_id", e.ReceiptID),
			zap.String("total_quantity", e.TotalQuantity.String()),
			zap.String("status", string(e.Status)),
			zap.Int("actor_id", e.Actor.ID),
		}
	case core.StatusChanged:
		return []zap.Field{
			zap.String("document", string(e.Document)),
			zap.Int("document_id", e.DocumentID),
			zap.String("from", e.From),
			zap.String("to", e.To),
			zap.Int("actor_id", e.Actor.ID),
		}
	}
	return nil
}
