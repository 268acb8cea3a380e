package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/stocktide/stocktide/internal/config"
	"github.com/stocktide/stocktide/internal/messaging"
	"github.com/stocktide/stocktide/internal/notify"
	ordersvc "github.com/stocktide/stocktide/internal/service/order"
	"github.com/stocktide/stocktide/internal/worker"
)

var workerTracer = otel.Tracer("github.com/stocktide/stocktide/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewOrderEventsHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// envelope peeks at the event type before the full decode.
type envelope struct {
	Type string `json:"type"`
}

// NewOrderEventsHandler sets up a worker handler that consumes order events
// from the bus and dispatches on the event type.
func NewOrderEventsHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var env envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			logger.Error("failed to decode order event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		span.SetAttributes(attribute.String("event.type", env.Type))

		switch env.Type {
		case ordersvc.EventOrderCreated:
			var event ordersvc.CreatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "decode error")
				return err
			}
			logger.Info("order created event processed",
				zap.String("id", event.ID),
				zap.String("tenant", event.Tenant),
				zap.String("status", event.Status),
				zap.Float64("total", event.Total),
			)
		case notify.EventOrderStatusChanged:
			var event notify.StatusChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "decode error")
				return err
			}
			logger.Info("status change notification delivered",
				zap.String("customer", event.CustomerID),
				zap.String("order", event.OrderID),
				zap.String("from", event.OldStatus),
				zap.String("to", event.NewStatus),
			)
		default:
			logger.Warn("unknown order event type", zap.String("type", env.Type))
		}

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
