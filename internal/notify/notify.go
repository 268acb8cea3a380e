// Package notify pushes user-addressed notifications onto the message bus.
// Delivery to the end customer is the worker's concern.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/stocktide/stocktide/internal/messaging"
)

// Module provides the notifier to Fx.
var Module = fx.Provide(NewNotifier)

// EventOrderStatusChanged names the status-change notification event.
const EventOrderStatusChanged = "order.status_changed"

// StatusChangedEvent tells a customer their order moved to a new status.
type StatusChangedEvent struct {
	Type       string `json:"type"`
	CustomerID string `json:"customerId"`
	OrderID    string `json:"orderId"`
	OldStatus  string `json:"oldStatus"`
	NewStatus  string `json:"newStatus"`
}

// Notifier is the fire-and-forget notification sink.
type Notifier struct {
	publisher messaging.Client
	logger    *zap.Logger
}

// NewNotifier wires a notifier onto the messaging client.
func NewNotifier(publisher messaging.Client, logger *zap.Logger) *Notifier {
	return &Notifier{publisher: publisher, logger: logger}
}

// StatusChanged publishes a status-change notification without blocking the
// caller. Errors are logged, never propagated.
func (n *Notifier) StatusChanged(ctx context.Context, customerID, orderID, oldStatus, newStatus string) {
	event := StatusChangedEvent{
		Type:       EventOrderStatusChanged,
		CustomerID: customerID,
		OrderID:    orderID,
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("marshal status notification", zap.Error(err))
		return
	}

	ctx = context.WithoutCancel(ctx)
	go func() {
		publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := n.publisher.Publish(publishCtx, []byte(customerID), payload); err != nil {
			n.logger.Warn("publish status notification failed",
				zap.String("customer", customerID),
				zap.String("order", orderID),
				zap.Error(err),
			)
		}
	}()
}
