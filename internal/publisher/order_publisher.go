package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/badhusha-dev/shopifygenie-services/internal/messaging"
	"github.com/badhusha-dev/shopifygenie-services/internal/models"
)

// OrderPublisher emits OrderCreated events. It must be called only after the
// order row has committed; a publish failure is the caller's to log, never to
// surface to the user.
type OrderPublisher struct {
	bus messaging.EventBus
}

func NewOrderPublisher(bus messaging.EventBus) *OrderPublisher {
	return &OrderPublisher{bus: bus}
}

// PublishOrderCreated publishes an OrderCreated event keyed by order id, so
// all messages for one order land on the same partition and arrive in order.
func (p *OrderPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	event := models.OrderCreatedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
	}

	for _, item := range order.Items {
		event.Items = append(event.Items, models.OrderItemEvent{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	envelope := models.NewEventMessage(models.EventTypeOrderCreated, "order-service", event)

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.bus.Publish(ctx, messaging.TopicOrderEvents, order.ID, data); err != nil {
		return err
	}

	log.Printf("📤 Published OrderCreated event for order %s (%s)", order.ID, order.OrderNumber)
	return nil
}
