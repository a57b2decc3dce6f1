package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/badhusha-dev/shopifygenie-services/internal/messaging"
	"github.com/badhusha-dev/shopifygenie-services/internal/models"
)

// InventoryPublisher emits StockAdjusted events after ledger mutations have
// been committed. Events are keyed by product id: announcements for one
// product stay ordered on a single partition.
type InventoryPublisher struct {
	bus messaging.EventBus
}

func NewInventoryPublisher(bus messaging.EventBus) *InventoryPublisher {
	return &InventoryPublisher{bus: bus}
}

func (p *InventoryPublisher) PublishStockAdjusted(ctx context.Context, event models.StockAdjustedEvent) error {
	envelope := models.NewEventMessage(models.EventTypeStockAdjusted, "product-service", event)

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.bus.Publish(ctx, messaging.TopicInventoryEvents, event.ProductID, data); err != nil {
		return err
	}

	log.Printf("📤 Published StockAdjusted event for product %s (new quantity %d)", event.ProductID, event.NewQuantity)
	return nil
}
