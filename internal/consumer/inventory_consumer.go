package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/badhusha-dev/shopifygenie-services/internal/cache"
	"github.com/badhusha-dev/shopifygenie-services/internal/db"
	"github.com/badhusha-dev/shopifygenie-services/internal/models"
)

// Ledger applies one order line item exactly once. applied=false means the
// marker for (orderID, productID) already existed and nothing was changed.
type Ledger interface {
	ApplyOrderLineItem(ctx context.Context, orderID, productID string, delta int, reason string) (*models.Product, bool, error)
}

// StockPublisher announces committed ledger mutations.
type StockPublisher interface {
	PublishStockAdjusted(ctx context.Context, event models.StockAdjustedEvent) error
}

// AlertChecker raises a low-stock alert when the post-adjustment level
// breaches the reorder point.
type AlertChecker interface {
	Check(ctx context.Context, product *models.Product) (*models.InventoryAlert, error)
}

// CacheInvalidator drops stale cached reads after a stock change. May be nil.
type CacheInvalidator interface {
	Delete(ctx context.Context, key string) error
}

// InventoryConsumer turns each OrderCreated event into ledger decrements,
// StockAdjusted events and low-stock alerts. Redelivery is safe: the ledger's
// idempotency marker makes re-processing a no-op per line item.
type InventoryConsumer struct {
	ledger    Ledger
	publisher StockPublisher
	alerts    AlertChecker
	cache     CacheInvalidator
}

func NewInventoryConsumer(ledger Ledger, publisher StockPublisher, alerts AlertChecker, cache CacheInvalidator) *InventoryConsumer {
	return &InventoryConsumer{
		ledger:    ledger,
		publisher: publisher,
		alerts:    alerts,
		cache:     cache,
	}
}

// HandleMessage is the bus handler for the order-events topic. A returned
// error aborts the remaining line items and leaves the message uncommitted so
// the consumption layer redelivers it.
func (c *InventoryConsumer) HandleMessage(ctx context.Context, key, value []byte) error {
	var envelope models.EventMessage
	if err := json.Unmarshal(value, &envelope); err != nil {
		log.Printf("❌ Failed to parse event envelope, dropping message: %v", err)
		return nil // poison messages must not wedge the partition
	}

	if envelope.EventType != models.EventTypeOrderCreated {
		return nil
	}

	var event models.OrderCreatedEvent
	if err := json.Unmarshal(envelope.Data, &event); err != nil {
		log.Printf("❌ Failed to parse OrderCreated payload (event %s), dropping message: %v", envelope.EventID, err)
		return nil
	}

	log.Printf("📥 Processing OrderCreated event for order %s (%s)", event.OrderID, event.OrderNumber)

	for _, item := range event.Items {
		if err := c.processLineItem(ctx, &event, item); err != nil {
			return fmt.Errorf("order %s, product %s: %w", event.OrderID, item.ProductID, err)
		}
	}

	log.Printf("✅ OrderCreated event processed for order %s", event.OrderID)
	return nil
}

func (c *InventoryConsumer) processLineItem(ctx context.Context, event *models.OrderCreatedEvent, item models.OrderItemEvent) error {
	reason := fmt.Sprintf("Order %s - inventory reserved", event.OrderNumber)

	product, applied, err := c.ledger.ApplyOrderLineItem(ctx, event.OrderID, item.ProductID, -item.Quantity, reason)
	if err != nil {
		if errors.Is(err, db.ErrProductNotFound) {
			// Inventory is not tracked for unknown products; not a hard error.
			log.Printf("⚠️ No inventory record for product %s, skipping line item", item.ProductID)
			return nil
		}
		return err
	}

	if !applied {
		log.Printf("📦 Line item for product %s already applied (redelivery), skipping", item.ProductID)
		return nil
	}

	log.Printf("✅ Stock adjusted for product %s: -%d (new quantity %d)", item.ProductID, item.Quantity, product.Stock)

	if c.cache != nil {
		if err := c.cache.Delete(ctx, cache.ProductKey(item.ProductID)); err != nil {
			log.Printf("⚠️ Failed to invalidate cache for product %s: %v", item.ProductID, err)
		}
	}

	// Best effort: the ledger write is already committed, so a failed publish
	// is logged and accepted rather than retried through redelivery.
	stockEvent := models.StockAdjustedEvent{
		ProductID:        item.ProductID,
		QuantityAdjusted: -item.Quantity,
		NewQuantity:      product.Stock,
		Reason:           reason,
		OrderID:          event.OrderID,
	}
	if err := c.publisher.PublishStockAdjusted(ctx, stockEvent); err != nil {
		log.Printf("⚠️ Failed to publish StockAdjusted for product %s: %v", item.ProductID, err)
	}

	if _, err := c.alerts.Check(ctx, product); err != nil {
		return err
	}

	return nil
}
