// Package alerting derives low-stock alerts from ledger state.
package alerting

import (
	"context"
	"fmt"
	"log"

	"github.com/badhusha-dev/shopifygenie-services/internal/models"
)

// AlertStore persists alerts. Implemented by db.AlertRepository.
type AlertStore interface {
	Create(ctx context.Context, alert *models.InventoryAlert) error
}

// Generator classifies post-adjustment stock levels and raises alerts on
// reorder-point breaches. Every breach appends a new alert row; operators
// resolve them through the alerts API, there is no dedup.
type Generator struct {
	store AlertStore

	// highFraction is the share of the reorder point at or below which the
	// alert escalates from medium to high.
	highFraction float64
}

func NewGenerator(store AlertStore, highFraction float64) *Generator {
	if highFraction <= 0 || highFraction >= 1 {
		highFraction = 0.5
	}
	return &Generator{store: store, highFraction: highFraction}
}

// Classify returns the severity for a stock level, or false when the stock
// is above the reorder point and no alert is due. Severity never decreases
// as stock falls.
func (g *Generator) Classify(currentStock, reorderPoint int) (models.AlertSeverity, bool) {
	if currentStock > reorderPoint {
		return "", false
	}
	switch {
	case currentStock == 0:
		return models.SeverityCritical, true
	case float64(currentStock) <= float64(reorderPoint)*g.highFraction:
		return models.SeverityHigh, true
	default:
		return models.SeverityMedium, true
	}
}

// Check classifies the product's stock and persists an alert when a breach
// occurred. Returns the created alert, or nil when none was due.
func (g *Generator) Check(ctx context.Context, product *models.Product) (*models.InventoryAlert, error) {
	severity, breached := g.Classify(product.Stock, product.ReorderPoint)
	if !breached {
		return nil, nil
	}

	alert := &models.InventoryAlert{
		ProductID:    product.ID,
		ProductName:  product.Name,
		CurrentStock: product.Stock,
		Threshold:    product.ReorderPoint,
		Severity:     severity,
	}

	if err := g.store.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to raise alert for product %s: %w", product.ID, err)
	}

	log.Printf("⚠️ Low stock alert (%s) for product %s: %d units remaining (reorder point %d)",
		severity, product.ID, product.Stock, product.ReorderPoint)
	return alert, nil
}
