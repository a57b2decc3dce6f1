package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/badhusha-dev/shopifygenie-services/internal/models"
)

// ErrProductNotFound is returned when an adjustment or lookup targets a
// product id that has no ledger row.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository owns the authoritative stock-on-hand value per product.
// All stock mutations go through the single-statement clamped UPDATE so
// concurrent adjusters serialize on the row, never on application code.
type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(database *PostgresDB) *ProductRepository {
	return &ProductRepository{db: database.Conn}
}

const productColumns = "id, name, sku, price, stock, reorder_point, category, is_active, created_at, updated_at"

func scanProduct(row interface{ Scan(...interface{}) error }) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Price, &p.Stock, &p.ReorderPoint,
		&p.Category, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetAll returns all active products
func (r *ProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE is_active = TRUE ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	return products, rows.Err()
}

// GetByID returns a single product
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE id = $1"

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return p, nil
}

// Create inserts a new product
func (r *ProductRepository) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	query := `
		INSERT INTO products (id, name, sku, price, stock, reorder_point, category, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		RETURNING ` + productColumns

	p, err := scanProduct(r.db.QueryRowContext(ctx, query,
		uuid.NewString(), req.Name, req.SKU, req.Price, req.Stock, req.ReorderPoint, req.Category))
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return p, nil
}

// Deactivate soft-deletes a product. Ledger rows are never removed.
func (r *ProductRepository) Deactivate(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to deactivate product: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// adjustStockTx applies a clamped stock delta inside tx and returns the
// updated row. Stock never goes below zero; a delta that would have
// underflowed is clamped and logged loudly.
func adjustStockTx(ctx context.Context, tx *sql.Tx, productID string, delta int) (*models.Product, error) {
	query := `
		UPDATE products
		SET stock = GREATEST(0, stock + $1), updated_at = NOW()
		WHERE id = $2
		RETURNING ` + productColumns

	p, err := scanProduct(tx.QueryRowContext(ctx, query, delta, productID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	if p.Stock == 0 && delta < 0 {
		log.Printf("⚠️ Stock clamped at zero for product %s (delta %d) - possible oversell", productID, delta)
	}

	return p, nil
}

func adjustmentType(delta int) string {
	if delta < 0 {
		return models.AdjustmentDecrease
	}
	return models.AdjustmentIncrease
}

// AdjustStock atomically applies a signed delta and returns the new quantity.
// No audit row is written; callers that need the trail use AdjustStockWithAudit.
func (r *ProductRepository) AdjustStock(ctx context.Context, productID string, delta int) (int, error) {
	query := `
		UPDATE products
		SET stock = GREATEST(0, stock + $1), updated_at = NOW()
		WHERE id = $2
		RETURNING stock
	`

	var stock int
	err := r.db.QueryRowContext(ctx, query, delta, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("failed to adjust stock: %w", err)
	}

	if stock == 0 && delta < 0 {
		log.Printf("⚠️ Stock clamped at zero for product %s (delta %d) - possible oversell", productID, delta)
	}

	return stock, nil
}

// AdjustStockWithAudit applies a signed delta and appends a stock_adjustments
// audit row in the same transaction - both succeed or both fail.
func (r *ProductRepository) AdjustStockWithAudit(ctx context.Context, productID string, delta int, reason, actor string) (*models.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := adjustStockTx(ctx, tx, productID, delta)
	if err != nil {
		return nil, err
	}

	if err := insertAdjustmentTx(ctx, tx, productID, delta, reason, actor); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return p, nil
}

func insertAdjustmentTx(ctx context.Context, tx *sql.Tx, productID string, delta int, reason, actor string) error {
	query := `
		INSERT INTO stock_adjustments (id, product_id, quantity, reason, type, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query, uuid.NewString(), productID, delta, reason, adjustmentType(delta), actor)
	if err != nil {
		return fmt.Errorf("failed to record stock adjustment: %w", err)
	}
	return nil
}

// ApplyOrderLineItem applies one line item of an order exactly once. The
// (order_id, product_id) marker insert, the clamped stock update and the
// audit row share one transaction; when the marker already exists the event
// was delivered before and nothing is touched (applied=false).
func (r *ProductRepository) ApplyOrderLineItem(ctx context.Context, orderID, productID string, delta int, reason string) (*models.Product, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	marker := `
		INSERT INTO processed_order_items (order_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (order_id, product_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, marker, orderID, productID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to record idempotency marker: %w", err)
	}
	inserted, _ := result.RowsAffected()
	if inserted == 0 {
		return nil, false, nil
	}

	p, err := adjustStockTx(ctx, tx, productID, delta)
	if err != nil {
		return nil, false, err
	}

	if err := insertAdjustmentTx(ctx, tx, productID, delta, reason, "system"); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return p, true, nil
}

// ListLowStock returns active products at or below their reorder point.
func (r *ProductRepository) ListLowStock(ctx context.Context) ([]models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE is_active = TRUE AND stock <= reorder_point ORDER BY stock"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	return products, rows.Err()
}

// ListAdjustments returns the audit trail for a product, oldest first.
func (r *ProductRepository) ListAdjustments(ctx context.Context, productID string) ([]models.StockAdjustment, error) {
	query := `
		SELECT id, product_id, quantity, reason, type, created_by, created_at
		FROM stock_adjustments
		WHERE product_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []models.StockAdjustment
	for rows.Next() {
		var a models.StockAdjustment
		err := rows.Scan(&a.ID, &a.ProductID, &a.Quantity, &a.Reason, &a.Type, &a.CreatedBy, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock adjustment: %w", err)
		}
		adjustments = append(adjustments, a)
	}

	return adjustments, rows.Err()
}
