package models

import "time"

type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	SKU          string    `json:"sku"`
	Price        float64   `json:"price"`
	Stock        int       `json:"stock"`
	ReorderPoint int       `json:"reorderPoint"`
	Category     string    `json:"category,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type CreateProductRequest struct {
	Name         string  `json:"name" binding:"required"`
	SKU          string  `json:"sku" binding:"required"`
	Price        float64 `json:"price" binding:"required"`
	Stock        int     `json:"stock"`
	ReorderPoint int     `json:"reorderPoint"`
	Category     string  `json:"category"`
}

// StockAdjustment is an append-only audit entry for every stock mutation.
// Quantity carries the signed delta that was applied.
type StockAdjustment struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason"`
	Type      string    `json:"type"` // "increase" or "decrease"
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	AdjustmentIncrease = "increase"
	AdjustmentDecrease = "decrease"
)

type AdjustStockRequest struct {
	Quantity int    `json:"quantity" binding:"required"`
	Type     string `json:"type" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
}
