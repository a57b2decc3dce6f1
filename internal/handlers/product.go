package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/badhusha-dev/shopifygenie-services/internal/alerting"
	"github.com/badhusha-dev/shopifygenie-services/internal/cache"
	"github.com/badhusha-dev/shopifygenie-services/internal/db"
	"github.com/badhusha-dev/shopifygenie-services/internal/models"
	"github.com/badhusha-dev/shopifygenie-services/internal/publisher"
)

type ProductHandler struct {
	repo      *db.CachedProductRepository
	ledger    *db.ProductRepository
	alertRepo *db.AlertRepository
	generator *alerting.Generator
	publisher *publisher.InventoryPublisher
	cache     *cache.RedisCache
}

func NewProductHandler(
	repo *db.CachedProductRepository,
	ledger *db.ProductRepository,
	alertRepo *db.AlertRepository,
	generator *alerting.Generator,
	pub *publisher.InventoryPublisher,
	redisCache *cache.RedisCache,
) *ProductHandler {
	return &ProductHandler{
		repo:      repo,
		ledger:    ledger,
		alertRepo: alertRepo,
		generator: generator,
		publisher: pub,
		cache:     redisCache,
	}
}

// HealthCheck returns server status
func (h *ProductHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "product-service"})
}

// ListProducts returns all active products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.repo.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, products)
}

// GetProduct returns a single product
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, product)
}

// CreateProduct inserts a new product
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.repo.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("✅ Product created: %s (%s)", product.Name, product.ID)
	c.JSON(http.StatusCreated, product)
}

// DeleteProduct soft-deletes a product
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	err := h.repo.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "product deactivated"})
}

// AdjustStock applies a manual, user-attributed stock adjustment.
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id := c.Param("id")

	var req models.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be positive"})
		return
	}

	var delta int
	switch req.Type {
	case models.AdjustmentIncrease:
		delta = req.Quantity
	case models.AdjustmentDecrease:
		delta = -req.Quantity
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be increase or decrease"})
		return
	}

	actor := c.GetHeader("X-User-ID")
	if actor == "" {
		actor = "system"
	}

	ctx := c.Request.Context()

	product, err := h.ledger.AdjustStockWithAudit(ctx, id, delta, req.Reason, actor)
	if err != nil {
		if errors.Is(err, db.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.cache.Delete(ctx, cache.ProductKey(id))
	h.cache.Delete(ctx, cache.AllProductsKey())

	// Stock change is committed; a failed publish is logged, not surfaced.
	if err := h.publisher.PublishStockAdjusted(ctx, models.StockAdjustedEvent{
		ProductID:        id,
		QuantityAdjusted: delta,
		NewQuantity:      product.Stock,
		Reason:           req.Reason,
	}); err != nil {
		log.Printf("⚠️ Failed to publish StockAdjusted for product %s: %v", id, err)
	}

	if _, err := h.generator.Check(ctx, product); err != nil {
		log.Printf("⚠️ Failed to raise alert for product %s: %v", id, err)
	}

	log.Printf("✅ Stock adjusted for product %s: %+d (new stock %d) by %s", product.Name, delta, product.Stock, actor)
	c.JSON(http.StatusOK, gin.H{
		"productId":  id,
		"newStock":   product.Stock,
		"adjustment": delta,
	})
}

// ListStockAdjustments returns the audit trail for a product
func (h *ProductHandler) ListStockAdjustments(c *gin.Context) {
	adjustments, err := h.ledger.ListAdjustments(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, adjustments)
}

// ListAlerts returns inventory alerts, optionally filtered by resolved state
func (h *ProductHandler) ListAlerts(c *gin.Context) {
	var resolved *bool
	switch c.Query("resolved") {
	case "true":
		v := true
		resolved = &v
	case "false":
		v := false
		resolved = &v
	}

	alerts, err := h.alertRepo.List(c.Request.Context(), resolved)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, alerts)
}

// ResolveAlert marks an alert as handled
func (h *ProductHandler) ResolveAlert(c *gin.Context) {
	err := h.alertRepo.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("✅ Inventory alert resolved: %s", c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "alert resolved"})
}

// ListLowStock returns active products at or below their reorder point
func (h *ProductHandler) ListLowStock(c *gin.Context) {
	products, err := h.ledger.ListLowStock(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, products)
}
