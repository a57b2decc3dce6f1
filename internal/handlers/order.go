package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/badhusha-dev/shopifygenie-services/internal/client"
	"github.com/badhusha-dev/shopifygenie-services/internal/db"
	"github.com/badhusha-dev/shopifygenie-services/internal/models"
	"github.com/badhusha-dev/shopifygenie-services/internal/publisher"
)

type OrderHandler struct {
	repo          *db.OrderRepository
	productClient *client.ProductClient
	publisher     *publisher.OrderPublisher
}

func NewOrderHandler(repo *db.OrderRepository, productClient *client.ProductClient, pub *publisher.OrderPublisher) *OrderHandler {
	return &OrderHandler{
		repo:          repo,
		productClient: productClient,
		publisher:     pub,
	}
}

// HealthCheck returns server status
func (h *OrderHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "order-service"})
}

// ListOrders returns all orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.repo.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, orders)
}

// GetOrder returns a single order with items
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, order)
}

// CreateOrder persists a new order and then publishes OrderCreated. The
// publish is strictly after commit; its failure never fails the request.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order must contain at least one item"})
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	order := models.Order{
		OrderNumber: fmt.Sprintf("ORD-%d", time.Now().UnixMilli()),
		CustomerID:  req.CustomerID,
		Status:      "pending",
		Currency:    currency,
	}

	var totalAmount float64

	for _, item := range req.Items {
		if item.Quantity <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "item quantity must be positive"})
			return
		}

		log.Printf("📞 Fetching product %s from Product Service", item.ProductID)
		product, err := h.productClient.GetProduct(item.ProductID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		orderItem := models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
		}

		totalAmount += product.Price * float64(item.Quantity)
		order.Items = append(order.Items, orderItem)
	}

	order.TotalAmount = totalAmount

	ctx := c.Request.Context()

	if err := h.repo.Create(ctx, &order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.publisher.PublishOrderCreated(ctx, &order); err != nil {
		log.Printf("⚠️ Failed to publish OrderCreated event: %v", err)
		// Don't fail the request, order is already committed
	}

	log.Printf("✅ Order %s created with total %.2f %s", order.OrderNumber, order.TotalAmount, order.Currency)
	c.JSON(http.StatusCreated, order)
}

// UpdateOrderStatus updates the order status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	validStatuses := map[string]bool{
		"pending":   true,
		"confirmed": true,
		"shipped":   true,
		"delivered": true,
		"cancelled": true,
	}
	if !validStatuses[req.Status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	if err := h.repo.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "order status updated"})
}
