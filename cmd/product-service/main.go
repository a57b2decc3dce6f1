package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/badhusha-dev/shopifygenie-services/internal/alerting"
	"github.com/badhusha-dev/shopifygenie-services/internal/cache"
	"github.com/badhusha-dev/shopifygenie-services/internal/config"
	"github.com/badhusha-dev/shopifygenie-services/internal/consumer"
	"github.com/badhusha-dev/shopifygenie-services/internal/db"
	"github.com/badhusha-dev/shopifygenie-services/internal/discovery"
	"github.com/badhusha-dev/shopifygenie-services/internal/handlers"
	"github.com/badhusha-dev/shopifygenie-services/internal/messaging"
	"github.com/badhusha-dev/shopifygenie-services/internal/publisher"
)

const (
	serviceName = "product-service"
	serviceID   = "product-service-1"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to PostgreSQL
	database, err := db.NewPostgresDB(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Connect to Redis
	redisCache, err := cache.NewRedisCache(cfg.RedisHost, cfg.RedisPort, cfg.CacheTTL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	// Event bus
	bus := messaging.NewKafkaBus(cfg.KafkaBrokers, cfg.PublishTimeout)
	defer bus.Close()

	// Connect to Consul
	consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort)
	if err != nil {
		log.Fatalf("Failed to connect to Consul: %v", err)
	}

	// Register with Consul
	err = consul.Register(discovery.ServiceConfig{
		Name: serviceName,
		ID:   serviceID,
		Port: cfg.ProductServicePort,
		Tags: []string{"api", "products", "inventory"},
	})
	if err != nil {
		log.Fatalf("Failed to register service: %v", err)
	}

	// Deregister and stop the consumer on shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down...")
		consul.Deregister(serviceID)
		cancel()
		bus.Close()
		os.Exit(0)
	}()

	// Repositories
	productRepo := db.NewProductRepository(database)
	cachedRepo := db.NewCachedProductRepository(productRepo, redisCache)
	alertRepo := db.NewAlertRepository(database)

	// Alerting and publishing
	generator := alerting.NewGenerator(alertRepo, cfg.AlertHighFraction)
	inventoryPublisher := publisher.NewInventoryPublisher(bus)

	// Start event consumer
	inventoryConsumer := consumer.NewInventoryConsumer(productRepo, inventoryPublisher, generator, redisCache)
	go func() {
		err := bus.Subscribe(ctx, messaging.TopicOrderEvents, messaging.GroupProductService, inventoryConsumer.HandleMessage)
		if err != nil {
			log.Fatalf("Consumer stopped: %v", err)
		}
	}()

	// Handler
	productHandler := handlers.NewProductHandler(cachedRepo, productRepo, alertRepo, generator, inventoryPublisher, redisCache)

	// Setup router
	router := gin.Default()

	router.GET("/health", productHandler.HealthCheck)
	router.GET("/products", productHandler.ListProducts)
	router.GET("/products/:id", productHandler.GetProduct)
	router.POST("/products", productHandler.CreateProduct)
	router.DELETE("/products/:id", productHandler.DeleteProduct)
	router.POST("/products/:id/adjust-stock", productHandler.AdjustStock)
	router.GET("/products/:id/stock-adjustments", productHandler.ListStockAdjustments)
	router.GET("/inventory/alerts", productHandler.ListAlerts)
	router.PATCH("/inventory/alerts/:id/resolve", productHandler.ResolveAlert)
	router.GET("/inventory/low-stock", productHandler.ListLowStock)

	// Start server
	log.Printf("🚀 %s starting on http://localhost:%d", serviceName, cfg.ProductServicePort)
	log.Println("   Consuming order-events from Kafka")
	router.Run(fmt.Sprintf(":%d", cfg.ProductServicePort))
}
