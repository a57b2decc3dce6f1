package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/badhusha-dev/shopifygenie-services/internal/client"
	"github.com/badhusha-dev/shopifygenie-services/internal/config"
	"github.com/badhusha-dev/shopifygenie-services/internal/db"
	"github.com/badhusha-dev/shopifygenie-services/internal/discovery"
	"github.com/badhusha-dev/shopifygenie-services/internal/handlers"
	"github.com/badhusha-dev/shopifygenie-services/internal/messaging"
	"github.com/badhusha-dev/shopifygenie-services/internal/publisher"
)

const (
	serviceName = "order-service"
	serviceID   = "order-service-1"
)

func main() {
	cfg := config.Load()

	// Connect to PostgreSQL
	database, err := db.NewPostgresDB(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Event bus
	bus := messaging.NewKafkaBus(cfg.KafkaBrokers, cfg.PublishTimeout)
	defer bus.Close()

	// Connect to Consul and register
	consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort)
	if err != nil {
		log.Fatalf("Failed to connect to Consul: %v", err)
	}

	err = consul.Register(discovery.ServiceConfig{
		Name: serviceName,
		ID:   serviceID,
		Port: cfg.OrderServicePort,
		Tags: []string{"api", "orders"},
	})
	if err != nil {
		log.Fatalf("Failed to register service: %v", err)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down...")
		consul.Deregister(serviceID)
		bus.Close()
		os.Exit(0)
	}()

	// Create publisher
	orderPublisher := publisher.NewOrderPublisher(bus)

	// Create Product Service client (HTTP) via Consul when possible
	productURL, err := consul.GetServiceURL("product-service")
	if err != nil {
		log.Printf("⚠️ Product service not found in Consul, using default: %v", err)
		productURL = fmt.Sprintf("http://localhost:%d", cfg.ProductServicePort)
	}
	productClient := client.NewProductClient(productURL)

	// Create repository and handler
	orderRepo := db.NewOrderRepository(database)
	orderHandler := handlers.NewOrderHandler(orderRepo, productClient, orderPublisher)

	// Setup router
	router := gin.Default()

	router.GET("/health", orderHandler.HealthCheck)
	router.GET("/orders", orderHandler.ListOrders)
	router.GET("/orders/:id", orderHandler.GetOrder)
	router.POST("/orders", orderHandler.CreateOrder)
	router.PATCH("/orders/:id/status", orderHandler.UpdateOrderStatus)

	// Start server
	log.Printf("🚀 %s starting on http://localhost:%d", serviceName, cfg.OrderServicePort)
	log.Println("   Publishing order-events to Kafka")
	router.Run(fmt.Sprintf(":%d", cfg.OrderServicePort))
}
