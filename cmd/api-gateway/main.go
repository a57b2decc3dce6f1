package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/badhusha-dev/shopifygenie-services/internal/config"
	"github.com/badhusha-dev/shopifygenie-services/internal/discovery"
)

type Gateway struct {
	consul   *discovery.ConsulClient
	fallback map[string]string
	proxies  map[string]*httputil.ReverseProxy
	mutex    sync.RWMutex
	services map[string]string
}

func NewGateway(consul *discovery.ConsulClient, fallback map[string]string) *Gateway {
	g := &Gateway{
		consul:   consul,
		fallback: fallback,
		proxies:  make(map[string]*httputil.ReverseProxy),
		services: make(map[string]string),
	}

	g.discoverServices()
	go g.watchServices()

	return g
}

func (g *Gateway) discoverServices() {
	for svc, fallbackURL := range g.fallback {
		serviceURL := fallbackURL
		if g.consul != nil {
			if url, err := g.consul.GetServiceURL(svc); err == nil {
				serviceURL = url
			} else {
				log.Printf("⚠️ Service %s not found in Consul, using fallback: %v", svc, err)
			}
		}
		g.updateProxy(svc, serviceURL)
	}
}

func (g *Gateway) updateProxy(serviceName, serviceURL string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	target, err := url.Parse(serviceURL)
	if err != nil {
		log.Printf("❌ Invalid URL for %s: %v", serviceName, err)
		return
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("❌ Proxy error for %s: %v", serviceName, err)
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"error": "service unavailable"}`)
	}

	g.proxies[serviceName] = proxy
	g.services[serviceName] = serviceURL
	log.Printf("✅ Updated route: %s → %s", serviceName, serviceURL)
}

func (g *Gateway) watchServices() {
	ticker := time.NewTicker(10 * time.Second)
	for range ticker.C {
		g.discoverServices()
	}
}

func (g *Gateway) getProxy(serviceName string) *httputil.ReverseProxy {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.proxies[serviceName]
}

func (g *Gateway) proxyTo(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		proxy := g.getProxy(serviceName)
		if proxy == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": serviceName + " unavailable"})
			return
		}
		log.Printf("🔀 Routing %s %s → %s", c.Request.Method, c.Request.URL.Path, serviceName)
		proxy.ServeHTTP(c.Writer, c.Request)
	}
}

func (g *Gateway) HealthCheck(c *gin.Context) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	statuses := make(map[string]string)
	allHealthy := true

	client := &http.Client{Timeout: 2 * time.Second}

	for name, url := range g.services {
		resp, err := client.Get(url + "/health")
		if err != nil || resp.StatusCode != http.StatusOK {
			statuses[name] = "unhealthy"
			allHealthy = false
		} else {
			statuses[name] = "healthy"
		}
		if resp != nil {
			resp.Body.Close()
		}
	}

	status := "healthy"
	if !allHealthy {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"service":  "api-gateway",
		"services": statuses,
	})
}

func (g *Gateway) ListServices(c *gin.Context) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	c.JSON(http.StatusOK, gin.H{"services": g.services})
}

func main() {
	cfg := config.Load()

	consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort)
	if err != nil {
		log.Printf("⚠️ Failed to connect to Consul, using static routes: %v", err)
	}

	gateway := NewGateway(consul, map[string]string{
		"product-service": fmt.Sprintf("http://product-service:%d", cfg.ProductServicePort),
		"order-service":   fmt.Sprintf("http://order-service:%d", cfg.OrderServicePort),
	})

	router := gin.Default()

	router.GET("/health", gateway.HealthCheck)
	router.GET("/services", gateway.ListServices)

	// Inventory endpoints (alerts, low stock) live in the product service.
	router.Any("/products", gateway.proxyTo("product-service"))
	router.Any("/products/*path", gateway.proxyTo("product-service"))
	router.Any("/inventory/*path", gateway.proxyTo("product-service"))
	router.Any("/orders", gateway.proxyTo("order-service"))
	router.Any("/orders/*path", gateway.proxyTo("order-service"))

	log.Printf("🚀 API Gateway starting on http://0.0.0.0:%d", cfg.GatewayPort)
	router.Run(fmt.Sprintf(":%d", cfg.GatewayPort))
}
