// Package config collects runtime configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the knobs shared by the three services.
type Config struct {
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RedisHost string
	RedisPort int
	CacheTTL  time.Duration

	KafkaBrokers []string

	ConsulHost string
	ConsulPort int

	GatewayPort        int
	ProductServicePort int
	OrderServicePort   int

	// AlertHighFraction is the share of the reorder point at or below which a
	// low-stock alert escalates from medium to high severity.
	AlertHighFraction float64

	PublishTimeout time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func floatenv(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func durenvs(key string, defSec int) time.Duration {
	return time.Duration(atoienv(key, defSec)) * time.Second
}

// Load collects configuration from environment with defaults that match the
// local docker-compose setup.
func Load() Config {
	return Config{
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     atoienv("POSTGRES_PORT", 5432),
		PostgresUser:     getenv("POSTGRES_USER", "shopifygenie"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "shopifygenie123"),
		PostgresDB:       getenv("POSTGRES_DB", "shopifygenie"),

		RedisHost: getenv("REDIS_HOST", "localhost"),
		RedisPort: atoienv("REDIS_PORT", 6379),
		CacheTTL:  durenvs("CACHE_TTL_SECONDS", 300),

		KafkaBrokers: strings.Split(getenv("KAFKA_BROKERS", "localhost:9092"), ","),

		ConsulHost: getenv("CONSUL_HOST", "localhost"),
		ConsulPort: atoienv("CONSUL_PORT", 8500),

		GatewayPort:        atoienv("GATEWAY_PORT", 8080),
		ProductServicePort: atoienv("PRODUCT_SERVICE_PORT", 8081),
		OrderServicePort:   atoienv("ORDER_SERVICE_PORT", 8082),

		AlertHighFraction: floatenv("ALERT_HIGH_FRACTION", 0.5),

		PublishTimeout: durenvs("PUBLISH_TIMEOUT_SECONDS", 10),
	}
}
