package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.PostgresHost != "localhost" || cfg.PostgresPort != 5432 {
		t.Fatalf("unexpected postgres defaults: %s:%d", cfg.PostgresHost, cfg.PostgresPort)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "localhost:9092" {
		t.Fatalf("unexpected kafka brokers: %v", cfg.KafkaBrokers)
	}
	if cfg.AlertHighFraction != 0.5 {
		t.Fatalf("unexpected alert fraction: %v", cfg.AlertHighFraction)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("unexpected cache TTL: %v", cfg.CacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("ALERT_HIGH_FRACTION", "0.25")
	t.Setenv("PRODUCT_SERVICE_PORT", "9001")

	cfg := Load()
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected kafka brokers: %v", cfg.KafkaBrokers)
	}
	if cfg.AlertHighFraction != 0.25 {
		t.Fatalf("unexpected alert fraction: %v", cfg.AlertHighFraction)
	}
	if cfg.ProductServicePort != 9001 {
		t.Fatalf("unexpected port: %d", cfg.ProductServicePort)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("POSTGRES_PORT", "not-a-number")
	t.Setenv("ALERT_HIGH_FRACTION", "lots")

	cfg := Load()
	if cfg.PostgresPort != 5432 {
		t.Fatalf("expected default port, got %d", cfg.PostgresPort)
	}
	if cfg.AlertHighFraction != 0.5 {
		t.Fatalf("expected default fraction, got %v", cfg.AlertHighFraction)
	}
}
