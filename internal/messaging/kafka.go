// Package messaging wraps the Kafka client behind a small EventBus interface
// so handlers and publishers can be tested against a fake bus.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Topics and consumer groups used across services.
const (
	TopicOrderEvents     = "order-events"
	TopicInventoryEvents = "inventory-events"
	GroupProductService  = "product-service-group"
)

// MessageHandler processes one delivered message. Returning an error keeps
// the message uncommitted, so it is retried and eventually redelivered -
// handlers must be idempotent.
type MessageHandler func(ctx context.Context, key, value []byte) error

// EventBus is the pub/sub capability injected into publishers and consumers.
// The broker delivers at-least-once and preserves order only within a
// partition; the message key selects the partition.
type EventBus interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
	Subscribe(ctx context.Context, topic, group string, handler MessageHandler) error
	Close() error
}

// KafkaBus implements EventBus over segmentio/kafka-go.
type KafkaBus struct {
	brokers      []string
	writeTimeout time.Duration

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	readers []*kafka.Reader
}

func NewKafkaBus(brokers []string, writeTimeout time.Duration) *KafkaBus {
	log.Printf("✅ Kafka bus configured for brokers %v", brokers)
	return &KafkaBus{
		brokers:      brokers,
		writeTimeout: writeTimeout,
		writers:      make(map[string]*kafka.Writer),
	}
}

func (b *KafkaBus) writer(topic string) *kafka.Writer {
	b.mu.Lock()
	defer b.mu.Unlock()

	w, ok := b.writers[topic]
	if !ok {
		w = &kafka.Writer{
			Addr:         kafka.TCP(b.brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{}, // same key, same partition
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: b.writeTimeout,
			BatchTimeout: 10 * time.Millisecond,
		}
		b.writers[topic] = w
	}
	return w
}

// Publish sends one message keyed for partition routing.
func (b *KafkaBus) Publish(ctx context.Context, topic, key string, value []byte) error {
	err := b.writer(topic).WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	log.Printf("📤 Message published to topic %s (key %s)", topic, key)
	return nil
}

// Subscribe consumes topic in the given group until ctx is cancelled. A
// message is committed only after the handler succeeds; handler failures are
// retried in place with capped backoff, which intentionally blocks the
// partition rather than skipping the message.
func (b *KafkaBus) Subscribe(ctx context.Context, topic, group string, handler MessageHandler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  b.brokers,
		Topic:    topic,
		GroupID:  group,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	b.mu.Lock()
	b.readers = append(b.readers, reader)
	b.mu.Unlock()

	log.Printf("👂 Listening on topic %s (group %s)", topic, group)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("failed to fetch message from %s: %w", topic, err)
		}

		for {
			err := handler(ctx, msg.Key, msg.Value)
			if err == nil {
				backoff = time.Second
				break
			}

			log.Printf("⚠️ Handler failed for topic %s (partition %d offset %d), retrying in %v: %v",
				topic, msg.Partition, msg.Offset, backoff, err)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed to commit message on %s: %w", topic, err)
		}
	}
}

// Close shuts down all writers and readers.
func (b *KafkaBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	for topic, w := range b.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close writer for %s: %w", topic, err)
		}
	}
	for _, r := range b.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close reader: %w", err)
		}
	}
	return firstErr
}
