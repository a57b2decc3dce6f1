package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types carried in the EventMessage envelope.
const (
	EventTypeOrderCreated  = "OrderCreated"
	EventTypeStockAdjusted = "StockAdjusted"
)

// EventMessage is the envelope every event travels in. EventID is the
// consumer-side idempotency key; Source and Version exist for routing and
// observability.
type EventMessage struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
	Version   string          `json:"version"`
}

const EventVersion = "1.0"

// NewEventMessage wraps a payload in a fresh envelope. Marshalling a payload
// built from our own structs cannot fail, so the error is swallowed here.
func NewEventMessage(eventType, source string, payload interface{}) EventMessage {
	data, _ := json.Marshal(payload)
	return EventMessage{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Version:   EventVersion,
	}
}

// OrderCreatedEvent is published once per committed order on order-events.
type OrderCreatedEvent struct {
	OrderID     string           `json:"orderId"`
	OrderNumber string           `json:"orderNumber"`
	CustomerID  string           `json:"customerId"`
	Items       []OrderItemEvent `json:"items"`
	TotalAmount float64          `json:"totalAmount"`
	Currency    string           `json:"currency"`
}

type OrderItemEvent struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// StockAdjustedEvent is published on inventory-events after each ledger
// mutation has been committed.
type StockAdjustedEvent struct {
	ProductID        string `json:"productId"`
	QuantityAdjusted int    `json:"quantityAdjusted"`
	NewQuantity      int    `json:"newQuantity"`
	Reason           string `json:"reason"`
	OrderID          string `json:"orderId,omitempty"`
}
