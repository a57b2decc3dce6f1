package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/badhusha-dev/shopifygenie-services/internal/alerting"
	"github.com/badhusha-dev/shopifygenie-services/internal/db"
	"github.com/badhusha-dev/shopifygenie-services/internal/models"
)

type fakeLedger struct {
	products map[string]*models.Product
	markers  map[string]bool
	failOn   map[string]error
}

func newFakeLedger(products ...*models.Product) *fakeLedger {
	l := &fakeLedger{
		products: make(map[string]*models.Product),
		markers:  make(map[string]bool),
		failOn:   make(map[string]error),
	}
	for _, p := range products {
		l.products[p.ID] = p
	}
	return l
}

func (l *fakeLedger) ApplyOrderLineItem(_ context.Context, orderID, productID string, delta int, _ string) (*models.Product, bool, error) {
	if err := l.failOn[productID]; err != nil {
		return nil, false, err
	}
	if l.markers[orderID+"|"+productID] {
		return nil, false, nil
	}
	p, ok := l.products[productID]
	if !ok {
		return nil, false, db.ErrProductNotFound
	}
	p.Stock += delta
	if p.Stock < 0 {
		p.Stock = 0
	}
	l.markers[orderID+"|"+productID] = true
	snapshot := *p
	return &snapshot, true, nil
}

type fakePublisher struct {
	events []models.StockAdjustedEvent
	err    error
}

func (p *fakePublisher) PublishStockAdjusted(_ context.Context, e models.StockAdjustedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

type fakeAlertStore struct {
	alerts []models.InventoryAlert
	err    error
}

func (s *fakeAlertStore) Create(_ context.Context, a *models.InventoryAlert) error {
	if s.err != nil {
		return s.err
	}
	s.alerts = append(s.alerts, *a)
	return nil
}

func orderMessage(t *testing.T, orderID string, items ...models.OrderItemEvent) []byte {
	t.Helper()
	event := models.OrderCreatedEvent{
		OrderID:     orderID,
		OrderNumber: "ORD-1700000000000",
		CustomerID:  "cust-1",
		Items:       items,
		TotalAmount: 100,
		Currency:    "USD",
	}
	envelope := models.NewEventMessage(models.EventTypeOrderCreated, "order-service", event)
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func newConsumer(ledger *fakeLedger, pub *fakePublisher, store *fakeAlertStore) *InventoryConsumer {
	return NewInventoryConsumer(ledger, pub, alerting.NewGenerator(store, 0.5), nil)
}

func TestHandleMessageAdjustsStockAndAlerts(t *testing.T) {
	ledger := newFakeLedger(&models.Product{ID: "P1", Name: "Widget", Stock: 5, ReorderPoint: 10})
	pub := &fakePublisher{}
	store := &fakeAlertStore{}
	c := newConsumer(ledger, pub, store)

	msg := orderMessage(t, "order-1", models.OrderItemEvent{ProductID: "P1", Quantity: 2})
	if err := c.HandleMessage(context.Background(), nil, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if got := ledger.products["P1"].Stock; got != 3 {
		t.Fatalf("expected stock 3, got %d", got)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 StockAdjusted event, got %d", len(pub.events))
	}
	e := pub.events[0]
	if e.ProductID != "P1" || e.QuantityAdjusted != -2 || e.NewQuantity != 3 || e.OrderID != "order-1" {
		t.Fatalf("unexpected event: %+v", e)
	}
	if len(store.alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(store.alerts))
	}
	a := store.alerts[0]
	if a.Severity != models.SeverityHigh && a.Severity != models.SeverityMedium {
		t.Fatalf("unexpected severity: %s", a.Severity)
	}
	if a.CurrentStock != 3 || a.Threshold != 10 || a.ProductName != "Widget" {
		t.Fatalf("unexpected alert: %+v", a)
	}
}

func TestHandleMessageClampsStockAtZero(t *testing.T) {
	ledger := newFakeLedger(&models.Product{ID: "P2", Name: "Gizmo", Stock: 2, ReorderPoint: 10})
	pub := &fakePublisher{}
	store := &fakeAlertStore{}
	c := newConsumer(ledger, pub, store)

	msg := orderMessage(t, "order-2", models.OrderItemEvent{ProductID: "P2", Quantity: 5})
	if err := c.HandleMessage(context.Background(), nil, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if got := ledger.products["P2"].Stock; got != 0 {
		t.Fatalf("expected stock clamped to 0, got %d", got)
	}
	if len(store.alerts) != 1 || store.alerts[0].Severity != models.SeverityCritical {
		t.Fatalf("expected a critical alert, got %+v", store.alerts)
	}
}

func TestHandleMessageSkipsUnknownProducts(t *testing.T) {
	ledger := newFakeLedger(&models.Product{ID: "P1", Name: "Widget", Stock: 50, ReorderPoint: 10})
	pub := &fakePublisher{}
	store := &fakeAlertStore{}
	c := newConsumer(ledger, pub, store)

	msg := orderMessage(t, "order-3",
		models.OrderItemEvent{ProductID: "P9", Quantity: 1},
		models.OrderItemEvent{ProductID: "P1", Quantity: 3},
	)
	if err := c.HandleMessage(context.Background(), nil, msg); err != nil {
		t.Fatalf("unknown product must not fail the event: %v", err)
	}

	if got := ledger.products["P1"].Stock; got != 47 {
		t.Fatalf("expected remaining line items to process, stock %d", got)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event for the known product, got %d", len(pub.events))
	}
}

func TestHandleMessageIsIdempotentOnRedelivery(t *testing.T) {
	ledger := newFakeLedger(&models.Product{ID: "P1", Name: "Widget", Stock: 20, ReorderPoint: 5})
	pub := &fakePublisher{}
	store := &fakeAlertStore{}
	c := newConsumer(ledger, pub, store)

	msg := orderMessage(t, "order-4", models.OrderItemEvent{ProductID: "P1", Quantity: 4})
	for i := 0; i < 2; i++ {
		if err := c.HandleMessage(context.Background(), nil, msg); err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
	}

	if got := ledger.products["P1"].Stock; got != 16 {
		t.Fatalf("redelivery double-applied: expected 16, got %d", got)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected a single StockAdjusted event, got %d", len(pub.events))
	}
}

func TestHandleMessageAbortsOnPersistenceError(t *testing.T) {
	ledger := newFakeLedger(
		&models.Product{ID: "P1", Name: "Widget", Stock: 20, ReorderPoint: 5},
		&models.Product{ID: "P2", Name: "Gizmo", Stock: 20, ReorderPoint: 5},
		&models.Product{ID: "P3", Name: "Doodad", Stock: 20, ReorderPoint: 5},
	)
	ledger.failOn["P2"] = errors.New("connection reset")
	pub := &fakePublisher{}
	store := &fakeAlertStore{}
	c := newConsumer(ledger, pub, store)

	msg := orderMessage(t, "order-5",
		models.OrderItemEvent{ProductID: "P1", Quantity: 2},
		models.OrderItemEvent{ProductID: "P2", Quantity: 2},
		models.OrderItemEvent{ProductID: "P3", Quantity: 2},
	)
	if err := c.HandleMessage(context.Background(), nil, msg); err == nil {
		t.Fatal("expected error to propagate for redelivery")
	}

	// Item 1 stays committed, item 3 was never reached.
	if got := ledger.products["P1"].Stock; got != 18 {
		t.Fatalf("expected item 1 committed, stock %d", got)
	}
	if got := ledger.products["P3"].Stock; got != 20 {
		t.Fatalf("expected item 3 untouched, stock %d", got)
	}

	// Redelivery after recovery: item 1 must not double-apply.
	delete(ledger.failOn, "P2")
	if err := c.HandleMessage(context.Background(), nil, msg); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if got := ledger.products["P1"].Stock; got != 18 {
		t.Fatalf("item 1 double-applied on redelivery: stock %d", got)
	}
	if got := ledger.products["P2"].Stock; got != 18 {
		t.Fatalf("item 2 not applied on redelivery: stock %d", got)
	}
	if got := ledger.products["P3"].Stock; got != 18 {
		t.Fatalf("item 3 not applied on redelivery: stock %d", got)
	}
}

func TestHandleMessagePublishFailureIsBestEffort(t *testing.T) {
	ledger := newFakeLedger(&models.Product{ID: "P1", Name: "Widget", Stock: 20, ReorderPoint: 5})
	pub := &fakePublisher{err: errors.New("broker down")}
	store := &fakeAlertStore{}
	c := newConsumer(ledger, pub, store)

	msg := orderMessage(t, "order-6", models.OrderItemEvent{ProductID: "P1", Quantity: 1})
	if err := c.HandleMessage(context.Background(), nil, msg); err != nil {
		t.Fatalf("publish failure must not fail the event: %v", err)
	}
	if got := ledger.products["P1"].Stock; got != 19 {
		t.Fatalf("expected ledger write to stand, stock %d", got)
	}
}

func TestHandleMessageAlertFailureAborts(t *testing.T) {
	ledger := newFakeLedger(&models.Product{ID: "P1", Name: "Widget", Stock: 3, ReorderPoint: 10})
	pub := &fakePublisher{}
	store := &fakeAlertStore{err: errors.New("disk full")}
	c := newConsumer(ledger, pub, store)

	msg := orderMessage(t, "order-7", models.OrderItemEvent{ProductID: "P1", Quantity: 1})
	if err := c.HandleMessage(context.Background(), nil, msg); err == nil {
		t.Fatal("expected alert persistence failure to propagate")
	}
}

func TestHandleMessageIgnoresOtherEventTypes(t *testing.T) {
	ledger := newFakeLedger(&models.Product{ID: "P1", Name: "Widget", Stock: 20, ReorderPoint: 5})
	pub := &fakePublisher{}
	store := &fakeAlertStore{}
	c := newConsumer(ledger, pub, store)

	envelope := models.NewEventMessage("PaymentProcessed", "order-service", map[string]string{"orderId": "x"})
	data, _ := json.Marshal(envelope)
	if err := c.HandleMessage(context.Background(), nil, data); err != nil {
		t.Fatalf("unrelated event types must be ignored: %v", err)
	}
	if got := ledger.products["P1"].Stock; got != 20 {
		t.Fatalf("stock must be untouched, got %d", got)
	}
}

func TestHandleMessageDropsMalformedPayloads(t *testing.T) {
	c := newConsumer(newFakeLedger(), &fakePublisher{}, &fakeAlertStore{})

	if err := c.HandleMessage(context.Background(), nil, []byte("{not json")); err != nil {
		t.Fatalf("malformed messages must be dropped, not retried: %v", err)
	}
}
