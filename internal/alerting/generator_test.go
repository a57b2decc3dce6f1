package alerting

import (
	"context"
	"testing"

	"github.com/badhusha-dev/shopifygenie-services/internal/models"
)

type memStore struct {
	alerts []models.InventoryAlert
}

func (s *memStore) Create(_ context.Context, a *models.InventoryAlert) error {
	s.alerts = append(s.alerts, *a)
	return nil
}

func severityRank(s models.AlertSeverity) int {
	switch s {
	case models.SeverityMedium:
		return 1
	case models.SeverityHigh:
		return 2
	case models.SeverityCritical:
		return 3
	}
	return 0
}

func TestClassify(t *testing.T) {
	g := NewGenerator(&memStore{}, 0.5)

	tests := []struct {
		name     string
		stock    int
		reorder  int
		severity models.AlertSeverity
		breached bool
	}{
		{"above threshold", 11, 10, "", false},
		{"well above threshold", 100, 10, "", false},
		{"at threshold", 10, 10, models.SeverityMedium, true},
		{"below threshold", 7, 10, models.SeverityMedium, true},
		{"at half threshold", 5, 10, models.SeverityHigh, true},
		{"below half threshold", 2, 10, models.SeverityHigh, true},
		{"out of stock", 0, 10, models.SeverityCritical, true},
		{"zero reorder point, zero stock", 0, 0, models.SeverityCritical, true},
		{"zero reorder point, in stock", 1, 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			severity, breached := g.Classify(tt.stock, tt.reorder)
			if breached != tt.breached || severity != tt.severity {
				t.Fatalf("Classify(%d, %d) = %q, %v; want %q, %v",
					tt.stock, tt.reorder, severity, breached, tt.severity, tt.breached)
			}
		})
	}
}

func TestClassifyIsMonotonic(t *testing.T) {
	g := NewGenerator(&memStore{}, 0.5)
	const reorder = 20

	prev := -1
	for stock := reorder + 5; stock >= 0; stock-- {
		severity, breached := g.Classify(stock, reorder)
		rank := 0
		if breached {
			rank = severityRank(severity)
		}
		if rank < prev {
			t.Fatalf("severity decreased as stock fell: stock %d rank %d, previous rank %d", stock, rank, prev)
		}
		prev = rank
	}
}

func TestClassifyCustomHighFraction(t *testing.T) {
	g := NewGenerator(&memStore{}, 0.25)

	if severity, _ := g.Classify(5, 20); severity != models.SeverityHigh {
		t.Fatalf("expected high at quarter threshold, got %s", severity)
	}
	if severity, _ := g.Classify(6, 20); severity != models.SeverityMedium {
		t.Fatalf("expected medium above quarter threshold, got %s", severity)
	}
}

func TestNewGeneratorRejectsBadFraction(t *testing.T) {
	g := NewGenerator(&memStore{}, 1.5)

	// Falls back to the default 0.5 boundary.
	if severity, _ := g.Classify(10, 20); severity != models.SeverityHigh {
		t.Fatalf("expected default fraction behavior, got %s", severity)
	}
}

func TestCheckRaisesAlertOnBreach(t *testing.T) {
	store := &memStore{}
	g := NewGenerator(store, 0.5)

	product := &models.Product{ID: "P1", Name: "Widget", Stock: 3, ReorderPoint: 10}
	alert, err := g.Check(context.Background(), product)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if alert == nil {
		t.Fatal("expected an alert")
	}
	if alert.ProductID != "P1" || alert.ProductName != "Widget" || alert.CurrentStock != 3 || alert.Threshold != 10 {
		t.Fatalf("unexpected alert: %+v", alert)
	}
	if alert.Severity != models.SeverityHigh {
		t.Fatalf("expected high severity, got %s", alert.Severity)
	}
	if len(store.alerts) != 1 {
		t.Fatalf("expected alert persisted, got %d", len(store.alerts))
	}
}

func TestCheckNoAlertAboveThreshold(t *testing.T) {
	store := &memStore{}
	g := NewGenerator(store, 0.5)

	product := &models.Product{ID: "P1", Name: "Widget", Stock: 50, ReorderPoint: 10}
	alert, err := g.Check(context.Background(), product)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if alert != nil || len(store.alerts) != 0 {
		t.Fatalf("expected no alert, got %+v", alert)
	}
}

func TestCheckEveryBreachAppendsNewAlert(t *testing.T) {
	store := &memStore{}
	g := NewGenerator(store, 0.5)

	product := &models.Product{ID: "P1", Name: "Widget", Stock: 3, ReorderPoint: 10}
	for i := 0; i < 3; i++ {
		if _, err := g.Check(context.Background(), product); err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
	}
	if len(store.alerts) != 3 {
		t.Fatalf("breaches are not deduplicated, expected 3 alerts, got %d", len(store.alerts))
	}
}
