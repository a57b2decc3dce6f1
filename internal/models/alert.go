package models

import "time"

type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// InventoryAlert is raised when an adjustment drops stock to or below the
// product's reorder point. ProductName and CurrentStock are snapshots taken
// at alert time.
type InventoryAlert struct {
	ID           string        `json:"id"`
	ProductID    string        `json:"productId"`
	ProductName  string        `json:"productName"`
	CurrentStock int           `json:"currentStock"`
	Threshold    int           `json:"threshold"`
	Severity     AlertSeverity `json:"severity"`
	Resolved     bool          `json:"resolved"`
	CreatedAt    time.Time     `json:"createdAt"`
}
