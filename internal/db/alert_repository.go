package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/badhusha-dev/shopifygenie-services/internal/models"
)

var ErrAlertNotFound = errors.New("alert not found")

// AlertRepository persists inventory alerts. Alerts are append-only except
// for the resolved flag, which operators flip through the API.
type AlertRepository struct {
	db *sql.DB
}

func NewAlertRepository(database *PostgresDB) *AlertRepository {
	return &AlertRepository{db: database.Conn}
}

// Create persists a new, unresolved alert and fills in its id and timestamp.
func (r *AlertRepository) Create(ctx context.Context, alert *models.InventoryAlert) error {
	alert.ID = uuid.NewString()
	alert.Resolved = false

	query := `
		INSERT INTO inventory_alerts (id, product_id, product_name, current_stock, threshold, severity, resolved)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		alert.ID, alert.ProductID, alert.ProductName, alert.CurrentStock, alert.Threshold, alert.Severity).
		Scan(&alert.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

// List returns alerts, optionally filtered by resolved state, oldest first.
func (r *AlertRepository) List(ctx context.Context, resolved *bool) ([]models.InventoryAlert, error) {
	query := `
		SELECT id, product_id, product_name, current_stock, threshold, severity, resolved, created_at
		FROM inventory_alerts
	`
	var args []interface{}
	if resolved != nil {
		query += " WHERE resolved = $1"
		args = append(args, *resolved)
	}
	query += " ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.InventoryAlert
	for rows.Next() {
		var a models.InventoryAlert
		err := rows.Scan(&a.ID, &a.ProductID, &a.ProductName, &a.CurrentStock, &a.Threshold, &a.Severity, &a.Resolved, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// Resolve marks an alert as handled.
func (r *AlertRepository) Resolve(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE inventory_alerts SET resolved = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to resolve alert: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrAlertNotFound
	}

	return nil
}
