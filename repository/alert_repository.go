package repository

import (
	"database/sql"
	"fmt"
	"time"

	"pricewatch/database"
	"pricewatch/models"
)

type AlertRepository struct{}

func NewAlertRepository() *AlertRepository {
	return &AlertRepository{}
}

// Append records a drop alert. Append-only, like the snapshot log.
func (r *AlertRepository) Append(a *models.Alert) error {
	query := `
		INSERT INTO alerts (
			product_id, retailer_id, ts, event_type,
			old_price, new_price, pct_change, reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := database.DB.Exec(query,
		a.ProductID, a.RetailerID, a.TS.UTC().Format(tsFormat),
		a.EventType, a.OldPrice, a.NewPrice, a.PctChange, a.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to append alert: %v", err)
	}
	return nil
}

// GetLast returns the most recent alert for a lineage, or nil when none was
// ever raised. The engine uses this for price-level dedup.
func (r *AlertRepository) GetLast(productID, retailerID string) (*models.Alert, error) {
	query := `
		SELECT product_id, retailer_id, ts, event_type,
		       old_price, new_price, pct_change, reason
		FROM alerts
		WHERE product_id = $1 AND retailer_id = $2
		ORDER BY ts DESC
		LIMIT 1
	`

	row := database.DB.QueryRow(query, productID, retailerID)
	alert, err := scanAlert(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last alert: %v", err)
	}
	return alert, nil
}

// List returns up to limit alerts for a product, newest first.
func (r *AlertRepository) List(productID string, limit int) ([]models.Alert, error) {
	query := `
		SELECT product_id, retailer_id, ts, event_type,
		       old_price, new_price, pct_change, reason
		FROM alerts
		WHERE product_id = $1
		ORDER BY ts DESC
		LIMIT $2
	`

	rows, err := database.DB.Query(query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %v", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		alert, err := scanAlert(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %v", err)
		}
		alerts = append(alerts, *alert)
	}
	return alerts, rows.Err()
}

func scanAlert(scan func(dest ...any) error) (*models.Alert, error) {
	var a models.Alert
	var ts string

	err := scan(&a.ProductID, &a.RetailerID, &ts, &a.EventType,
		&a.OldPrice, &a.NewPrice, &a.PctChange, &a.Reason)
	if err != nil {
		return nil, err
	}

	a.TS, err = time.Parse(tsFormat, ts)
	if err != nil {
		return nil, fmt.Errorf("bad alert timestamp %q: %v", ts, err)
	}
	return &a, nil
}
