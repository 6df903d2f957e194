package repository

import (
	"database/sql"
	"fmt"
	"time"

	"pricewatch/database"
	"pricewatch/models"
)

// tsFormat keeps stored timestamps lexically ordered. The fraction is fixed
// width; RFC3339Nano trims trailing zeros, which breaks ORDER BY ts within a
// second.
const tsFormat = "2006-01-02T15:04:05.000000000Z07:00"

type SnapshotRepository struct{}

func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{}
}

// Append records a snapshot. The log is append-only: nothing in the core
// ever updates or deletes a snapshot row.
func (r *SnapshotRepository) Append(s *models.Snapshot) error {
	query := `
		INSERT INTO snapshots (
			product_id, retailer_id, url, ts, price, currency,
			list_price, in_stock, parse_source, raw_signature
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := database.DB.Exec(query,
		s.ProductID, s.RetailerID, s.URL, s.TS.UTC().Format(tsFormat),
		s.Price, s.Currency, nullFloat(s.ListPrice), nullBoolInt(s.InStock),
		s.ParseSource, s.RawSignature,
	)
	if err != nil {
		return fmt.Errorf("failed to append snapshot: %v", err)
	}
	return nil
}

// GetLast returns the most recent snapshot for a lineage, or nil when the
// lineage has no history yet.
func (r *SnapshotRepository) GetLast(productID, retailerID string) (*models.Snapshot, error) {
	query := `
		SELECT product_id, retailer_id, url, ts, price, currency,
		       list_price, in_stock, parse_source, raw_signature
		FROM snapshots
		WHERE product_id = $1 AND retailer_id = $2
		ORDER BY ts DESC
		LIMIT 1
	`

	row := database.DB.QueryRow(query, productID, retailerID)
	snapshot, err := scanSnapshot(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last snapshot: %v", err)
	}
	return snapshot, nil
}

// List returns up to limit snapshots for a product, newest first, across all
// of its retailer lineages.
func (r *SnapshotRepository) List(productID string, limit int) ([]models.Snapshot, error) {
	query := `
		SELECT product_id, retailer_id, url, ts, price, currency,
		       list_price, in_stock, parse_source, raw_signature
		FROM snapshots
		WHERE product_id = $1
		ORDER BY ts DESC
		LIMIT $2
	`

	rows, err := database.DB.Query(query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %v", err)
	}
	defer rows.Close()

	var snapshots []models.Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %v", err)
		}
		snapshots = append(snapshots, *snapshot)
	}
	return snapshots, rows.Err()
}

// Summary reports the lowest and current price per product across all
// lineages.
func (r *SnapshotRepository) Summary() ([]models.ProductSummary, error) {
	query := `
		SELECT s.product_id,
		       MIN(s.price),
		       (SELECT s2.price FROM snapshots s2
		        WHERE s2.product_id = s.product_id
		        ORDER BY s2.ts DESC LIMIT 1)
		FROM snapshots s
		GROUP BY s.product_id
		ORDER BY s.product_id
	`

	rows, err := database.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize snapshots: %v", err)
	}
	defer rows.Close()

	var summaries []models.ProductSummary
	for rows.Next() {
		var s models.ProductSummary
		if err := rows.Scan(&s.ProductID, &s.LowestPrice, &s.CurrentPrice); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %v", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// scanSnapshot maps one row onto a Snapshot, converting the nullable and
// text-encoded columns back to model types.
func scanSnapshot(scan func(dest ...any) error) (*models.Snapshot, error) {
	var s models.Snapshot
	var ts string
	var listPrice sql.NullFloat64
	var inStock sql.NullInt64

	err := scan(&s.ProductID, &s.RetailerID, &s.URL, &ts, &s.Price, &s.Currency,
		&listPrice, &inStock, &s.ParseSource, &s.RawSignature)
	if err != nil {
		return nil, err
	}

	s.TS, err = time.Parse(tsFormat, ts)
	if err != nil {
		return nil, fmt.Errorf("bad snapshot timestamp %q: %v", ts, err)
	}
	if listPrice.Valid {
		s.ListPrice = &listPrice.Float64
	}
	if inStock.Valid {
		v := inStock.Int64 != 0
		s.InStock = &v
	}
	return &s, nil
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// nullBoolInt stores the stock tri-state as NULL/0/1 so it round-trips
// identically on SQLite and Postgres.
func nullBoolInt(v *bool) interface{} {
	if v == nil {
		return nil
	}
	if *v {
		return 1
	}
	return 0
}
