package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

// Init opens the database connection. A postgres:// or postgresql:// DSN
// selects Postgres; anything else is treated as a SQLite file path
// (":memory:" works for tests). Both drivers accept the $1 placeholder
// syntax used throughout the repositories.
func Init(databaseURL string) error {
	driver := "sqlite"
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		driver = "postgres"
	}

	if driver == "sqlite" && databaseURL != ":memory:" {
		if dir := filepath.Dir(databaseURL); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create database directory: %v", err)
			}
		}
	}

	var err error
	DB, err = sql.Open(driver, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %v", err)
	}

	// Every pooled connection to :memory: would get its own empty database.
	if databaseURL == ":memory:" {
		DB.SetMaxOpenConns(1)
	}

	if err := DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %v", err)
	}

	log.Printf("Connected to %s database", driver)
	return nil
}

// CreateTables creates the append-only snapshot and alert logs if they don't
// exist. The DDL is kept to the dialect both SQLite and Postgres accept.
// Timestamps are stored as RFC3339 text in UTC so lexical order equals time
// order on both engines.
func CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			product_id TEXT NOT NULL,
			retailer_id TEXT NOT NULL,
			url TEXT NOT NULL,
			ts TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			currency TEXT NOT NULL,
			list_price DOUBLE PRECISION,
			in_stock INTEGER,
			parse_source TEXT NOT NULL,
			raw_signature TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			product_id TEXT NOT NULL,
			retailer_id TEXT NOT NULL,
			ts TEXT NOT NULL,
			event_type TEXT NOT NULL,
			old_price DOUBLE PRECISION NOT NULL,
			new_price DOUBLE PRECISION NOT NULL,
			pct_change DOUBLE PRECISION NOT NULL,
			reason TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_lineage ON snapshots (product_id, retailer_id, ts)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_lineage ON alerts (product_id, retailer_id, ts)`,
	}

	for _, query := range queries {
		if _, err := DB.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %v", err)
		}
	}
	return nil
}

// Close closes the database connection.
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
