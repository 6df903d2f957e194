package models

import (
	"crypto/sha1"
	"fmt"
	"time"
)

// Parse sources for a PriceRecord. The structured tier always wins when it
// yields a usable price; the DOM tier only runs as a fallback or to fill gaps.
const (
	SourceStructured = "structured"
	SourceDOM        = "dom"
)

// EventTypePriceDrop is the only alert event type currently emitted.
const EventTypePriceDrop = "price_drop"

// DefaultCurrency is assumed when neither the page nor the product
// configuration declares one.
const DefaultCurrency = "CAD"

// Default drop thresholds applied when a product omits them.
const (
	DefaultMinAbs = 20.0
	DefaultMinPct = 0.08
)

// PriceRecord is the normalized extraction result for one (url, fetch) pair.
// A record is only ever constructed with a positive price; extraction fails
// with an error instead of producing a zero-price sentinel.
type PriceRecord struct {
	Price        float64  `json:"price"`
	Currency     string   `json:"currency"`
	ListPrice    *float64 `json:"list_price,omitempty"`
	InStock      *bool    `json:"in_stock,omitempty"` // nil = no stock signal found
	ParseSource  string   `json:"parse_source"`
	RawSignature string   `json:"raw_signature"`
}

// Sign computes the raw signature over the normalized extracted fields so
// identical re-fetches are detectable without comparing full page content.
func (r *PriceRecord) Sign(url string) {
	listPrice := ""
	if r.ListPrice != nil {
		listPrice = fmt.Sprintf("%.2f", *r.ListPrice)
	}
	data := fmt.Sprintf("%s|%.2f|%s|%s", url, r.Price, r.Currency, listPrice)
	r.RawSignature = fmt.Sprintf("%x", sha1.Sum([]byte(data)))
}

// Snapshot is a PriceRecord plus identity and timing, persisted append-only
// and ordered by TS per (product_id, retailer_id) lineage.
type Snapshot struct {
	ProductID  string    `json:"product_id" db:"product_id"`
	RetailerID string    `json:"retailer_id" db:"retailer_id"`
	URL        string    `json:"url" db:"url"`
	TS         time.Time `json:"ts" db:"ts"`
	PriceRecord
}

// Alert is a drop-detection decision artifact. Only the engine creates
// alerts; extraction never does. Append-only.
type Alert struct {
	ProductID  string    `json:"product_id" db:"product_id"`
	RetailerID string    `json:"retailer_id" db:"retailer_id"`
	TS         time.Time `json:"ts" db:"ts"`
	EventType  string    `json:"event_type" db:"event_type"`
	OldPrice   float64   `json:"old_price" db:"old_price"`
	NewPrice   float64   `json:"new_price" db:"new_price"`
	PctChange  float64   `json:"pct_change" db:"pct_change"`
	Reason     string    `json:"reason" db:"reason"`
}

// Thresholds gate drop alerts. A drop must clear BOTH the absolute and the
// percentage threshold to fire, which keeps small-percentage noise on
// expensive items and small-dollar noise on cheap items from over-triggering.
type Thresholds struct {
	MinAbs float64 `json:"min_abs" yaml:"min_abs"`
	MinPct float64 `json:"min_pct" yaml:"min_pct"`
}

// DefaultThresholds returns the thresholds applied when a product omits them.
func DefaultThresholds() Thresholds {
	return Thresholds{MinAbs: DefaultMinAbs, MinPct: DefaultMinPct}
}

// ProductConfig is one tracked product as declared in the products file.
// Each link is an independent retailer observation: it is compared against
// its own (product_id, retailer_id) history, never pooled.
type ProductConfig struct {
	ID         string     `json:"id" yaml:"id"`
	Links      []string   `json:"links" yaml:"links"`
	Currency   string     `json:"currency" yaml:"currency"`
	Thresholds Thresholds `json:"thresholds" yaml:"thresholds"`
}

// DetectionResult is what the engine hands back to the caller: the snapshot
// to persist (always) and the alert to persist (only on a qualifying drop).
// The engine itself never writes to storage.
type DetectionResult struct {
	Snapshot Snapshot
	Alert    *Alert
}

// Scan outcome statuses. Skipped is deliberately distinct from Error: a skip
// means the adapter declined up front (access-restricted retailer), not that
// the pipeline malfunctioned.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// ScanResult reports the outcome of scanning one product link.
type ScanResult struct {
	ProductID string       `json:"product_id"`
	URL       string       `json:"url"`
	Status    string       `json:"status"`
	Record    *PriceRecord `json:"record,omitempty"`
	Alert     *Alert       `json:"alert,omitempty"`
	Reason    string       `json:"reason,omitempty"`
}

// ProductSummary aggregates a product's price history for reporting.
type ProductSummary struct {
	ProductID    string  `json:"product_id"`
	LowestPrice  float64 `json:"lowest_price"`
	CurrentPrice float64 `json:"current_price"`
}
