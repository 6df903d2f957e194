// Package engine decides which snapshots represent price drops worth
// alerting on. It is pure: it reads history handed to it and returns
// decisions, leaving all persistence to the caller. That makes the
// read-decide-write protocol the caller's responsibility — both history reads
// must be taken under the same lineage lock as the subsequent writes.
package engine

import (
	"fmt"
	"time"

	"pricewatch/models"
)

// Input carries everything one evaluation needs: the fresh record, its
// lineage identity, the product thresholds, and the two pieces of history
// (last snapshot for comparison, last alert for dedup). Nil history means no
// prior observation.
type Input struct {
	Record       *models.PriceRecord
	ProductID    string
	RetailerID   string
	URL          string
	TS           time.Time
	Thresholds   models.Thresholds
	LastSnapshot *models.Snapshot
	LastAlert    *models.Alert
}

// Evaluate applies the drop rules to a new price record.
//
// The snapshot in the result is always meant to be persisted, whatever the
// alert outcome. An alert is attached only when the drop against the last
// snapshot clears both thresholds and no alert was already raised for this
// price level on this lineage.
func Evaluate(in Input) models.DetectionResult {
	snapshot := models.Snapshot{
		ProductID:   in.ProductID,
		RetailerID:  in.RetailerID,
		URL:         in.URL,
		TS:          in.TS,
		PriceRecord: *in.Record,
	}
	result := models.DetectionResult{Snapshot: snapshot}

	if in.LastSnapshot == nil {
		// First observation for this lineage: baseline, nothing to compare.
		return result
	}

	lastPrice := in.LastSnapshot.Price
	absDrop := lastPrice - in.Record.Price
	pctDrop := 0.0
	if lastPrice > 0 {
		pctDrop = absDrop / lastPrice
	}

	if absDrop < in.Thresholds.MinAbs || pctDrop < in.Thresholds.MinPct {
		return result
	}

	// At most one alert per distinct (product, retailer, new_price)
	// transition: re-observing an already-alerted price level stays quiet.
	if in.LastAlert != nil && in.LastAlert.NewPrice == in.Record.Price {
		return result
	}

	result.Alert = &models.Alert{
		ProductID:  in.ProductID,
		RetailerID: in.RetailerID,
		TS:         in.TS,
		EventType:  models.EventTypePriceDrop,
		OldPrice:   lastPrice,
		NewPrice:   in.Record.Price,
		PctChange:  pctDrop,
		Reason:     fmt.Sprintf("last %.2f → %.2f (-%.1f%%)", lastPrice, in.Record.Price, pctDrop*100),
	}
	return result
}
