package adapter

import (
	"strings"

	"pricewatch/extract"
	"pricewatch/models"
)

// Canada Computers publishes stock state in banner text that frequently
// disagrees with (or is missing from) its structured data. Markers checked in
// order; the out-of-stock phrases win because the site keeps stale "InStock"
// offers on sold-out pages.
var (
	ccOutOfStock = []string{"sold out online", "not available online", "back order", "special order"}
	ccInStock    = []string{"in stock online", "available to ship", "available at"}
)

// CanadaComputers delegates to the coordinator, then applies site-specific
// corrections to the result. It never invents values the page doesn't carry.
type CanadaComputers struct{}

func (CanadaComputers) Name() string { return "canadacomputers" }

func (CanadaComputers) Process(pageURL string, page []byte, currencyFallback string) (*models.PriceRecord, error) {
	rec, err := extract.Extract(page, pageURL, currencyFallback)
	if err != nil {
		return nil, err
	}

	fixAvailability(rec, page)
	rec.Sign(pageURL)
	return rec, nil
}

// fixAvailability corrects the stock tri-state from Canada Computers' own
// banner markers.
func fixAvailability(rec *models.PriceRecord, page []byte) {
	body := strings.ToLower(string(page))
	for _, marker := range ccOutOfStock {
		if strings.Contains(body, marker) {
			v := false
			rec.InStock = &v
			return
		}
	}
	if rec.InStock != nil {
		return
	}
	for _, marker := range ccInStock {
		if strings.Contains(body, marker) {
			v := true
			rec.InStock = &v
			return
		}
	}
}
