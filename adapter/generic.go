package adapter

import (
	"pricewatch/extract"
	"pricewatch/models"
)

// Generic handles any retailer without site-specific quirks by delegating
// straight to the extraction coordinator.
type Generic struct{}

func (Generic) Name() string { return "generic" }

func (Generic) Process(pageURL string, page []byte, currencyFallback string) (*models.PriceRecord, error) {
	return extract.Extract(page, pageURL, currencyFallback)
}
