package adapter

import (
	"log"

	"pricewatch/models"
)

// AmazonStub declines every Amazon URL: scraping Amazon reliably needs
// PA-API or Keepa access, so this variant skips instead of producing noisy
// extraction failures. It never touches the page.
type AmazonStub struct{}

func (AmazonStub) Name() string { return "amazon-stub" }

func (AmazonStub) Process(pageURL string, _ []byte, _ string) (*models.PriceRecord, error) {
	log.Printf("[WARN] amazon link skipped (use PA-API/Keepa): %s", pageURL)
	return nil, &SkipError{Reason: "requires PA-API/Keepa access"}
}
