// Package adapter selects and runs the retailer-specific processing for a
// product URL. The variant set is closed: adding a retailer means adding a
// variant here plus a selection rule in Select.
package adapter

import (
	"net/url"
	"strings"

	"pricewatch/models"
)

// SkipError signals that an adapter intentionally declined to process a URL.
// A skip is a capability boundary, not an extraction failure, and callers
// must report it separately.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	return "skipped: " + e.Reason
}

// Adapter processes one fetched product page into a price record.
type Adapter interface {
	Name() string
	Process(pageURL string, page []byte, currencyFallback string) (*models.PriceRecord, error)
}

// RetailerID derives the lineage retailer key from a URL: the host,
// lowercased, with any leading "www." stripped.
func RetailerID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// Select returns the adapter responsible for a URL's host. Unmatched hosts
// resolve to the generic adapter, so selection never fails.
func Select(rawURL string) Adapter {
	host := RetailerID(rawURL)
	switch {
	case strings.Contains(host, "amazon."):
		return AmazonStub{}
	case strings.Contains(host, "canadacomputers.com"):
		return CanadaComputers{}
	default:
		return Generic{}
	}
}
