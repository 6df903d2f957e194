// Package extract turns arbitrary retailer product pages into normalized
// price records. It tries embedded structured data first and falls back to
// DOM heuristics; it never fabricates a price.
package extract

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/net/html"

	"pricewatch/models"
)

// ErrNoPrice is returned when neither extraction tier locates a usable price.
var ErrNoPrice = errors.New("could not extract price")

// Extract parses a fetched product page into a PriceRecord.
//
// The structured-data tier wins whenever it yields a positive price; the DOM
// tier then only fills fields the structured block omitted (stock status,
// list price) and never overwrites them. currencyFallback applies when the
// page declares no currency at all.
func Extract(page []byte, pageURL, currencyFallback string) (*models.PriceRecord, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %v", err)
	}

	lp := NewLocaleParser(currencyFallback)
	dom := extractFromDOM(doc, lp)

	rec := &models.PriceRecord{}
	if structured := extractStructured(doc); structured != nil && structured.price > 0 {
		rec.Price = structured.price
		rec.Currency = structured.currency
		rec.ListPrice = structured.listPrice
		rec.InStock = structured.inStock
		rec.ParseSource = models.SourceStructured

		// Gap fill only: structured fields are never overwritten.
		if rec.InStock == nil {
			rec.InStock = dom.inStock
		}
		if rec.ListPrice == nil {
			rec.ListPrice = dom.listPrice
		}
	} else if dom.price > 0 {
		rec.Price = dom.price
		rec.Currency = dom.currency
		rec.ListPrice = dom.listPrice
		rec.InStock = dom.inStock
		rec.ParseSource = models.SourceDOM
	} else {
		return nil, ErrNoPrice
	}

	if rec.Currency == "" {
		rec.Currency = currencyFallback
	}
	// An advertised "was" price below the selling price is not applicable.
	if rec.ListPrice != nil && *rec.ListPrice < rec.Price {
		rec.ListPrice = nil
	}

	rec.Sign(pageURL)
	return rec, nil
}
