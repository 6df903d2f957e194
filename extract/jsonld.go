package extract

import (
	"encoding/json"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// fields holds what one extraction tier found. A nil pointer means the tier
// had no signal for that field.
type fields struct {
	price     float64
	currency  string
	listPrice *float64
	inStock   *bool
}

// extractStructured scans every <script type="application/ld+json"> block and
// returns the price fields of the first Product node that declares a positive
// price, or nil when no block is usable.
func extractStructured(doc *html.Node) *fields {
	for _, block := range findJSONLDBlocks(doc) {
		var data interface{}
		if err := json.Unmarshal([]byte(block), &data); err != nil {
			continue // malformed blocks are common in the wild, keep looking
		}
		if f := findProduct(data); f != nil {
			return f
		}
	}
	return nil
}

// findJSONLDBlocks collects the text of all JSON-LD script elements.
func findJSONLDBlocks(n *html.Node) []string {
	var blocks []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Script {
			for _, a := range n.Attr {
				if a.Key == "type" && strings.EqualFold(strings.TrimSpace(a.Val), "application/ld+json") {
					if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
						blocks = append(blocks, n.FirstChild.Data)
					}
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return blocks
}

// findProduct walks a decoded JSON-LD value (object, array, or @graph) and
// returns the offer fields of the first Product node with a usable price.
func findProduct(data interface{}) *fields {
	switch v := data.(type) {
	case []interface{}:
		for _, item := range v {
			if f := findProduct(item); f != nil {
				return f
			}
		}
	case map[string]interface{}:
		if isProductType(v["@type"]) {
			if f := offerFields(v["offers"]); f != nil {
				return f
			}
		}
		if graph, ok := v["@graph"].([]interface{}); ok {
			for _, item := range graph {
				if f := findProduct(item); f != nil {
					return f
				}
			}
		}
	}
	return nil
}

// isProductType handles @type given as a string or a list of strings.
func isProductType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return strings.EqualFold(v, "Product")
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.EqualFold(s, "Product") {
				return true
			}
		}
	}
	return false
}

// offerFields reads price, currency and availability from an offers value,
// which may be a single offer object or a list of offers (first one wins).
func offerFields(offers interface{}) *fields {
	var offer map[string]interface{}
	switch v := offers.(type) {
	case map[string]interface{}:
		offer = v
	case []interface{}:
		for _, item := range v {
			if m, ok := item.(map[string]interface{}); ok {
				offer = m
				break
			}
		}
	}
	if offer == nil {
		return nil
	}

	price, ok := priceValue(offer["price"])
	if !ok {
		// AggregateOffer publishes lowPrice instead of price.
		price, ok = priceValue(offer["lowPrice"])
	}
	if !ok || price <= 0 {
		return nil
	}

	f := &fields{price: price}
	if c, ok := offer["priceCurrency"].(string); ok {
		f.currency = strings.ToUpper(strings.TrimSpace(c))
	}
	if hi, ok := priceValue(offer["highPrice"]); ok && hi > price {
		f.listPrice = &hi
	}
	if avail, ok := availabilityValue(offer["availability"]); ok {
		f.inStock = &avail
	}
	return f
}

// priceValue accepts a JSON number or a numeric string ("1,299.00").
func priceValue(v interface{}) (float64, bool) {
	switch p := v.(type) {
	case float64:
		return p, true
	case string:
		value, err := parseNumeric(p)
		if err != nil {
			return 0, false
		}
		return value, true
	}
	return 0, false
}

// availabilityValue maps schema.org availability URLs onto the in-stock
// tri-state. Unrecognized values stay unknown.
func availabilityValue(v interface{}) (bool, bool) {
	s, ok := v.(string)
	if !ok {
		return false, false
	}
	switch {
	case strings.Contains(s, "InStock"), strings.Contains(s, "LimitedAvailability"),
		strings.Contains(s, "OnlineOnly"), strings.Contains(s, "PreOrder"):
		return true, true
	case strings.Contains(s, "OutOfStock"), strings.Contains(s, "SoldOut"),
		strings.Contains(s, "Discontinued"):
		return false, true
	}
	return false, false
}
