package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Class/id fragments that mark an element as price-semantic, and fragments
// that disqualify it (struck-out "compare at" prices, financing offers).
var (
	priceMarkers   = []string{"price", "amount", "cost"}
	excludeMarkers = []string{"compare", "strike", "was-", "msrp", "regular", "per-month", "installment"}
	listMarkers    = []string{"compare", "was", "list-price", "msrp", "regular", "original"}
)

// Financing and shipping text never carries the product price.
var noisePhrases = []string{"/mo", "monthly", "apr", "affirm", "klarna", "shipping", "delivery"}

// extractFromDOM heuristically scans rendered markup for price fields, in a
// fixed priority order: explicit price attributes, then price-semantic
// class/id elements, then currency-prefixed tokens in visible text. It also
// picks up availability and list-price signals, which the coordinator uses to
// fill gaps the structured tier left. Returns a zero-price fields value when
// no price-like token is found anywhere.
func extractFromDOM(doc *html.Node, lp *LocaleParser) fields {
	var f fields

	if price, currency, ok := extractPriceAttr(doc); ok {
		f.price, f.currency = price, currency
	} else if price, currency, ok = extractPriceClass(doc, lp); ok {
		f.price, f.currency = price, currency
	} else if price, currency, ok = extractVisibleText(doc, lp); ok {
		f.price, f.currency = price, currency
	}

	f.inStock = extractAvailability(doc)
	f.listPrice = extractListPrice(doc, lp)
	return f
}

// extractPriceAttr reads machine-readable price attributes: microdata
// itemprop="price" content, Open Graph product:price:amount meta, and
// data-price attributes. Highest-confidence tier.
func extractPriceAttr(doc *html.Node) (float64, string, bool) {
	var price float64
	var currency string
	var found bool

	walkElements(doc, func(n *html.Node) {
		if found {
			return
		}
		switch {
		case attrVal(n, "itemprop") == "price":
			raw := attrVal(n, "content")
			if raw == "" {
				raw = textContent(n)
			}
			if v, err := parseNumeric(raw); err == nil && v > 0 {
				price, found = v, true
			}
		case n.DataAtom == atom.Meta && attrVal(n, "property") == "product:price:amount":
			if v, err := parseNumeric(attrVal(n, "content")); err == nil && v > 0 {
				price, found = v, true
			}
		case attrVal(n, "data-price") != "":
			if v, err := parseNumeric(attrVal(n, "data-price")); err == nil && v > 0 {
				price, found = v, true
			}
		}
	})
	if !found {
		return 0, "", false
	}

	// Currency lives in sibling attributes when it is declared at all.
	walkElements(doc, func(n *html.Node) {
		if currency != "" {
			return
		}
		if attrVal(n, "itemprop") == "priceCurrency" {
			currency = strings.ToUpper(attrVal(n, "content"))
		} else if n.DataAtom == atom.Meta && attrVal(n, "property") == "product:price:currency" {
			currency = strings.ToUpper(attrVal(n, "content"))
		}
	})
	return price, currency, true
}

// extractPriceClass scans elements whose class or id mentions a price marker
// and parses their text. First plausible match wins.
func extractPriceClass(doc *html.Node, lp *LocaleParser) (float64, string, bool) {
	var price float64
	var currency string
	var found bool

	walkElements(doc, func(n *html.Node) {
		if found || !hasPriceClass(n) {
			return
		}
		text := textContent(n)
		if text == "" || isNoise(text) {
			return
		}
		if v, c, err := lp.ParsePrice(text); err == nil {
			price, currency, found = v, c, true
		}
	})
	return price, currency, found
}

// extractVisibleText is the last resort: any currency-prefixed token in the
// page body.
func extractVisibleText(doc *html.Node, lp *LocaleParser) (float64, string, bool) {
	body := findBody(doc)
	if body == nil {
		body = doc
	}
	text := textContent(body)
	if text == "" {
		return 0, "", false
	}
	v, c, err := lp.ParseCurrencyPrice(text)
	if err != nil {
		return 0, "", false
	}
	return v, c, true
}

// extractAvailability looks for microdata availability first, then for common
// stock phrases in visible text. nil = no signal either way.
func extractAvailability(doc *html.Node) *bool {
	var result *bool

	walkElements(doc, func(n *html.Node) {
		if result != nil {
			return
		}
		if attrVal(n, "itemprop") == "availability" {
			v := attrVal(n, "href")
			if v == "" {
				v = attrVal(n, "content")
			}
			if stock, ok := availabilityValue(v); ok {
				result = &stock
			}
		}
	})
	if result != nil {
		return result
	}

	text := strings.ToLower(textContent(doc))
	inStock := []string{"in stock", "add to cart", "add to basket", "available to ship"}
	outOfStock := []string{"out of stock", "sold out", "currently unavailable", "back order"}
	for _, marker := range outOfStock {
		if strings.Contains(text, marker) {
			v := false
			return &v
		}
	}
	for _, marker := range inStock {
		if strings.Contains(text, marker) {
			v := true
			return &v
		}
	}
	return nil
}

// extractListPrice finds an advertised "was" price in compare/strike markup.
func extractListPrice(doc *html.Node, lp *LocaleParser) *float64 {
	var result *float64
	walkElements(doc, func(n *html.Node) {
		if result != nil {
			return
		}
		ident := strings.ToLower(attrVal(n, "class") + " " + attrVal(n, "id"))
		matched := n.DataAtom == atom.S || n.DataAtom == atom.Del || n.DataAtom == atom.Strike
		for _, marker := range listMarkers {
			if strings.Contains(ident, marker) {
				matched = true
				break
			}
		}
		if !matched {
			return
		}
		if v, _, err := lp.ParsePrice(textContent(n)); err == nil {
			result = &v
		}
	})
	return result
}

// hasPriceClass reports whether an element's class or id is price-semantic
// without being a compare/financing context.
func hasPriceClass(n *html.Node) bool {
	ident := strings.ToLower(attrVal(n, "class") + " " + attrVal(n, "id"))
	if ident == " " {
		return false
	}
	for _, marker := range excludeMarkers {
		if strings.Contains(ident, marker) {
			return false
		}
	}
	for _, marker := range priceMarkers {
		if strings.Contains(ident, marker) {
			return true
		}
	}
	return false
}

func isNoise(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range noisePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// walkElements visits every element node, skipping script/style/template
// subtrees.
func walkElements(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
			return
		}
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkElements(c, visit)
	}
}

// textContent collects the visible text of a subtree.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}
