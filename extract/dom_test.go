package extract

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func parsePage(t *testing.T, page string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestExtractFromDOMPriority(t *testing.T) {
	// Attribute tier beats class tier beats visible text.
	page := `<html><body>
<meta property="product:price:amount" content="100.00">
<meta property="product:price:currency" content="cad">
<span class="price">$200.00</span>
<p>Only $300.00 today</p>
</body></html>`

	f := extractFromDOM(parsePage(t, page), NewLocaleParser("CAD"))
	if f.price != 100.00 {
		t.Errorf("price = %.2f, want 100.00 from the meta attribute tier", f.price)
	}
	if f.currency != "CAD" {
		t.Errorf("currency = %q, want CAD", f.currency)
	}
}

func TestExtractFromDOMClassTier(t *testing.T) {
	page := `<html><body>
<div class="product-info">
  <span class="current-price">$1,299.99</span>
</div>
</body></html>`

	f := extractFromDOM(parsePage(t, page), NewLocaleParser("CAD"))
	if f.price != 1299.99 {
		t.Errorf("price = %.2f, want 1299.99", f.price)
	}
	if f.currency != "USD" {
		t.Errorf("currency = %q, want USD from the $ symbol", f.currency)
	}
}

func TestExtractFromDOMSkipsFinancingText(t *testing.T) {
	page := `<html><body>
<span class="price-installment">$54.17/mo with Affirm</span>
<span class="sale-price">$649.99</span>
</body></html>`

	f := extractFromDOM(parsePage(t, page), NewLocaleParser("CAD"))
	if f.price != 649.99 {
		t.Errorf("price = %.2f, want 649.99 (financing text is noise)", f.price)
	}
}

func TestExtractFromDOMVisibleTextRequiresSymbol(t *testing.T) {
	// Without a symbol the number 42 in plain text must not become a price.
	page := `<html><body><p>Results 1 to 42 of 42</p></body></html>`
	f := extractFromDOM(parsePage(t, page), NewLocaleParser("CAD"))
	if f.price != 0 {
		t.Errorf("price = %.2f, want 0 (bare numbers in prose are not prices)", f.price)
	}

	page = `<html><body><p>Grab it for $42.00 while it lasts</p></body></html>`
	f = extractFromDOM(parsePage(t, page), NewLocaleParser("CAD"))
	if f.price != 42.00 {
		t.Errorf("price = %.2f, want 42.00 from currency-prefixed text", f.price)
	}
}

func TestExtractFromDOMIgnoresScriptText(t *testing.T) {
	page := `<html><body>
<script>var tracking = "$999.99";</script>
<span class="price">$19.99</span>
</body></html>`

	f := extractFromDOM(parsePage(t, page), NewLocaleParser("CAD"))
	if f.price != 19.99 {
		t.Errorf("price = %.2f, want 19.99 (script contents are invisible)", f.price)
	}
}

func TestExtractAvailabilityMicrodataWins(t *testing.T) {
	page := `<html><body>
<link itemprop="availability" href="https://schema.org/OutOfStock">
<button>Add to cart</button>
</body></html>`

	got := extractAvailability(parsePage(t, page))
	if got == nil || *got {
		t.Errorf("in_stock = %v, want false (microdata beats button text)", got)
	}
}

func TestExtractAvailabilityTextMarkers(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *bool
	}{
		{"out of stock text", "<p>This item is currently Out of Stock.</p>", boolPtr(false)},
		{"in stock text", "<p>In stock and ready to ship</p>", boolPtr(true)},
		{"out of stock beats add to cart", "<p>Sold out</p><button>Add to cart</button>", boolPtr(false)},
		{"no signal", "<p>A lovely widget.</p>", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractAvailability(parsePage(t, "<html><body>"+tt.body+"</body></html>"))
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("in_stock = %v, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("in_stock = nil, want %v", *tt.want)
			case tt.want != nil && got != nil && *got != *tt.want:
				t.Errorf("in_stock = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func TestExtractListPriceFromStrikeTag(t *testing.T) {
	page := `<html><body>
<del>$299.99</del>
<span class="price">$249.99</span>
</body></html>`

	got := extractListPrice(parsePage(t, page), NewLocaleParser("CAD"))
	if got == nil || *got != 299.99 {
		t.Errorf("list price = %v, want 299.99 from <del>", got)
	}
}

func boolPtr(v bool) *bool { return &v }
