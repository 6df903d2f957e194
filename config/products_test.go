package config

import (
	"strings"
	"testing"

	"pricewatch/models"
)

func TestParseProductsNormalizedLayout(t *testing.T) {
	doc := `
products:
  - id: gpu-rtx4070
    currency: CAD
    links:
      - https://www.canadacomputers.com/product/123
      - https://www.bestbuy.ca/en-ca/product/456
    thresholds:
      min_abs: 30
      min_pct: 0.1
  - id: headphones-hf8
    links:
      - https://store.example.org/hf8
`
	products, err := ParseProducts([]byte(doc))
	if err != nil {
		t.Fatalf("ParseProducts: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2", len(products))
	}

	gpu := products[0]
	if gpu.ID != "gpu-rtx4070" || gpu.Currency != "CAD" || len(gpu.Links) != 2 {
		t.Errorf("unexpected first product: %+v", gpu)
	}
	if gpu.Thresholds.MinAbs != 30 || gpu.Thresholds.MinPct != 0.1 {
		t.Errorf("thresholds = %+v, want {30 0.1}", gpu.Thresholds)
	}

	hf8 := products[1]
	if hf8.Thresholds != models.DefaultThresholds() {
		t.Errorf("thresholds = %+v, want defaults when omitted", hf8.Thresholds)
	}
}

func TestParseProductsMinimalLayout(t *testing.T) {
	doc := `
product:
  HF8:
    link:
      - https://retailer-a.example/hf8
      - https://retailer-b.example/hf8
  AM5-board:
    link: https://retailer-a.example/am5
`
	products, err := ParseProducts([]byte(doc))
	if err != nil {
		t.Fatalf("ParseProducts: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2", len(products))
	}

	// Map entries come back sorted by id.
	if products[0].ID != "AM5-board" || products[1].ID != "HF8" {
		t.Errorf("order = [%s %s], want sorted ids", products[0].ID, products[1].ID)
	}
	if len(products[0].Links) != 1 {
		t.Errorf("scalar link should become a one-element list: %v", products[0].Links)
	}
	if len(products[1].Links) != 2 {
		t.Errorf("HF8 links = %v, want 2 entries", products[1].Links)
	}
	if products[0].Thresholds != models.DefaultThresholds() {
		t.Errorf("thresholds = %+v, want defaults", products[0].Thresholds)
	}
}

func TestParseProductsErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"empty document", "{}", "'product' or 'products'"},
		{"missing links", "products:\n  - id: x\n", "no links configured"},
		{"empty id", "products:\n  - links: [https://a.example/x]\n", "empty id"},
		{"negative min_abs", `
products:
  - id: x
    links: [https://a.example/x]
    thresholds: {min_abs: -5, min_pct: 0.1}
`, "min_abs"},
		{"pct out of range", `
products:
  - id: x
    links: [https://a.example/x]
    thresholds: {min_abs: 5, min_pct: 1.5}
`, "min_pct"},
		{"link wrong type", "product:\n  x:\n    link: {a: b}\n", "string or a list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProducts([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
