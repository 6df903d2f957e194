package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"pricewatch/models"
)

// The products file supports two layouts.
//
// Minimal (hand-written):
//
//	product:
//	  HF8:
//	    link:
//	      - https://retailer-a/...
//	      - https://retailer-b/...
//
// Normalized (preferred):
//
//	products:
//	  - id: HF8
//	    currency: CAD
//	    links: [...]
//	    thresholds: {min_abs: 20, min_pct: 0.08}
type productsFile struct {
	Products []productEntry          `yaml:"products"`
	Product  map[string]minimalEntry `yaml:"product"`
}

type productEntry struct {
	ID         string             `yaml:"id"`
	Links      []string           `yaml:"links"`
	Currency   string             `yaml:"currency"`
	Thresholds *models.Thresholds `yaml:"thresholds"`
}

type minimalEntry struct {
	Link       stringList         `yaml:"link"`
	Currency   string             `yaml:"currency"`
	Thresholds *models.Thresholds `yaml:"thresholds"`
}

// stringList accepts either a single YAML string or a sequence of strings.
type stringList []string

func (s *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var single string
		if err := node.Decode(&single); err != nil {
			return err
		}
		*s = []string{single}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	default:
		return fmt.Errorf("link must be a string or a list of strings")
	}
}

// LoadProducts reads, normalizes and validates the products file. The core
// trusts the configs it returns, so all field validation happens here.
func LoadProducts(path string) ([]models.ProductConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read products config: %v", err)
	}
	return ParseProducts(data)
}

// ParseProducts parses a products document in either supported layout.
func ParseProducts(data []byte) ([]models.ProductConfig, error) {
	var file productsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse products config: %v", err)
	}

	var products []models.ProductConfig
	switch {
	case len(file.Products) > 0:
		for _, entry := range file.Products {
			products = append(products, normalize(entry.ID, entry.Links, entry.Currency, entry.Thresholds))
		}
	case len(file.Product) > 0:
		// Map iteration order is random; keep scans deterministic.
		ids := make([]string, 0, len(file.Product))
		for id := range file.Product {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			entry := file.Product[id]
			products = append(products, normalize(id, entry.Link, entry.Currency, entry.Thresholds))
		}
	default:
		return nil, fmt.Errorf("products config must contain a 'product' or 'products' key")
	}

	for _, p := range products {
		if err := validate(p); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func normalize(id string, links []string, currency string, th *models.Thresholds) models.ProductConfig {
	p := models.ProductConfig{
		ID:         id,
		Links:      links,
		Currency:   currency,
		Thresholds: models.DefaultThresholds(),
	}
	if th != nil {
		p.Thresholds = *th
	}
	return p
}

func validate(p models.ProductConfig) error {
	if p.ID == "" {
		return fmt.Errorf("product with empty id")
	}
	if len(p.Links) == 0 {
		return fmt.Errorf("product %s: no links configured", p.ID)
	}
	if p.Thresholds.MinAbs < 0 {
		return fmt.Errorf("product %s: min_abs must be >= 0", p.ID)
	}
	if p.Thresholds.MinPct < 0 || p.Thresholds.MinPct > 1 {
		return fmt.Errorf("product %s: min_pct must be within [0,1]", p.ID)
	}
	return nil
}
