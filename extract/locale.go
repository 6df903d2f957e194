package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// currencySymbols maps the symbols the text patterns capture onto ISO codes.
var currencySymbols = map[string]string{
	"$": "USD",
	"£": "GBP",
	"€": "EUR",
}

// LocaleParser turns price-like text from various regions into float64 values.
// The ordering of its patterns is derived from the currency fallback of the
// product being scanned: a EUR fallback implies comma-decimal formats.
type LocaleParser struct {
	patterns []localePattern
}

type localePattern struct {
	name string
	re   *regexp.Regexp
}

var (
	// US/UK: $1,234.56, £1,234.56 or separator-less $1234.56 (symbol optional)
	usUKPattern = localePattern{"us_uk", regexp.MustCompile(`(\$|£|€)?\s*([0-9]{1,3}(?:,[0-9]{3})+(?:\.[0-9]{1,2})?|[0-9]+(?:\.[0-9]{1,2})?)`)}

	// European: €1.234,56, €1 234,56 or separator-less €1234,56 (symbol optional)
	europeanPattern = localePattern{"european", regexp.MustCompile(`(\$|£|€)?\s*([0-9]{1,3}(?:[.\x{00a0} ][0-9]{3})+(?:,[0-9]{1,2})?|[0-9]+(?:,[0-9]{1,2})?)`)}

	// Bare decimal: 1234.56 or 1234,56
	simplePattern = localePattern{"simple", regexp.MustCompile(`()([0-9]+(?:[.,][0-9]{1,2})?)`)}
)

// NewLocaleParser builds a parser whose pattern priority matches the number
// formats implied by the given currency fallback.
func NewLocaleParser(currencyFallback string) *LocaleParser {
	switch strings.ToUpper(currencyFallback) {
	case "EUR":
		return &LocaleParser{patterns: []localePattern{europeanPattern, usUKPattern, simplePattern}}
	default:
		return &LocaleParser{patterns: []localePattern{usUKPattern, europeanPattern, simplePattern}}
	}
}

// ParsePrice extracts the first price-like token from text. The returned
// currency code is empty when no symbol was present.
func (lp *LocaleParser) ParsePrice(text string) (float64, string, error) {
	text = strings.TrimSpace(text)

	for _, pattern := range lp.patterns {
		matches := pattern.re.FindStringSubmatch(text)
		if matches == nil {
			continue
		}
		currency := currencySymbols[matches[1]]
		clean := cleanNumber(matches[2], pattern.name)
		value, err := strconv.ParseFloat(clean, 64)
		if err != nil || value <= 0 {
			continue
		}
		return value, currency, nil
	}

	return 0, "", fmt.Errorf("no price pattern found in %q", text)
}

// ParseCurrencyPrice is like ParsePrice but only accepts tokens carrying an
// explicit currency symbol. Used for the last-resort visible-text tier, where
// bare numbers are too noisy to trust.
func (lp *LocaleParser) ParseCurrencyPrice(text string) (float64, string, error) {
	for _, pattern := range lp.patterns {
		for _, matches := range pattern.re.FindAllStringSubmatch(text, -1) {
			if matches[1] == "" {
				continue
			}
			clean := cleanNumber(matches[2], pattern.name)
			value, err := strconv.ParseFloat(clean, 64)
			if err != nil || value <= 0 {
				continue
			}
			return value, currencySymbols[matches[1]], nil
		}
	}

	return 0, "", fmt.Errorf("no currency-prefixed price found in %q", text)
}

// cleanNumber converts locale-specific number formats to standard decimal.
func cleanNumber(numberStr, locale string) string {
	switch locale {
	case "us_uk":
		// 1,234.56 -> 1234.56
		return strings.ReplaceAll(numberStr, ",", "")

	case "european":
		// 1.234,56 or 1 234,56 -> 1234.56
		s := strings.ReplaceAll(numberStr, ".", "")
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, " ", "")
		return strings.ReplaceAll(s, ",", ".")

	case "simple":
		// Lone comma is a decimal separator: 1234,56 -> 1234.56
		if strings.Contains(numberStr, ",") && !strings.Contains(numberStr, ".") {
			return strings.ReplaceAll(numberStr, ",", ".")
		}
		return numberStr

	default:
		return numberStr
	}
}

// parseNumeric handles machine-readable price values (JSON-LD, meta content
// attributes): plain decimals with optional thousands commas.
func parseNumeric(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$£€ ")
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}
