package stores

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/basketly/backend/internal/domain"
)

// RawProduct is the loosely-shaped record a store collaborator emits before
// normalization. Pointer fields distinguish "absent" from zero values so the
// normalizer can substitute sane defaults.
type RawProduct struct {
	Title           string   `json:"title"`
	Price           string   `json:"price"`
	DiscountedPrice string   `json:"discountedPrice"`
	Discount        string   `json:"discount"`
	NumericPrice    *float64 `json:"numericPrice"`
	InStock         *bool    `json:"inStock"`
	UnitPrice       string   `json:"unitPrice"`
	ImageURL        string   `json:"imageUrl"`
	Brand           string   `json:"brand"`
	Category        string   `json:"category"`
	ProductURL      string   `json:"productUrl"`
	ScrapedAt       string   `json:"scraped_at"`
}

// Package-level compiled regex patterns for performance
var (
	priceTokenRegex = regexp.MustCompile(`\$?\d+(?:,\d{3})*\.?\d*`)
	saveAmountRegex = regexp.MustCompile(`(?i)(?:save|off|discount)\s*\$?(\d+\.?\d*)`)
	unitPriceRegex  = regexp.MustCompile(`(?i)\$?\d+\.?\d*\s*/\s*(?:kg|g|each|ea|per|l|ml)\b`)
)

// Normalize converts a source-specific raw record into the canonical
// ProductRecord shape. It tolerates missing fields and never fails: a record
// whose price cannot be parsed is emitted with a +Inf sentinel rather than
// dropped here (dropping happens later, explicitly).
func Normalize(raw RawProduct, store string) domain.ProductRecord {
	record := domain.ProductRecord{
		Title:           strings.TrimSpace(raw.Title),
		Store:           store,
		DisplayPrice:    strings.TrimSpace(raw.Price),
		DiscountedPrice: strings.TrimSpace(raw.DiscountedPrice),
		DiscountText:    strings.TrimSpace(raw.Discount),
		UnitPrice:       strings.TrimSpace(raw.UnitPrice),
		ImageURL:        raw.ImageURL,
		Brand:           strings.TrimSpace(raw.Brand),
		Category:        strings.TrimSpace(raw.Category),
		ProductURL:      raw.ProductURL,
		InStock:         true,
	}

	if raw.InStock != nil {
		record.InStock = *raw.InStock
	}

	record.ScrapedAt = parseScrapedAt(raw.ScrapedAt)

	// Trust an explicit numeric price from the source when present and sane.
	if raw.NumericPrice != nil && *raw.NumericPrice > 0 {
		record.NumericPrice = *raw.NumericPrice
		return record
	}

	current, original := parsePriceField(priceSource(raw))
	if current == 0 {
		record.NumericPrice = math.Inf(1)
		return record
	}

	record.NumericPrice = current

	// A was/now pair with no explicit discount info gets one synthesized
	// from the difference.
	if original > current {
		if domain.ParseDisplayPrice(record.DisplayPrice) != original {
			record.DisplayPrice = fmt.Sprintf("$%.2f", original)
		}
		if record.DiscountedPrice == "" {
			record.DiscountedPrice = fmt.Sprintf("$%.2f", current)
		}
		if record.DiscountText == "" {
			record.DiscountText = fmt.Sprintf("Save $%.2f", original-current)
		}
	}

	return record
}

// priceSource picks the most specific price string the source provided.
func priceSource(raw RawProduct) string {
	if raw.DiscountedPrice != "" {
		if raw.Price != "" && raw.Price != raw.DiscountedPrice {
			return raw.Price + " " + raw.DiscountedPrice
		}
		return raw.DiscountedPrice
	}
	return raw.Price
}

// parsePriceField extracts the current and pre-discount price from a price
// string. When multiple numeric tokens exist (was/now combinations like
// "Save $2.00 $8.99 ea $17.98 / kg"), the lowest non-unit token is the
// current price and the highest is treated as the pre-discount price.
// Returns (0, 0) when nothing parseable is present.
func parsePriceField(s string) (current, original float64) {
	if s == "" {
		return 0, 0
	}

	cleaned := strings.Join(strings.Fields(s), " ")

	// The save amount is a delta, not a price token.
	var save float64
	if m := saveAmountRegex.FindStringSubmatch(cleaned); m != nil {
		save, _ = strconv.ParseFloat(m[1], 64)
		cleaned = saveAmountRegex.ReplaceAllString(cleaned, "")
	}

	// Drop unit-price fragments ("$17.98 / kg") so they are not mistaken
	// for a pre-discount price.
	cleaned = unitPriceRegex.ReplaceAllString(cleaned, "")

	tokens := priceTokenRegex.FindAllString(cleaned, -1)
	values := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.NewReplacer("$", "", ",", "").Replace(tok)
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil || v <= 0 {
			continue
		}
		values = append(values, v)
	}

	if len(values) == 0 {
		return 0, 0
	}

	sort.Float64s(values)
	current = values[0]
	if len(values) > 1 {
		original = values[len(values)-1]
	}
	if original == 0 && save > 0 {
		original = current + save
	}
	return current, original
}

// parseScrapedAt parses the source timestamp, substituting now when the
// source does not report one.
func parseScrapedAt(s string) time.Time {
	if s == "" {
		return time.Now().UTC()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Now().UTC()
}
