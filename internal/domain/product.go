package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ProductRecord is the canonical, price-comparable product shape that every
// store collaborator must produce. Source-specific quirks (field names,
// price formats) are handled by each store's adapter, not here.
type ProductRecord struct {
	Title           string    `json:"title"`
	Store           string    `json:"store"`
	NumericPrice    float64   `json:"numericPrice"`
	DisplayPrice    string    `json:"price"`
	DiscountedPrice string    `json:"discountedPrice,omitempty"`
	DiscountText    string    `json:"discount,omitempty"`
	InStock         bool      `json:"inStock"`
	UnitPrice       string    `json:"unitPrice,omitempty"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	Brand           string    `json:"brand,omitempty"`
	Category        string    `json:"category,omitempty"`
	ProductURL      string    `json:"productUrl,omitempty"`
	ScrapedAt       time.Time `json:"scrapedAt"`
}

// IdentityKey returns the deterministic duplicate-detection key for a record.
// Two records with the same key are the same product: only one may survive
// deduplication or appear in a generated shopping list.
func (p ProductRecord) IdentityKey() string {
	price := strconv.FormatFloat(p.NumericPrice, 'f', 2, 64)
	return strings.ToLower(p.Title) + "-" + strings.ToLower(p.Store) + "-" + price
}

// HasUsablePrice reports whether the record can participate in budget math.
// Records whose price could not be parsed carry a +Inf sentinel.
func (p ProductRecord) HasUsablePrice() bool {
	return !math.IsInf(p.NumericPrice, 1)
}

// HasDiscount reports whether the record advertises any form of discount:
// a displayed discounted price, a discount string, or a discounted price
// that differs from the display price.
func (p ProductRecord) HasDiscount() bool {
	return p.DiscountText != "" || p.DiscountedPrice != ""
}

// Savings returns the positive difference between the pre-discount and
// current price when both are determinable, zero otherwise.
func (p ProductRecord) Savings() float64 {
	if !p.HasUsablePrice() || !p.HasDiscount() {
		return 0
	}
	original := ParseDisplayPrice(p.DisplayPrice)
	if original == 0 {
		return 0
	}
	if diff := original - p.NumericPrice; diff > 0 {
		return diff
	}
	return 0
}

// ParseDisplayPrice extracts a numeric value from a display price string
// like "$12.50". Returns 0 when no usable number is present.
func ParseDisplayPrice(s string) float64 {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v <= 0 {
		return 0
	}
	return v
}

// Warning annotates a partial fetch failure: one store collaborator failed
// while the rest of the aggregation continued with the surviving stores.
type Warning struct {
	Store   string `json:"store"`
	Message string `json:"message"`
}
