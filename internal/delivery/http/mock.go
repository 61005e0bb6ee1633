package http

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/basketly/backend/internal/domain"
)

// MockSearch serves a deterministic 25-product catalog so the frontend can
// be developed against stable pagination and discount shapes without
// hitting any retailer.
func (h *Handler) MockSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 {
		req.PerPage = 10
	}

	products := mockCatalog(req.Query)

	total := len(products)
	start := (req.Page - 1) * req.PerPage
	end := start + req.PerPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	page := products[start:end]

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"query":              req.Query,
		"store":              "all",
		"page":               req.Page,
		"perPage":            req.PerPage,
		"totalResults":       total,
		"currentPageResults": len(page),
		"hasMore":            req.Page*req.PerPage < total,
		"cached":             false,
		"products":           page,
	})
}

var mockStores = []string{"Woolworths", "Coles", "IGA", "Harris Farm Markets"}
var mockBrands = []string{"Brand A", "Brand B", "Premium", "Organic", "Home Brand", "Select", "Fresh"}
var mockCategories = []string{"Dairy", "Bakery", "Meat", "Produce", "Pantry", "Frozen", "Organic"}

// mockCatalog generates 25 price-sorted products, every third one
// discounted and every eighth out of stock.
func mockCatalog(query string) []domain.ProductRecord {
	title := titleCase(query)
	if title == "" {
		title = "Item"
	}

	products := make([]domain.ProductRecord, 0, 25)
	for i := 0; i < 25; i++ {
		store := mockStores[i%len(mockStores)]
		basePrice := 2.50 + float64(i)*0.30
		hasDiscount := i%3 == 0
		finalPrice := basePrice

		record := domain.ProductRecord{
			Title:        fmt.Sprintf("%s %s %d", mockBrands[i%len(mockBrands)], title, i+1),
			Store:        store,
			DisplayPrice: fmt.Sprintf("$%.2f", basePrice),
			InStock:      i%8 != 0,
			Brand:        mockBrands[i%len(mockBrands)],
			Category:     mockCategories[i%len(mockCategories)],
			ProductURL:   fmt.Sprintf("https://example.com/%s/product/%d", strings.ReplaceAll(strings.ToLower(store), " ", ""), i+1),
			ImageURL:     fmt.Sprintf("https://via.placeholder.com/150x150?text=%c", store[0]),
			ScrapedAt:    time.Date(2025, 7, 31, 12, 30, 0, 0, time.UTC),
		}

		if hasDiscount {
			discount := 0.20 + float64(i)*0.05
			finalPrice = basePrice - discount
			record.DiscountedPrice = fmt.Sprintf("$%.2f", finalPrice)
			record.DiscountText = fmt.Sprintf("Save $%.2f", discount)
		}
		record.NumericPrice = finalPrice
		record.UnitPrice = fmt.Sprintf("$%.2f/unit", finalPrice/2)

		products = append(products, record)
	}

	// Cheapest first, like the real search path.
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].NumericPrice < products[j].NumericPrice
	})

	return products
}

// titleCase uppercases the first letter of each word.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
