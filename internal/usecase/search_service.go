package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/basketly/backend/internal/domain"
)

// SearchResult is the paginated outcome of one product search.
type SearchResult struct {
	Products           []domain.ProductRecord `json:"products"`
	TotalResults       int                    `json:"totalResults"`
	CurrentPageResults int                    `json:"currentPageResults"`
	HasMore            bool                   `json:"hasMore"`
	Cached             bool                   `json:"cached"`
	Warnings           []domain.Warning       `json:"warnings,omitempty"`
}

// SearchService answers product searches through the shared result cache,
// falling back to the fetch orchestrator on a miss and writing the
// normalized, deduplicated set back through.
type SearchService struct {
	cache   domain.ProductCache
	fetcher domain.Fetcher
}

// NewSearchService creates a search service with its dependencies.
func NewSearchService(cache domain.ProductCache, fetcher domain.Fetcher) *SearchService {
	return &SearchService{
		cache:   cache,
		fetcher: fetcher,
	}
}

// Search runs a cache-checked search and paginates the merged catalog.
// hasMore is true exactly when page*perPage < totalResults.
func (s *SearchService) Search(ctx context.Context, query, store string, page, perPage, maxResults int) (*SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	storeIDs := []string{store}
	if store == "" {
		storeIDs = nil
	}

	products, cached, warnings, err := s.getOrFetch(ctx, query, store, storeIDs, maxResults)
	if err != nil {
		return nil, err
	}

	total := len(products)
	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	pageProducts := products[start:end]

	return &SearchResult{
		Products:           pageProducts,
		TotalResults:       total,
		CurrentPageResults: len(pageProducts),
		HasMore:            page*perPage < total,
		Cached:             cached,
		Warnings:           warnings,
	}, nil
}

// FetchPool returns the full normalized, deduplicated product pool for a set
// of search terms, merged across terms. Each term goes through the cache
// individually so overlapping sessions share fetch work.
func (s *SearchService) FetchPool(ctx context.Context, terms []string, storeIDs []string, maxPerStore int) ([]domain.ProductRecord, []domain.Warning, error) {
	var pool []domain.ProductRecord
	var warnings []domain.Warning
	failures := 0

	selector := strings.Join(storeIDs, ",")
	for _, term := range terms {
		products, _, w, err := s.getOrFetch(ctx, term, selector, storeIDs, maxPerStore)
		if err != nil {
			var agg *domain.AggregateError
			if errors.As(err, &agg) {
				failures++
				if len(w) == 0 {
					w = agg.Warnings
				}
				warnings = append(warnings, w...)
				continue
			}
			return nil, nil, err
		}
		warnings = append(warnings, w...)
		pool = append(pool, products...)
	}

	if len(terms) > 0 && failures == len(terms) {
		return nil, warnings, &domain.AggregateError{Warnings: warnings}
	}

	// Terms may overlap ("milk", "full cream milk"), so the merged pool is
	// deduplicated again before anything budgets against it.
	return Dedupe(pool), warnings, nil
}

// getOrFetch implements the cache contract: a hit within the TTL never
// invokes the fetcher; a miss fetches, normalizes/dedupes, and stores the
// result wholesale.
func (s *SearchService) getOrFetch(ctx context.Context, query, selector string, storeIDs []string, maxResults int) ([]domain.ProductRecord, bool, []domain.Warning, error) {
	key := cacheKey(query, selector, maxResults)

	if products, ok := s.cache.Get(ctx, key); ok {
		return products, true, nil, nil
	}

	records, warnings, err := s.fetcher.FetchAll(ctx, []string{query}, storeIDs, maxResults)
	if err != nil {
		return nil, false, warnings, err
	}

	products := Dedupe(records)
	s.cache.Set(ctx, key, products)
	log.Printf("[CACHE] stored %d products under %s", len(products), key)

	return products, false, warnings, nil
}

// ClearCache removes all cached search results and returns the prior count.
func (s *SearchService) ClearCache(ctx context.Context) int {
	cleared := s.cache.Clear(ctx)
	log.Printf("[CACHE] cleared %d entries", cleared)
	return cleared
}

// cacheKey derives the cache key as a pure function of the lower-cased
// query, the store selector, and the result-size bound, so identical
// logical requests collide predictably.
func cacheKey(query, selector string, maxResults int) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d", normalized, selector, maxResults)))
	return "search:" + hex.EncodeToString(sum[:16])
}
