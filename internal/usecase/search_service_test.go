package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/basketly/backend/internal/domain"
)

// fakeCache is an always-consistent in-memory ProductCache without TTL,
// for exercising the getOrFetch contract in isolation.
type fakeCache struct {
	data map[string][]domain.ProductRecord
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]domain.ProductRecord)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]domain.ProductRecord, bool) {
	products, ok := c.data[key]
	return products, ok
}

func (c *fakeCache) Set(ctx context.Context, key string, products []domain.ProductRecord) {
	c.data[key] = products
}

func (c *fakeCache) Clear(ctx context.Context) int {
	n := len(c.data)
	c.data = make(map[string][]domain.ProductRecord)
	return n
}

func (c *fakeCache) Size() int { return len(c.data) }

// fakeFetcher counts invocations and serves a canned pool.
type fakeFetcher struct {
	calls    int
	records  []domain.ProductRecord
	warnings []domain.Warning
	err      error
}

func (f *fakeFetcher) FetchAll(ctx context.Context, terms []string, storeIDs []string, maxPerStore int) ([]domain.ProductRecord, []domain.Warning, error) {
	f.calls++
	return f.records, f.warnings, f.err
}

func catalogOf(n int) []domain.ProductRecord {
	records := make([]domain.ProductRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, product(fmt.Sprintf("Item %02d", i), "Coles", 1+float64(i)))
	}
	return records
}

func TestSearch_SecondCallHitsCache(t *testing.T) {
	fetcher := &fakeFetcher{records: catalogOf(5)}
	svc := NewSearchService(newFakeCache(), fetcher)
	ctx := context.Background()

	first, err := svc.Search(ctx, "milk", "all", 1, 10, 30)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if first.Cached {
		t.Error("first call reported cached = true")
	}
	if fetcher.calls != 1 {
		t.Fatalf("fetcher calls = %d, want 1", fetcher.calls)
	}

	second, err := svc.Search(ctx, "milk", "all", 1, 10, 30)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !second.Cached {
		t.Error("second call reported cached = false")
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher calls = %d, want 1 (cached call must not refetch)", fetcher.calls)
	}
}

func TestSearch_KeyVariesWithInputs(t *testing.T) {
	fetcher := &fakeFetcher{records: catalogOf(5)}
	svc := NewSearchService(newFakeCache(), fetcher)
	ctx := context.Background()

	// Case-insensitive query: same key.
	if _, err := svc.Search(ctx, "Milk", "all", 1, 10, 30); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Search(ctx, "  milk ", "all", 1, 10, 30); err != nil {
		t.Fatal(err)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher calls = %d, want 1 (query normalization must collide)", fetcher.calls)
	}

	// Different store selector or result bound: different key.
	if _, err := svc.Search(ctx, "milk", "coles", 1, 10, 30); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Search(ctx, "milk", "all", 1, 20, 60); err != nil {
		t.Fatal(err)
	}
	if fetcher.calls != 3 {
		t.Errorf("fetcher calls = %d, want 3", fetcher.calls)
	}
}

func TestSearch_PaginationBoundary(t *testing.T) {
	// 25 results, perPage 10: page 1 has 10 with more, page 3 has 5 without.
	fetcher := &fakeFetcher{records: catalogOf(25)}
	svc := NewSearchService(newFakeCache(), fetcher)
	ctx := context.Background()

	tests := []struct {
		page        int
		wantCount   int
		wantHasMore bool
	}{
		{1, 10, true},
		{2, 10, true},
		{3, 5, false},
		{4, 0, false},
	}

	for _, tt := range tests {
		result, err := svc.Search(ctx, "bread", "all", tt.page, 10, 100)
		if err != nil {
			t.Fatalf("page %d: error = %v", tt.page, err)
		}
		if result.TotalResults != 25 {
			t.Errorf("page %d: TotalResults = %d, want 25", tt.page, result.TotalResults)
		}
		if result.CurrentPageResults != tt.wantCount {
			t.Errorf("page %d: CurrentPageResults = %d, want %d", tt.page, result.CurrentPageResults, tt.wantCount)
		}
		if result.HasMore != tt.wantHasMore {
			t.Errorf("page %d: HasMore = %v, want %v", tt.page, result.HasMore, tt.wantHasMore)
		}
	}
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	svc := NewSearchService(newFakeCache(), &fakeFetcher{})

	_, err := svc.Search(context.Background(), "   ", "all", 1, 10, 30)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("error = %v, want ErrInvalidRequest", err)
	}
}

func TestSearch_DeduplicatesBeforeCaching(t *testing.T) {
	records := []domain.ProductRecord{
		product("Milk", "Coles", 3.50),
		product("Milk", "Coles", 3.50),
		product("Bread", "IGA", 4.20),
	}
	fetcher := &fakeFetcher{records: records}
	svc := NewSearchService(newFakeCache(), fetcher)

	result, err := svc.Search(context.Background(), "milk", "all", 1, 10, 30)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.TotalResults != 2 {
		t.Errorf("TotalResults = %d, want 2 after dedup", result.TotalResults)
	}
}

func TestClearCache_ReturnsPriorCount(t *testing.T) {
	cache := newFakeCache()
	fetcher := &fakeFetcher{records: catalogOf(3)}
	svc := NewSearchService(cache, fetcher)
	ctx := context.Background()

	if _, err := svc.Search(ctx, "milk", "all", 1, 10, 30); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Search(ctx, "bread", "all", 1, 10, 30); err != nil {
		t.Fatal(err)
	}

	if cleared := svc.ClearCache(ctx); cleared != 2 {
		t.Errorf("ClearCache() = %d, want 2", cleared)
	}
	if cache.Size() != 0 {
		t.Errorf("Size() = %d, want 0 after clear", cache.Size())
	}

	// Next search refetches.
	if _, err := svc.Search(ctx, "milk", "all", 1, 10, 30); err != nil {
		t.Fatal(err)
	}
	if fetcher.calls != 3 {
		t.Errorf("fetcher calls = %d, want 3 after clear", fetcher.calls)
	}
}

func TestFetchPool_MergesAndDedupesAcrossTerms(t *testing.T) {
	// The same record comes back for both terms; the pool keeps one copy.
	fetcher := &fakeFetcher{records: []domain.ProductRecord{
		product("Full Cream Milk", "Coles", 3.50),
	}}
	svc := NewSearchService(newFakeCache(), fetcher)

	pool, _, err := svc.FetchPool(context.Background(), []string{"milk", "full cream milk"}, nil, 30)
	if err != nil {
		t.Fatalf("FetchPool() error = %v", err)
	}
	if len(pool) != 1 {
		t.Errorf("pool size = %d, want 1 (overlapping terms deduped)", len(pool))
	}
	if fetcher.calls != 2 {
		t.Errorf("fetcher calls = %d, want 2 (one per term)", fetcher.calls)
	}
}

func TestFetchPool_AllTermsFailed(t *testing.T) {
	fetcher := &fakeFetcher{err: &domain.AggregateError{Warnings: []domain.Warning{
		{Store: "coles", Message: "status 503"},
	}}}
	svc := NewSearchService(newFakeCache(), fetcher)

	_, warnings, err := svc.FetchPool(context.Background(), []string{"milk"}, nil, 30)
	if !errors.Is(err, domain.ErrAllStoresFailed) {
		t.Fatalf("error = %v, want ErrAllStoresFailed", err)
	}
	if len(warnings) == 0 {
		t.Error("expected collaborator failure details in warnings")
	}
}
