package domain

import "context"

// ProductCache defines the interface for the shared search-result cache.
// Entries are replaced wholesale, never partially updated; implementations
// must be safe under arbitrarily many concurrent readers and writers.
type ProductCache interface {
	Get(ctx context.Context, key string) ([]ProductRecord, bool)
	Set(ctx context.Context, key string, products []ProductRecord)
	Clear(ctx context.Context) int
	Size() int
}

// StoreClient defines the interface for one retailer collaborator. Search
// returns at most maxResults raw records; failures are the caller's to
// convert into warnings.
type StoreClient interface {
	ID() string
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]ProductRecord, error)
}

// Fetcher produces the aggregated product set for a set of search terms,
// annotated with per-store warnings for partial failures.
type Fetcher interface {
	FetchAll(ctx context.Context, terms []string, storeIDs []string, maxPerStore int) ([]ProductRecord, []Warning, error)
}
