package stores

import (
	"context"
	"log"
	"time"

	"github.com/basketly/backend/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Orchestrator fans search terms out to the selected store collaborators
// with bounded parallelism and fans the results back in. Per-store failures
// become warnings; the output is best effort, annotated.
type Orchestrator struct {
	registry        *Registry
	concurrency     int
	perStoreTimeout time.Duration
}

// NewOrchestrator creates an orchestrator. concurrency caps how many
// (term, store) fetches run at once so a request with many search terms
// cannot fan out unboundedly.
func NewOrchestrator(registry *Registry, concurrency int, perStoreTimeout time.Duration) *Orchestrator {
	if concurrency <= 0 {
		concurrency = 8
	}
	if perStoreTimeout <= 0 {
		perStoreTimeout = 60 * time.Second
	}
	return &Orchestrator{
		registry:        registry,
		concurrency:     concurrency,
		perStoreTimeout: perStoreTimeout,
	}
}

// FetchAll issues one logical request per (search term, selected store) and
// aggregates the results. It returns domain.ErrUnknownStore for a bad
// selector before any fetch happens, and domain.ErrAllStoresFailed when
// every attempted fetch failed. Empty terms yield an empty result with no
// warnings.
func (o *Orchestrator) FetchAll(ctx context.Context, terms []string, storeIDs []string, maxPerStore int) ([]domain.ProductRecord, []domain.Warning, error) {
	clients, err := o.registry.Resolve(storeIDs)
	if err != nil {
		return nil, nil, err
	}

	if len(terms) == 0 {
		return []domain.ProductRecord{}, nil, nil
	}

	type fetchResult struct {
		records []domain.ProductRecord
		warning *domain.Warning
	}

	results := make([]fetchResult, len(terms)*len(clients))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for ti, term := range terms {
		for ci, client := range clients {
			slot := ti*len(clients) + ci
			term, client := term, client

			g.Go(func() error {
				fetchCtx, cancel := context.WithTimeout(gctx, o.perStoreTimeout)
				defer cancel()

				records, err := client.Search(fetchCtx, term, maxPerStore)
				if err != nil {
					// A slow or broken collaborator never aborts the
					// whole call. Record it and move on.
					log.Printf("[FETCH] %s failed for %q: %v", client.ID(), term, err)
					results[slot] = fetchResult{warning: &domain.Warning{
						Store:   client.ID(),
						Message: err.Error(),
					}}
					return nil
				}

				if len(records) > maxPerStore {
					records = records[:maxPerStore]
				}
				results[slot] = fetchResult{records: records}
				return nil
			})
		}
	}

	// Workers never return errors, so Wait only fails on context
	// cancellation of the parent.
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var records []domain.ProductRecord
	var warnings []domain.Warning
	failed := 0
	for _, res := range results {
		if res.warning != nil {
			warnings = append(warnings, *res.warning)
			failed++
			continue
		}
		records = append(records, res.records...)
	}

	if failed == len(results) {
		return nil, warnings, &domain.AggregateError{Warnings: DedupeWarnings(warnings)}
	}

	return records, warnings, nil
}

// DedupeWarnings collapses repeated warnings for the same store across
// multiple search terms down to the first entry per store, preserving order.
func DedupeWarnings(warnings []domain.Warning) []domain.Warning {
	seen := make(map[string]bool)
	var out []domain.Warning
	for _, w := range warnings {
		if seen[w.Store] {
			continue
		}
		seen[w.Store] = true
		out = append(out, w)
	}
	return out
}
