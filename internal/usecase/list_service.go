package usecase

import (
	"context"
	"log"
	"strings"

	"github.com/basketly/backend/internal/domain"
	"github.com/google/uuid"
)

// ListsResult is the outcome of one list-generation call. The used-ID and
// used-name sets are returned so the caller can persist them and request
// additional, still-disjoint lists later.
type ListsResult struct {
	SessionID               string                `json:"sessionId"`
	Lists                   []domain.ShoppingList `json:"lists"`
	UsedProductIDs          []string              `json:"usedProductIds"`
	UsedListNames           []string              `json:"usedListNames"`
	TotalProductsFound      int                   `json:"totalProductsFound"`
	AffordableProductsCount int                   `json:"affordableProductsCount"`
	Warnings                []domain.Warning      `json:"warnings,omitempty"`
}

// ListService builds budget-constrained shopping lists from the aggregated
// product catalog.
type ListService struct {
	search    *SearchService
	generator *Generator
}

// NewListService creates a list service with its dependencies.
func NewListService(search *SearchService, generator *Generator) *ListService {
	return &ListService{
		search:    search,
		generator: generator,
	}
}

// GenerateLists fetches the product pool for the search terms and produces
// four disjoint lists under a fresh session.
func (s *ListService) GenerateLists(ctx context.Context, terms []string, budget float64, storeIDs []string, maxPerStore int) (*ListsResult, error) {
	state := domain.NewSelectionState(uuid.NewString())
	return s.generate(ctx, terms, budget, storeIDs, maxPerStore, state)
}

// GenerateMoreLists produces four additional lists disjoint, by identity
// key, from everything recorded in the carried-over session state.
func (s *ListService) GenerateMoreLists(ctx context.Context, terms []string, budget float64, storeIDs []string, maxPerStore int, usedProductIDs, usedListNames []string) (*ListsResult, error) {
	state := domain.NewSelectionState(uuid.NewString())
	for _, id := range usedProductIDs {
		state.UsedProductIDs[id] = true
	}
	for _, name := range usedListNames {
		state.UsedListNames[name] = true
	}
	return s.generate(ctx, terms, budget, storeIDs, maxPerStore, state)
}

func (s *ListService) generate(ctx context.Context, terms []string, budget float64, storeIDs []string, maxPerStore int, state *domain.SelectionState) (*ListsResult, error) {
	terms = trimTerms(terms)
	if len(terms) == 0 || budget <= 0 {
		return nil, domain.ErrInvalidRequest
	}

	pool, warnings, err := s.search.FetchPool(ctx, terms, storeIDs, maxPerStore)
	if err != nil {
		return nil, err
	}

	affordable := filterAffordable(pool, budget)
	lists := s.generator.Generate(pool, budget, state)

	log.Printf("[LISTS] session=%s terms=%d pool=%d affordable=%d budget=%.2f",
		state.SessionID, len(terms), len(pool), len(affordable), budget)

	return &ListsResult{
		SessionID:               state.SessionID,
		Lists:                   lists,
		UsedProductIDs:          state.UsedProductKeys(),
		UsedListNames:           state.UsedNames(),
		TotalProductsFound:      len(pool),
		AffordableProductsCount: len(affordable),
		Warnings:                warnings,
	}, nil
}

// trimTerms drops empty and whitespace-only search terms.
func trimTerms(terms []string) []string {
	var out []string
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}
