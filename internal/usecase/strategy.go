package usecase

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/basketly/backend/internal/domain"
)

// fallbackListName is used once the configured name pool is exhausted.
const fallbackListName = "Shopping List"

// GeneratorConfig tunes the list generator.
type GeneratorConfig struct {
	NamePool []string
	// Tier multipliers bound the balanced strategy's cheap and mid price
	// tiers relative to the mean price of the candidate pool. The 0.7/1.3
	// defaults match observed behavior; they are configuration, not law.
	CheapTierMultiplier float64
	MidTierMultiplier   float64
}

// Generator produces budget-bounded shopping lists under four strategies,
// guaranteeing that no product's identity key repeats across the lists of a
// session. The random source is injected so tests can pin name and image
// selection; access to it is serialized because gin handles requests
// concurrently.
type Generator struct {
	namePool  []string
	cheapMult float64
	midMult   float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a generator with the given tuning and random source.
func NewGenerator(config GeneratorConfig, rng *rand.Rand) *Generator {
	cheap := config.CheapTierMultiplier
	if cheap <= 0 {
		cheap = 0.7
	}
	mid := config.MidTierMultiplier
	if mid <= cheap {
		mid = 1.3
	}

	return &Generator{
		namePool:  config.NamePool,
		cheapMult: cheap,
		midMult:   mid,
		rng:       rng,
	}
}

// strategyOrder fixes the order lists are generated and returned in. Earlier
// strategies get first pick of the shared product pool.
var strategyOrder = []domain.Strategy{
	domain.StrategyCheapestFirst,
	domain.StrategyStoreVariety,
	domain.StrategyBestValue,
	domain.StrategyBalanced,
}

// Generate produces four lists from the product pool under the given budget,
// consuming the shared selection state so no identity key is selected twice
// across the four lists or across continuation calls carrying the same
// state. Products with an unusable price or a price above the budget are
// excluded before any strategy runs, so an unachievable budget yields empty
// lists rather than an error.
func (g *Generator) Generate(products []domain.ProductRecord, budget float64, state *domain.SelectionState) []domain.ShoppingList {
	affordable := filterAffordable(products, budget)

	lists := make([]domain.ShoppingList, 0, len(strategyOrder))
	for _, strategy := range strategyOrder {
		var items []domain.ProductRecord
		switch strategy {
		case domain.StrategyStoreVariety:
			items = g.selectStoreVariety(affordable, budget, state)
		case domain.StrategyBalanced:
			items = g.selectBalanced(affordable, budget, state)
		default:
			// cheapest_first and best_value are the same greedy walk of
			// the discount-prioritized order; best_value runs over
			// whatever the earlier lists left unused.
			items = g.selectGreedy(discountPrioritized(affordable), budget, state)
		}
		lists = append(lists, g.buildList(strategy, items, budget, state))
	}

	return lists
}

// filterAffordable re-checks the generator's preconditions: records with a
// +Inf price sentinel or a price above the budget can never be selected.
func filterAffordable(products []domain.ProductRecord, budget float64) []domain.ProductRecord {
	out := make([]domain.ProductRecord, 0, len(products))
	for _, p := range products {
		if !p.HasUsablePrice() || p.NumericPrice > budget {
			continue
		}
		out = append(out, p)
	}
	return out
}

// discountPrioritized returns the pool's single most important ordering:
// all discounted products before all regular ones, each group sorted by
// ascending price with stable ties. At equal price a discounted item always
// wins over a non-discounted one.
func discountPrioritized(products []domain.ProductRecord) []domain.ProductRecord {
	var discounted, regular []domain.ProductRecord
	for _, p := range products {
		if p.HasDiscount() {
			discounted = append(discounted, p)
		} else {
			regular = append(regular, p)
		}
	}

	byPrice := func(s []domain.ProductRecord) {
		sort.SliceStable(s, func(i, j int) bool {
			return s[i].NumericPrice < s[j].NumericPrice
		})
	}
	byPrice(discounted)
	byPrice(regular)

	return append(discounted, regular...)
}

// selectGreedy walks an ordered pool, accepting any unused item whose
// addition keeps the running total within budget, and marks it used.
func (g *Generator) selectGreedy(ordered []domain.ProductRecord, budget float64, state *domain.SelectionState) []domain.ProductRecord {
	var items []domain.ProductRecord
	total := 0.0

	for _, p := range ordered {
		key := p.IdentityKey()
		if state.IsUsed(key) {
			continue
		}
		if total+p.NumericPrice > budget {
			continue
		}
		state.MarkUsed(key)
		items = append(items, p)
		total += p.NumericPrice
	}

	return items
}

// selectStoreVariety makes two passes over the discount-prioritized order:
// first at most one item per distinct store, then a fill pass over the same
// order ignoring the one-per-store constraint.
func (g *Generator) selectStoreVariety(products []domain.ProductRecord, budget float64, state *domain.SelectionState) []domain.ProductRecord {
	ordered := discountPrioritized(products)

	var items []domain.ProductRecord
	total := 0.0
	storeSeen := make(map[string]bool)

	for _, p := range ordered {
		key := p.IdentityKey()
		if state.IsUsed(key) || storeSeen[p.Store] {
			continue
		}
		if total+p.NumericPrice > budget {
			continue
		}
		state.MarkUsed(key)
		storeSeen[p.Store] = true
		items = append(items, p)
		total += p.NumericPrice
	}

	for _, p := range ordered {
		key := p.IdentityKey()
		if state.IsUsed(key) {
			continue
		}
		if total+p.NumericPrice > budget {
			continue
		}
		state.MarkUsed(key)
		items = append(items, p)
		total += p.NumericPrice
	}

	return items
}

// selectBalanced tiers the unused candidates around their mean price and
// alternates between the cheap and mid tiers, falling back to whichever
// tier still has items, until neither tier can fit within the budget.
func (g *Generator) selectBalanced(products []domain.ProductRecord, budget float64, state *domain.SelectionState) []domain.ProductRecord {
	var candidates []domain.ProductRecord
	sum := 0.0
	for _, p := range products {
		if state.IsUsed(p.IdentityKey()) {
			continue
		}
		candidates = append(candidates, p)
		sum += p.NumericPrice
	}
	if len(candidates) == 0 {
		return nil
	}

	mean := sum / float64(len(candidates))
	cheapCeil := g.cheapMult * mean
	midCeil := g.midMult * mean

	var cheap, mid []domain.ProductRecord
	for _, p := range candidates {
		switch {
		case p.NumericPrice <= cheapCeil:
			cheap = append(cheap, p)
		case p.NumericPrice <= midCeil:
			mid = append(mid, p)
		}
	}

	byPrice := func(s []domain.ProductRecord) {
		sort.SliceStable(s, func(i, j int) bool {
			return s[i].NumericPrice < s[j].NumericPrice
		})
	}
	byPrice(cheap)
	byPrice(mid)

	var items []domain.ProductRecord
	total := 0.0
	fromCheap := true

	for len(cheap) > 0 || len(mid) > 0 {
		tier := &cheap
		if !fromCheap || len(cheap) == 0 {
			tier = &mid
		}
		if len(*tier) == 0 {
			tier = &cheap
		}

		p := (*tier)[0]
		if total+p.NumericPrice > budget {
			// Tiers are price-ascending, so nothing further in this
			// tier fits either.
			*tier = nil
			fromCheap = !fromCheap
			continue
		}

		*tier = (*tier)[1:]
		state.MarkUsed(p.IdentityKey())
		items = append(items, p)
		total += p.NumericPrice
		fromCheap = !fromCheap
	}

	return items
}

// buildList annotates a selected item set with its session-unique name,
// representative image, cost totals, and savings figures.
func (g *Generator) buildList(strategy domain.Strategy, items []domain.ProductRecord, budget float64, state *domain.SelectionState) domain.ShoppingList {
	total := 0.0
	savings := 0.0
	discountedCount := 0
	for _, p := range items {
		total += p.NumericPrice
		savings += p.Savings()
		if p.HasDiscount() {
			discountedCount++
		}
	}

	// Guard against float drift pushing the remaining budget to -0.00.
	remaining := budget - total
	if math.Abs(remaining) < 1e-9 {
		remaining = 0
	}

	return domain.ShoppingList{
		Name:                g.drawName(state),
		Strategy:            strategy,
		Items:               items,
		TotalCost:           total,
		RemainingBudget:     remaining,
		TotalSavings:        savings,
		DiscountedItemCount: discountedCount,
		ImageURL:            g.pickImage(items),
	}
}

// drawName draws a list name at random, without replacement within the
// session, falling back to a literal default once the pool is exhausted.
func (g *Generator) drawName(state *domain.SelectionState) string {
	var available []string
	for _, name := range g.namePool {
		if !state.UsedListNames[name] {
			available = append(available, name)
		}
	}
	if len(available) == 0 {
		return fallbackListName
	}

	g.mu.Lock()
	name := available[g.rng.Intn(len(available))]
	g.mu.Unlock()

	state.UsedListNames[name] = true
	return name
}

// pickImage chooses a representative image at random from the list's own
// items, or none when no item carries one.
func (g *Generator) pickImage(items []domain.ProductRecord) string {
	var urls []string
	for _, p := range items {
		if p.ImageURL != "" {
			urls = append(urls, p.ImageURL)
		}
	}
	if len(urls) == 0 {
		return ""
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return urls[g.rng.Intn(len(urls))]
}
