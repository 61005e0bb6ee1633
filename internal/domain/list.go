package domain

// Strategy identifies one of the four budget-list selection algorithms.
type Strategy string

const (
	StrategyCheapestFirst Strategy = "cheapest_first"
	StrategyStoreVariety  Strategy = "store_variety"
	StrategyBestValue     Strategy = "best_value"
	StrategyBalanced      Strategy = "balanced"
)

// ShoppingList is one budget-bounded selection of products. TotalCost never
// exceeds the budget it was generated under, and no item's identity key
// repeats across the lists of a session.
type ShoppingList struct {
	Name                string          `json:"name"`
	Strategy            Strategy        `json:"strategy"`
	Items               []ProductRecord `json:"items"`
	TotalCost           float64         `json:"totalCost"`
	RemainingBudget     float64         `json:"remainingBudget"`
	TotalSavings        float64         `json:"totalSavings"`
	DiscountedItemCount int             `json:"discountedItemCount"`
	ImageURL            string          `json:"imageUrl,omitempty"`
}

// SelectionState carries the cross-call continuation for one list-generation
// session. It grows monotonically: identity keys and list names are added as
// lists are generated and never removed within the session. Callers may
// persist it and resubmit it to request additional, still-disjoint lists.
type SelectionState struct {
	SessionID      string          `json:"sessionId"`
	UsedProductIDs map[string]bool `json:"usedProductIds"`
	UsedListNames  map[string]bool `json:"usedListNames"`
}

// NewSelectionState returns an empty state for a fresh session.
func NewSelectionState(sessionID string) *SelectionState {
	return &SelectionState{
		SessionID:      sessionID,
		UsedProductIDs: make(map[string]bool),
		UsedListNames:  make(map[string]bool),
	}
}

// MarkUsed records an identity key as consumed for the session.
func (s *SelectionState) MarkUsed(identityKey string) {
	s.UsedProductIDs[identityKey] = true
}

// IsUsed reports whether an identity key was already selected this session.
func (s *SelectionState) IsUsed(identityKey string) bool {
	return s.UsedProductIDs[identityKey]
}

// UsedProductKeys returns the consumed identity keys as a slice, for
// serialization across continuation calls.
func (s *SelectionState) UsedProductKeys() []string {
	keys := make([]string, 0, len(s.UsedProductIDs))
	for k := range s.UsedProductIDs {
		keys = append(keys, k)
	}
	return keys
}

// UsedNames returns the consumed list names as a slice.
func (s *SelectionState) UsedNames() []string {
	names := make([]string, 0, len(s.UsedListNames))
	for n := range s.UsedListNames {
		names = append(names, n)
	}
	return names
}
