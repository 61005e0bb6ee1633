package usecase

import (
	"sort"

	"github.com/basketly/backend/internal/domain"
)

// Dedupe collapses records sharing an identity key, keeping the first
// occurrence in arrival order with no field merging, then sorts the
// survivors by ascending price. The sort is stable so ties keep arrival
// order and identical inputs always produce identical output.
func Dedupe(records []domain.ProductRecord) []domain.ProductRecord {
	seen := make(map[string]bool, len(records))
	survivors := make([]domain.ProductRecord, 0, len(records))

	for _, record := range records {
		key := record.IdentityKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		survivors = append(survivors, record)
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].NumericPrice < survivors[j].NumericPrice
	})

	return survivors
}
