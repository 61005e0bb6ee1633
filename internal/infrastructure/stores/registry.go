package stores

import (
	"fmt"
	"sort"

	"github.com/basketly/backend/internal/domain"
)

// SelectorAll requests every registered store.
const SelectorAll = "all"

// StoreInfo is the public description of one registered retailer.
type StoreInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Registry holds the registered store collaborators and validates selectors
// before any fetch work happens.
type Registry struct {
	clients map[string]domain.StoreClient
	order   []string
}

// NewRegistry creates a registry over the given clients. Registration order
// is preserved for stable enumeration.
func NewRegistry(clients ...domain.StoreClient) *Registry {
	r := &Registry{clients: make(map[string]domain.StoreClient)}
	for _, c := range clients {
		if _, dup := r.clients[c.ID()]; dup {
			continue
		}
		r.clients[c.ID()] = c
		r.order = append(r.order, c.ID())
	}
	return r
}

// Resolve maps store selectors to clients. The "all" selector (or an empty
// list) selects every registered store. Unknown selectors are rejected with
// the enumerated list of valid ones.
func (r *Registry) Resolve(selectors []string) ([]domain.StoreClient, error) {
	if len(selectors) == 0 {
		return r.all(), nil
	}

	var clients []domain.StoreClient
	seen := make(map[string]bool)
	for _, sel := range selectors {
		if sel == SelectorAll {
			return r.all(), nil
		}
		client, ok := r.clients[sel]
		if !ok {
			return nil, fmt.Errorf("%w: %q (valid: %v)", domain.ErrUnknownStore, sel, r.ValidIDs())
		}
		if seen[sel] {
			continue
		}
		seen[sel] = true
		clients = append(clients, client)
	}
	return clients, nil
}

// ValidIDs returns the sorted list of registered store selectors.
func (r *Registry) ValidIDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	sort.Strings(ids)
	return ids
}

// List enumerates the registered stores for the public stores endpoint,
// with the "all" pseudo-store first.
func (r *Registry) List() []StoreInfo {
	infos := []StoreInfo{{ID: SelectorAll, Name: "All Stores"}}
	for _, id := range r.order {
		infos = append(infos, StoreInfo{ID: id, Name: r.clients[id].Name()})
	}
	return infos
}

func (r *Registry) all() []domain.StoreClient {
	clients := make([]domain.StoreClient, 0, len(r.order))
	for _, id := range r.order {
		clients = append(clients, r.clients[id])
	}
	return clients
}
