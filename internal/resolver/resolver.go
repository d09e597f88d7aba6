// Package resolver turns equipment and customer ids referenced by rental
// rows into display names without redundant upstream calls.
package resolver

import (
	"context"
	"fmt"
	"sync"

	"github.com/flottenwerk/konsole/internal/fleetapi"
)

// customerListLimit bounds the customer-list fetch used for name scans.
const customerListLimit = 500

// Resolver memoizes id → name lookups against the fleet API. Results live
// for the Resolver's lifetime; the console never invalidates them because a
// name change upstream is cosmetic and rare.
//
// Equipment resolution issues at most one GET per distinct id. Customer
// resolution re-fetches the bounded customer list on the first unseen id and
// memoizes only the hit; an id with no match falls back to a synthesized
// label and is looked up again next time.
type Resolver struct {
	client *fleetapi.Client

	mu        sync.Mutex
	equipment map[int64]string
	customers map[int64]string
}

// New creates a Resolver backed by client.
func New(client *fleetapi.Client) *Resolver {
	return &Resolver{
		client:    client,
		equipment: make(map[int64]string),
		customers: make(map[int64]string),
	}
}

// EquipmentName resolves an equipment id to its name.
func (r *Resolver) EquipmentName(ctx context.Context, id int64) (string, error) {
	r.mu.Lock()
	if name, ok := r.equipment[id]; ok {
		r.mu.Unlock()
		return name, nil
	}
	r.mu.Unlock()

	g, err := r.client.GetEquipment(ctx, id)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.equipment[id] = g.Name
	r.mu.Unlock()
	return g.Name, nil
}

// CustomerName resolves a customer id to its name. When the id appears
// nowhere in the customer list the synthesized label "Kunde {id}" is
// returned with no error.
func (r *Resolver) CustomerName(ctx context.Context, id int64) (string, error) {
	r.mu.Lock()
	if name, ok := r.customers[id]; ok {
		r.mu.Unlock()
		return name, nil
	}
	r.mu.Unlock()

	customers, err := r.client.ListCustomers(ctx, customerListLimit)
	if err != nil {
		return "", err
	}
	for _, k := range customers {
		if k.ID == id {
			r.mu.Lock()
			r.customers[id] = k.Name
			r.mu.Unlock()
			return k.Name, nil
		}
	}
	return fmt.Sprintf("Kunde %d", id), nil
}

// CacheSizes reports the number of memoized equipment and customer names,
// for the metrics collector.
func (r *Resolver) CacheSizes() (equipment, customers int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.equipment), len(r.customers)
}
