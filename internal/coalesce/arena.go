package coalesce

import (
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/siblingmerge/internal/ir"
)

// Arena holds records addressed by identity. Sibling relationships are kept
// as undirected edges between identities rather than as nested records, so
// a group can be walked without following object references.
type Arena struct {
	mu            sync.RWMutex
	identityField string
	records       map[string]ir.Object
	edges         map[string]map[string]bool
	order         []string
}

// NewArena creates an empty arena keyed by identityField ("" means "urn").
func NewArena(identityField string) *Arena {
	if identityField == "" {
		identityField = ir.DefaultIdentityField
	}
	return &Arena{
		identityField: identityField,
		records:       make(map[string]ir.Object),
		edges:         make(map[string]map[string]bool),
	}
}

// Add stores record, replacing any record with the same identity, and links
// it to every sibling its sibling list names. An identity-only reference
// never replaces a record the arena already holds. Siblings listed as full
// records are stored too unless the arena already holds them.
func (a *Arena) Add(record ir.Object) error {
	id := ir.Identity(record, a.identityField)
	if id == "" {
		return fmt.Errorf("arena: record has no %q identity", a.identityField)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, known := a.records[id]; !known || !ir.IsReference(record, a.identityField) {
		a.put(id, record)
	}

	sg, ok := ir.SiblingGroupOf(record)
	if !ok {
		return nil
	}
	for _, sib := range sg.Siblings {
		sibID := ir.Identity(sib, a.identityField)
		if sibID == "" || sibID == id {
			continue
		}
		if _, known := a.records[sibID]; !known && !ir.IsReference(sib, a.identityField) {
			a.put(sibID, sib)
		}
		a.link(id, sibID)
	}
	return nil
}

// Link records an undirected sibling edge between two identities.
func (a *Arena) Link(id, other string) {
	if id == "" || other == "" || id == other {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.link(id, other)
}

func (a *Arena) put(id string, record ir.Object) {
	if _, exists := a.records[id]; !exists {
		a.order = append(a.order, id)
	}
	a.records[id] = record
}

func (a *Arena) link(x, y string) {
	if a.edges[x] == nil {
		a.edges[x] = make(map[string]bool)
	}
	if a.edges[y] == nil {
		a.edges[y] = make(map[string]bool)
	}
	a.edges[x][y] = true
	a.edges[y][x] = true
}

// Get returns the record stored under id.
func (a *Arena) Get(id string) (ir.Object, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	rec, ok := a.records[id]
	return rec, ok
}

// Resolve implements Resolver.
func (a *Arena) Resolve(id string) (ir.Object, bool) {
	return a.Get(id)
}

// Siblings returns the direct sibling identities of id in sorted order.
func (a *Arena) Siblings(id string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.neighbours(id)
}

func (a *Arena) neighbours(id string) []string {
	out := make([]string, 0, len(a.edges[id]))
	for other := range a.edges[id] {
		out = append(out, other)
	}
	slices.Sort(out)
	return out
}

// Group returns every identity reachable from id through sibling edges,
// starting with id itself, in breadth-first order with sorted neighbours.
// Each identity is visited once, so cyclic groups terminate.
func (a *Arena) Group(id string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	visited := map[string]bool{id: true}
	group := []string{id}
	for i := 0; i < len(group); i++ {
		for _, next := range a.neighbours(group[i]) {
			if visited[next] {
				continue
			}
			visited[next] = true
			group = append(group, next)
		}
	}
	return group
}

// IDs returns stored identities in insertion order.
func (a *Arena) IDs() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.order)
}

// Len returns the number of stored records.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.records)
}

// Assemble returns the record stored under id with its sibling list
// replaced by references to every other member of its group. The sibling
// group's primary flag is kept from the stored record.
func (a *Arena) Assemble(id string) (ir.Object, bool) {
	rec, ok := a.Get(id)
	if !ok {
		return nil, false
	}
	members := a.Group(id)[1:]
	if len(members) == 0 {
		return rec, true
	}

	refs := make(ir.Array, 0, len(members))
	for _, m := range members {
		refs = append(refs, ir.Object{a.identityField: ir.String(m)})
	}

	group := ir.Object{}
	if existing, ok := rec[ir.FieldSiblings].(ir.Object); ok {
		for k, v := range existing {
			group[k] = v
		}
	}
	group[ir.FieldSiblings] = refs

	out := make(ir.Object, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	out[ir.FieldSiblings] = group
	return out, true
}
