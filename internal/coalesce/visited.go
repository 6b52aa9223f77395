package coalesce

import "sync"

// VisitedSet tracks the identities already folded into an emitted group
// during one batch pass. Two siblings that both appear in a result page
// would otherwise each produce their own coalesced row.
//
// The set lives for one pass only; a fresh Combiner starts empty.
type VisitedSet struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewVisitedSet creates an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[string]bool)}
}

// Seen reports whether id has been recorded. The empty identity is never
// seen.
func (v *VisitedSet) Seen(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.seen[id]
}

// Record marks ids as visited. Empty identities are ignored.
func (v *VisitedSet) Record(ids ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, id := range ids {
		if id != "" {
			v.seen[id] = true
		}
	}
}

// Len returns the number of recorded identities.
func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}
