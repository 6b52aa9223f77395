package coalesce

import (
	"github.com/roach88/siblingmerge/internal/ir"
)

// CombinedEntity is one emitted row of a batch pass.
// MatchedEntities is nil when the record had no siblings.
type CombinedEntity struct {
	Entity          ir.Object
	MatchedEntities []ir.Object
}

// Combiner coalesces a sequence of records, emitting each sibling group once.
// A Combiner is scoped to one pass; create a new one per batch.
type Combiner struct {
	coalescer *Coalescer
	visited   *VisitedSet
}

// NewCombiner creates a Combiner with an empty visited set.
func (c *Coalescer) NewCombiner() *Combiner {
	return &Combiner{
		coalescer: c,
		visited:   NewVisitedSet(),
	}
}

// Combine coalesces record unless it belongs to a group already emitted in
// this pass, in which case skipped is true.
//
// MatchedEntities lists the record stripped of its sibling fields followed
// by its siblings, or the siblings first when the record is not marked
// primary. Entries whose exists flag is false are dropped; entries without
// the flag are kept.
//
// The siblings are taken from the coalesced entity, so they are the resolved
// and cleaned records, and each sibling's own sibling list holds identity
// references rather than the records themselves.
func (cb *Combiner) Combine(record ir.Object) (combined CombinedEntity, skipped bool) {
	c := cb.coalescer
	id := ir.Identity(record, c.identityField)
	if cb.visited.Seen(id) {
		c.logger.Debug("skipped visited record", "id", id)
		return CombinedEntity{}, true
	}

	entity := c.Coalesce(record)
	combined.Entity = entity

	sg, ok := ir.SiblingGroupOf(entity)
	if !ok || len(sg.Siblings) == 0 {
		return combined, false
	}

	stripped := StripSiblings(entity)
	matched := make([]ir.Object, 0, len(sg.Siblings)+1)
	if sg.IsPrimary {
		matched = append(matched, stripped)
		matched = append(matched, sg.Siblings...)
	} else {
		matched = append(matched, sg.Siblings...)
		matched = append(matched, stripped)
	}

	combined.MatchedEntities = make([]ir.Object, 0, len(matched))
	for _, m := range matched {
		if ir.Exists(m) {
			combined.MatchedEntities = append(combined.MatchedEntities, m)
		}
	}

	ids := make([]string, 0, len(sg.Siblings)+1)
	ids = append(ids, id)
	for _, sib := range sg.Siblings {
		ids = append(ids, ir.Identity(sib, c.identityField))
	}
	cb.visited.Record(ids...)

	return combined, false
}

// Visited returns the number of identities recorded so far in this pass.
func (cb *Combiner) Visited() int {
	return cb.visited.Len()
}

// Result is one input row of a batch: a record plus caller data that is
// carried through untouched, such as match highlighting.
type Result[S any] struct {
	Entity  ir.Object
	Sidecar S
}

// CombinedResult is one output row of a batch.
type CombinedResult[S any] struct {
	CombinedEntity
	Sidecar S
}

// CoalesceMany runs one batch pass over results in order. Records already
// folded into an earlier row are omitted from the output.
func CoalesceMany[S any](c *Coalescer, results []Result[S]) []CombinedResult[S] {
	cb := c.NewCombiner()
	out := make([]CombinedResult[S], 0, len(results))
	for _, r := range results {
		combined, skipped := cb.Combine(r.Entity)
		if skipped {
			continue
		}
		out = append(out, CombinedResult[S]{
			CombinedEntity: combined,
			Sidecar:        r.Sidecar,
		})
	}
	return out
}
