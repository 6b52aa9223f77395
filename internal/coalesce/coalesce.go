package coalesce

import (
	"log/slog"

	"github.com/roach88/siblingmerge/internal/clean"
	"github.com/roach88/siblingmerge/internal/ir"
	"github.com/roach88/siblingmerge/internal/merge"
	"github.com/roach88/siblingmerge/internal/strategy"
)

// Resolver materialises sibling references that carry only an identity.
// Implemented by Arena.
type Resolver interface {
	Resolve(id string) (ir.Object, bool)
}

// Coalescer folds records with their siblings.
type Coalescer struct {
	merger        *merge.Merger
	cleaner       *clean.Cleaner
	identityField string
	logger        *slog.Logger
	resolver      Resolver
}

// Option configures a Coalescer.
type Option func(*Coalescer)

// WithTable sets the field strategy table. Default: strategy.Default().
func WithTable(t *strategy.Table) Option {
	return func(c *Coalescer) {
		c.merger = merge.New(t)
	}
}

// WithIdentityField sets the field holding a record's identity.
// Default: "urn".
func WithIdentityField(field string) Option {
	return func(c *Coalescer) {
		if field != "" {
			c.identityField = field
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Coalescer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithResolver sets the resolver used for identity-only sibling references.
func WithResolver(r Resolver) Option {
	return func(c *Coalescer) {
		c.resolver = r
	}
}

// New creates a Coalescer.
func New(opts ...Option) *Coalescer {
	c := &Coalescer{
		merger:        merge.New(nil),
		identityField: ir.DefaultIdentityField,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cleaner = clean.New(c.identityField)
	return c
}

// IdentityField returns the configured identity field name.
func (c *Coalescer) IdentityField() string {
	return c.identityField
}

// Table returns the strategy table the coalescer merges with.
func (c *Coalescer) Table() *strategy.Table {
	return c.merger.Table()
}

// Coalesce folds record with its siblings.
//
// A record without a sibling group, or with an empty sibling list, is
// returned unchanged. Otherwise the siblings are folded one by one starting
// from the record itself; each step cleans both sides and merges them so
// that the primary record supplies override values. The result carries the
// identity of record.
func (c *Coalescer) Coalesce(record ir.Object) ir.Object {
	sg, ok := ir.SiblingGroupOf(record)
	if !ok || len(sg.Siblings) == 0 {
		return record
	}

	siblings := c.siblings(sg)
	working := c.withSiblings(record, siblings)
	isPrimary := primary(sg.IsPrimary, siblings)

	acc := working
	for _, sib := range siblings {
		if isPrimary {
			acc = c.merger.MergeObjects(c.cleaner.Object(sib), c.cleaner.Object(acc), true)
		} else {
			acc = c.merger.MergeObjects(c.cleaner.Object(acc), c.cleaner.Object(sib), false)
		}
	}

	if id, present := record[c.identityField]; present {
		acc[c.identityField] = id
	} else {
		delete(acc, c.identityField)
	}

	c.logger.Debug("coalesced record",
		"id", ir.Identity(record, c.identityField),
		"siblings", len(siblings),
		"primary", isPrimary,
	)
	return acc
}

// IsPrimary reports whether record wins precedence within its group: it is
// marked primary, or no sibling claims to be primary. The fallback makes the
// entry point primary when nobody is marked, so the outcome depends on which
// record the caller starts from.
func (c *Coalescer) IsPrimary(record ir.Object) bool {
	sg, ok := ir.SiblingGroupOf(record)
	if !ok {
		return true
	}
	return primary(sg.IsPrimary, c.siblings(sg))
}

func primary(marked bool, siblings []ir.Object) bool {
	if marked {
		return true
	}
	for _, sib := range siblings {
		if sg, ok := ir.SiblingGroupOf(sib); ok && sg.IsPrimary {
			return false
		}
	}
	return true
}

// StripSiblings returns a copy of record with its sibling fields nulled.
func StripSiblings(record ir.Object) ir.Object {
	out := make(ir.Object, len(record)+2)
	for k, v := range record {
		out[k] = v
	}
	out[ir.FieldSiblings] = ir.Null{}
	out[ir.FieldSiblingPlatforms] = ir.Null{}
	return out
}

// CombineEntityData coalesces the record inside an entity envelope such as
// {"dataset": {...}}. The envelope key is the first key in canonical order.
// Envelopes without siblings are returned unchanged.
func (c *Coalescer) CombineEntityData(envelope ir.Object) ir.Object {
	key, inner, ok := unwrap(envelope)
	if !ok || !ir.HasSiblings(inner) {
		return envelope
	}
	return ir.Object{key: c.Coalesce(inner)}
}

// SiblingData returns the sibling group of the record inside an envelope.
func SiblingData(envelope ir.Object) (ir.Object, bool) {
	_, inner, ok := unwrap(envelope)
	if !ok {
		return nil, false
	}
	group, ok := inner[ir.FieldSiblings].(ir.Object)
	return group, ok
}

func unwrap(envelope ir.Object) (string, ir.Object, bool) {
	if len(envelope) == 0 {
		return "", nil, false
	}
	key := envelope.SortedKeys()[0]
	inner, ok := envelope[key].(ir.Object)
	return key, inner, ok
}

// siblings resolves reference-only entries and detaches every sibling's own
// sibling list down to identity references.
func (c *Coalescer) siblings(sg ir.SiblingGroup) []ir.Object {
	out := make([]ir.Object, 0, len(sg.Siblings))
	for _, sib := range sg.Siblings {
		out = append(out, c.detach(c.resolve(sib)))
	}
	return out
}

func (c *Coalescer) resolve(sib ir.Object) ir.Object {
	if c.resolver == nil || !ir.IsReference(sib, c.identityField) {
		return sib
	}
	full, ok := c.resolver.Resolve(ir.Identity(sib, c.identityField))
	if !ok {
		c.logger.Debug("unresolved sibling reference", "id", ir.Identity(sib, c.identityField))
		return sib
	}
	return full
}

func (c *Coalescer) detach(sib ir.Object) ir.Object {
	group, ok := sib[ir.FieldSiblings].(ir.Object)
	if !ok {
		return sib
	}
	list, ok := group[ir.FieldSiblings].(ir.Array)
	if !ok {
		return sib
	}

	refs := make(ir.Array, 0, len(list))
	for _, entry := range list {
		if ref := c.reference(entry); ref != nil {
			refs = append(refs, ref)
		}
	}

	detachedGroup := make(ir.Object, len(group))
	for k, v := range group {
		detachedGroup[k] = v
	}
	detachedGroup[ir.FieldSiblings] = refs

	out := make(ir.Object, len(sib))
	for k, v := range sib {
		out[k] = v
	}
	out[ir.FieldSiblings] = detachedGroup
	return out
}

func (c *Coalescer) reference(entry ir.Value) ir.Object {
	obj, ok := entry.(ir.Object)
	if !ok {
		return nil
	}
	id, ok := obj[c.identityField].(ir.String)
	if !ok {
		return nil
	}
	ref := ir.Object{c.identityField: id}
	if typ, ok := obj[ir.FieldType]; ok {
		ref[ir.FieldType] = typ
	}
	return ref
}

// withSiblings returns a shallow copy of record whose sibling list is
// replaced by the resolved, detached siblings.
func (c *Coalescer) withSiblings(record ir.Object, siblings []ir.Object) ir.Object {
	group, _ := record[ir.FieldSiblings].(ir.Object)
	newGroup := make(ir.Object, len(group))
	for k, v := range group {
		newGroup[k] = v
	}
	list := make(ir.Array, len(siblings))
	for i, sib := range siblings {
		list[i] = sib
	}
	newGroup[ir.FieldSiblings] = list

	out := make(ir.Object, len(record))
	for k, v := range record {
		out[k] = v
	}
	out[ir.FieldSiblings] = newGroup
	return out
}
