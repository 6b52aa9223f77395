package strategy

import (
	"fmt"
	"slices"
	"sync"
)

// Kind selects how the merger treats a field when both sides carry it.
type Kind int

const (
	// KindDefault deep-merges objects and combines arrays by index.
	KindDefault Kind = iota
	// KindUnionByKey unions arrays of records by a declared key path.
	KindUnionByKey
	// KindPrimaryWins always takes the primary side's value.
	// Used for directional lineage edges and forms.
	KindPrimaryWins
	// KindPrecedenceSide keeps the designated primary record's own value:
	// the primary argument when the merge is primary-perspective, otherwise
	// the secondary argument.
	KindPrecedenceSide
)

var kindNames = map[Kind]string{
	KindDefault:        "default",
	KindUnionByKey:     "union_by_key",
	KindPrimaryWins:    "primary_wins",
	KindPrecedenceSide: "precedence_side",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts a configuration name into a Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindDefault, fmt.Errorf("unknown strategy kind %q", name)
}

// Strategy is the merge behaviour bound to one field name.
// Key is the dotted path used to identify elements of a KindUnionByKey field
// (e.g. "tag.urn"); it is empty for every other kind.
type Strategy struct {
	Kind Kind
	Key  string
}

// Validate checks that the strategy is internally consistent.
func (s Strategy) Validate() error {
	if _, ok := kindNames[s.Kind]; !ok {
		return fmt.Errorf("unknown strategy kind %d", int(s.Kind))
	}
	if s.Kind == KindUnionByKey && s.Key == "" {
		return fmt.Errorf("union_by_key requires a key path")
	}
	if s.Kind != KindUnionByKey && s.Key != "" {
		return fmt.Errorf("%s does not take a key path", s.Kind)
	}
	return nil
}

// UnionBy returns a KindUnionByKey strategy keyed on path.
func UnionBy(path string) Strategy {
	return Strategy{Kind: KindUnionByKey, Key: path}
}

// PrimaryWins returns a KindPrimaryWins strategy.
func PrimaryWins() Strategy {
	return Strategy{Kind: KindPrimaryWins}
}

// PrecedenceSide returns a KindPrecedenceSide strategy.
func PrecedenceSide() Strategy {
	return Strategy{Kind: KindPrecedenceSide}
}

// Table maps field names to strategies. Fields not in the table use
// KindDefault. A Table is safe for concurrent use; registration is expected
// at start-up, lookups on every merge step.
type Table struct {
	mu     sync.RWMutex
	fields map[string]Strategy
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{fields: make(map[string]Strategy)}
}

// Default returns a fresh table holding the built-in field strategies.
func Default() *Table {
	t := NewTable()
	for field, s := range builtins {
		t.fields[field] = s
	}
	return t
}

// builtins is the stock field table for metadata entities.
var builtins = map[string]Strategy{
	"tags":                    UnionBy("tag.urn"),
	"terms":                   UnionBy("term.urn"),
	"assertions":              UnionBy("urn"),
	"customProperties":        UnionBy("key"),
	"owners":                  UnionBy("owner.urn"),
	"fields":                  UnionBy("fieldPath"),
	"editableSchemaFieldInfo": UnionBy("fieldPath"),
	"upstream":                PrimaryWins(),
	"downstream":              PrimaryWins(),
	"forms":                   PrimaryWins(),
	"platform":                PrecedenceSide(),
	"siblings":                PrecedenceSide(),
}

// Register binds a strategy to a field, replacing any previous binding.
func (t *Table) Register(field string, s Strategy) error {
	if field == "" {
		return fmt.Errorf("register: empty field name")
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("register %q: %w", field, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.fields[field] = s
	return nil
}

// Unregister removes a field binding so the field falls back to KindDefault.
func (t *Table) Unregister(field string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.fields, field)
}

// Lookup returns the strategy for field, or the default strategy.
func (t *Table) Lookup(field string) Strategy {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.fields[field]; ok {
		return s
	}
	return Strategy{Kind: KindDefault}
}

// Fields returns the registered field names in sorted order.
func (t *Table) Fields() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.fields))
	for name := range t.fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c := NewTable()
	for field, s := range t.fields {
		c.fields[field] = s
	}
	return c
}

// replace swaps in the bindings of other.
func (t *Table) replace(other *Table) {
	fields := other.Clone().fields
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fields = fields
}

// Entry is one row of a table listing.
type Entry struct {
	Field string `json:"field"`
	Kind  string `json:"kind"`
	Key   string `json:"key,omitempty"`
}

// Entries lists the table rows sorted by field name.
func (t *Table) Entries() []Entry {
	fields := t.Fields()
	entries := make([]Entry, 0, len(fields))
	for _, f := range fields {
		s := t.Lookup(f)
		entries = append(entries, Entry{Field: f, Kind: s.Kind.String(), Key: s.Key})
	}
	return entries
}
