package merge

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/siblingmerge/internal/ir"
	"github.com/roach88/siblingmerge/internal/strategy"
)

// Merger merges records using a field strategy table.
// A Merger is safe for concurrent use.
type Merger struct {
	table *strategy.Table
}

// New creates a Merger. A nil table uses strategy.Default().
func New(table *strategy.Table) *Merger {
	if table == nil {
		table = strategy.Default()
	}
	return &Merger{table: table}
}

// Table returns the strategy table the merger dispatches on.
func (m *Merger) Table() *strategy.Table {
	return m.table
}

// Merge folds secondary into primary and returns a new value.
//
// isPrimary states whether the primary argument is the designated primary
// record of the sibling group. It only affects precedence_side fields: when
// false, those fields keep the secondary argument's value.
func (m *Merger) Merge(secondary, primary ir.Value, isPrimary bool) ir.Value {
	r := newRun(m.table, isPrimary)
	return r.deepMerge(secondary, primary, r.combineByIndex)
}

// MergeObjects is Merge for records.
func (m *Merger) MergeObjects(secondary, primary ir.Object, isPrimary bool) ir.Object {
	merged, ok := m.Merge(secondary, primary, isPrimary).(ir.Object)
	if !ok {
		return primary.Clone()
	}
	return merged
}

type arrayMergeFunc func(target, source ir.Array) ir.Array

// run carries per-call state. cases.Caser is not safe for concurrent use,
// so each call gets its own.
type run struct {
	table     *strategy.Table
	isPrimary bool
	lower     cases.Caser
}

func newRun(table *strategy.Table, isPrimary bool) *run {
	return &run{
		table:     table,
		isPrimary: isPrimary,
		lower:     cases.Lower(language.Und),
	}
}

// deepMerge merges source over target. Arrays on both sides go through
// arrays; an array meeting a non-array takes source.
func (r *run) deepMerge(target, source ir.Value, arrays arrayMergeFunc) ir.Value {
	if source == nil {
		return ir.Clone(target)
	}

	targetArr, targetIsArray := target.(ir.Array)
	sourceArr, sourceIsArray := source.(ir.Array)
	switch {
	case sourceIsArray && targetIsArray:
		return arrays(targetArr, sourceArr)
	case sourceIsArray != targetIsArray:
		return ir.Clone(source)
	}

	sourceObj, ok := source.(ir.Object)
	if !ok {
		return source
	}
	return r.mergeObject(target, sourceObj)
}

func (r *run) mergeObject(target ir.Value, source ir.Object) ir.Object {
	targetObj, _ := target.(ir.Object)

	out := make(ir.Object, len(targetObj)+len(source))
	for k, v := range targetObj {
		out[k] = ir.Clone(v)
	}

	for k, sv := range source {
		tv, inTarget := targetObj[k]
		if inTarget && ir.IsMergeable(sv) {
			out[k] = r.mergeField(k, tv, sv)
			continue
		}
		out[k] = ir.Clone(sv)
	}
	return out
}

// mergeField applies the field strategy for key to a value present on both
// sides, with a container on the primary side.
func (r *run) mergeField(key string, secondary, primary ir.Value) ir.Value {
	s := r.table.Lookup(key)
	switch s.Kind {
	case strategy.KindPrimaryWins:
		return ir.Clone(primary)
	case strategy.KindPrecedenceSide:
		if r.isPrimary {
			return ir.Clone(primary)
		}
		return ir.Clone(secondary)
	case strategy.KindUnionByKey:
		return r.deepMerge(secondary, primary, func(target, source ir.Array) ir.Array {
			return r.unionByKey(target, source, s.Key)
		})
	default:
		return r.deepMerge(secondary, primary, r.combineByIndex)
	}
}
