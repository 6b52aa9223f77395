package merge

import (
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/siblingmerge/internal/ir"
)

// combineByIndex merges arrays that carry no element identity.
//
// Starting from a copy of target, each source element at index i:
//   - is appended when the result has no element at i
//   - merges with target[i] when it is an object or array
//   - is appended when it is a scalar not already in target
func (r *run) combineByIndex(target, source ir.Array) ir.Array {
	out := target.Clone()
	if out == nil {
		out = make(ir.Array, 0, len(source))
	}

	for i, item := range source {
		switch {
		case i >= len(out):
			out = append(out, ir.Clone(item))
		case ir.IsMergeable(item):
			if i < len(target) {
				out[i] = r.deepMerge(target[i], item, r.combineByIndex)
			} else {
				out = append(out, ir.Clone(item))
			}
		case !ir.Contains(target, item):
			out = append(out, ir.Clone(item))
		}
	}
	return out
}

// unionByKey merges arrays of records identified by the value at keyPath.
//
// The result keeps target's order and then appends source elements whose
// key was not seen. Elements sharing a key merge recursively with the
// source (primary) element winning. Keys are compared NFC-normalized and
// lower-cased. Elements without a key are kept once per distinct value.
func (r *run) unionByKey(target, source ir.Array, keyPath string) ir.Array {
	out := make(ir.Array, 0, len(target)+len(source))
	positions := make(map[string]int, len(target)+len(source))

	add := func(elem ir.Value) {
		key, ok := r.unionKey(elem, keyPath)
		if !ok {
			if !ir.Contains(out, elem) {
				out = append(out, ir.Clone(elem))
			}
			return
		}
		if pos, seen := positions[key]; seen {
			out[pos] = r.deepMerge(out[pos], elem, r.combineByIndex)
			return
		}
		positions[key] = len(out)
		out = append(out, ir.Clone(elem))
	}

	for _, elem := range target {
		add(elem)
	}
	for _, elem := range source {
		add(elem)
	}
	return out
}

// unionKey derives the comparison key of an element. Non-string keys are
// compared by their canonical JSON with a kind prefix so that the string
// "1" and the number 1 stay distinct.
func (r *run) unionKey(elem ir.Value, keyPath string) (string, bool) {
	v, ok := ir.Lookup(elem, keyPath)
	if !ok {
		return "", false
	}

	switch val := v.(type) {
	case ir.Null:
		return "", false
	case ir.String:
		return "s:" + r.lower.String(norm.NFC.String(string(val))), true
	default:
		canonical, err := ir.MarshalCanonical(val)
		if err != nil {
			return "", false
		}
		return ir.KindOf(val) + ":" + string(canonical), true
	}
}
