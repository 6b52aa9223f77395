// Package clean strips empty values from record graphs.
//
// A value is empty when it is null, undefined, an empty string, an empty
// object, or an empty array. Cleaning is post-order: containers are cleaned
// first and then judged, so an object that only held empty values is itself
// removed from its parent.
package clean

import "github.com/roach88/siblingmerge/internal/ir"

// visitKey identifies a container by the address of its backing storage.
// Go maps and slices can reference themselves, so the cleaner tracks which
// containers it has already entered.
type visitKey struct {
	kind byte
	ptr  uintptr
	len  int
}

type cleaner struct {
	identityField string
	// done holds the cleaned copy of every container already finished, so a
	// container shared by two parents is cleaned once.
	done map[visitKey]ir.Value
	// active holds containers on the current recursion path.
	active map[visitKey]bool
}

// Cleaner removes empty values. Its identity field names the key used to
// cut cycles.
type Cleaner struct {
	identityField string
}

// New creates a Cleaner that cuts cycles at records identified by
// identityField. An empty field means ir.DefaultIdentityField.
func New(identityField string) *Cleaner {
	if identityField == "" {
		identityField = ir.DefaultIdentityField
	}
	return &Cleaner{identityField: identityField}
}

// Clean returns a copy of v with empty values removed at every depth.
// The input is never mutated and the result is always acyclic: a container
// reached again while it is still being cleaned is not re-traversed. A record
// on such a back-edge becomes an identity reference ({id[, type]}); any other
// back-edge is dropped.
func (cl *Cleaner) Clean(v ir.Value) ir.Value {
	c := &cleaner{
		identityField: cl.identityField,
		done:          make(map[visitKey]ir.Value),
		active:        make(map[visitKey]bool),
	}
	return c.clean(v)
}

// Object cleans a record. A nil record stays nil.
func (cl *Cleaner) Object(obj ir.Object) ir.Object {
	if obj == nil {
		return nil
	}
	out, _ := cl.Clean(obj).(ir.Object)
	return out
}

// Clean cleans v, cutting cycles at the default identity field.
func Clean(v ir.Value) ir.Value {
	return New("").Clean(v)
}

// Object cleans a record, cutting cycles at the default identity field.
func Object(obj ir.Object) ir.Object {
	return New("").Object(obj)
}

func (c *cleaner) clean(v ir.Value) ir.Value {
	switch val := v.(type) {
	case ir.Object:
		key, tracked := objectKey(val)
		if tracked {
			if seen, ok := c.enter(key, val); ok {
				return seen
			}
			defer delete(c.active, key)
		}

		out := make(ir.Object, len(val))
		for k, child := range val {
			cleaned := c.clean(child)
			if IsEmpty(cleaned) {
				continue
			}
			out[k] = cleaned
		}
		if tracked {
			c.done[key] = out
		}
		return out

	case ir.Array:
		key, tracked := arrayKey(val)
		if tracked {
			if seen, ok := c.enter(key, val); ok {
				return seen
			}
			defer delete(c.active, key)
		}

		out := make(ir.Array, 0, len(val))
		for _, child := range val {
			cleaned := c.clean(child)
			if IsEmpty(cleaned) {
				continue
			}
			out = append(out, cleaned)
		}
		if tracked {
			c.done[key] = out
		}
		return out

	default:
		return v
	}
}

// enter marks key as active. It returns (result, true) when the container
// was already cleaned, or (backEdge(original), true) when it is on the
// current path.
func (c *cleaner) enter(key visitKey, original ir.Value) (ir.Value, bool) {
	if out, ok := c.done[key]; ok {
		return out, true
	}
	if c.active[key] {
		return c.backEdge(original), true
	}
	c.active[key] = true
	return nil, false
}

// backEdge stands in for a container that is still being cleaned. Nil is
// empty, so the caller drops it.
func (c *cleaner) backEdge(v ir.Value) ir.Value {
	obj, ok := v.(ir.Object)
	if !ok {
		return nil
	}
	id := ir.Identity(obj, c.identityField)
	if id == "" {
		return nil
	}
	ref := ir.Object{c.identityField: ir.String(id)}
	if typ, ok := obj[ir.FieldType].(ir.String); ok && typ != "" {
		ref[ir.FieldType] = typ
	}
	return ref
}

// IsEmpty reports whether v would be removed by Clean.
// Zero numbers and false are values, not emptiness.
func IsEmpty(v ir.Value) bool {
	switch val := v.(type) {
	case nil, ir.Null:
		return true
	case ir.String:
		return val == ""
	case ir.Object:
		return len(val) == 0
	case ir.Array:
		return len(val) == 0
	}
	return false
}
