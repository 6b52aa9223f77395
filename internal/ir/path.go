package ir

import "strings"

// Lookup resolves a dotted key path such as "tag.urn" against v.
// Returns (nil, false) when any segment is missing or traverses a non-object.
func Lookup(v Value, path string) (Value, bool) {
	cur := v
	for _, seg := range strings.Split(path, ".") {
		obj, ok := cur.(Object)
		if !ok {
			return nil, false
		}
		next, present := obj[seg]
		if !present {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// LookupString is Lookup restricted to string leaves.
func LookupString(v Value, path string) (string, bool) {
	leaf, ok := Lookup(v, path)
	if !ok {
		return "", false
	}
	s, ok := leaf.(String)
	return string(s), ok
}
