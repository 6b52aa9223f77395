package clean

import (
	"reflect"

	"github.com/roach88/siblingmerge/internal/ir"
)

func objectKey(obj ir.Object) (visitKey, bool) {
	if obj == nil {
		return visitKey{}, false
	}
	return visitKey{kind: 'o', ptr: reflect.ValueOf(obj).Pointer()}, true
}

// arrayKey uses the address of the first element; zero-length arrays hold
// nothing to recurse into and need no tracking.
func arrayKey(arr ir.Array) (visitKey, bool) {
	if len(arr) == 0 {
		return visitKey{}, false
	}
	return visitKey{kind: 'a', ptr: reflect.ValueOf(arr).Pointer(), len: len(arr)}, true
}
