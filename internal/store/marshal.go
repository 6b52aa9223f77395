package store

import (
	"fmt"

	"github.com/roach88/siblingmerge/internal/ir"
)

// marshalRecord converts a record to canonical JSON TEXT for storage.
func marshalRecord(obj ir.Object) (string, error) {
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	return string(data), nil
}

// unmarshalRecord parses canonical JSON TEXT into a record.
// Integers above 2^53 survive because ir decodes with json.Number.
func unmarshalRecord(data string) (ir.Object, error) {
	if data == "" || data == "{}" {
		return ir.Object{}, nil
	}
	v, err := ir.UnmarshalValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	obj, ok := v.(ir.Object)
	if !ok {
		return nil, fmt.Errorf("unmarshal record: expected object, got %s", ir.KindOf(v))
	}
	return obj, nil
}

// marshalRecords stores a list of records as one canonical JSON array.
func marshalRecords(objs []ir.Object) (string, error) {
	arr := make(ir.Array, len(objs))
	for i, o := range objs {
		arr[i] = o
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal records: %w", err)
	}
	return string(data), nil
}

// unmarshalRecords parses a canonical JSON array of records. A JSON null
// decodes to nil, matching a row that had no matched records.
func unmarshalRecords(data string) ([]ir.Object, error) {
	v, err := ir.UnmarshalValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal records: %w", err)
	}
	switch val := v.(type) {
	case ir.Null:
		return nil, nil
	case ir.Array:
		out := make([]ir.Object, 0, len(val))
		for i, elem := range val {
			obj, ok := elem.(ir.Object)
			if !ok {
				return nil, fmt.Errorf("unmarshal records: [%d] is %s, not object", i, ir.KindOf(elem))
			}
			out = append(out, obj)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unmarshal records: expected array, got %s", ir.KindOf(v))
	}
}
