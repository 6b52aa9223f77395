package testutil

import "github.com/roach88/siblingmerge/internal/ir"

// Dataset builds a dataset record with the given urn, platform name, and
// extra fields.
//
//	testutil.Dataset("urn:li:dataset:x", "snowflake", ir.O("exists", ir.Bool(true)))
func Dataset(urn, platform string, fields ...ir.Pair) ir.Object {
	rec := ir.Object{
		ir.FieldURN:  ir.String(urn),
		ir.FieldType: ir.String("DATASET"),
	}
	if platform != "" {
		rec["platform"] = ir.Object{"name": ir.String(platform)}
	}
	for _, f := range fields {
		rec[f.Key] = f.Value
	}
	return rec
}

// Siblings builds a "siblings" field value.
func Siblings(isPrimary bool, siblings ...ir.Object) ir.Pair {
	list := make(ir.Array, len(siblings))
	for i, s := range siblings {
		list[i] = s
	}
	return ir.O(ir.FieldSiblings, ir.Object{
		ir.FieldIsPrimary: ir.Bool(isPrimary),
		ir.FieldSiblings:  list,
	})
}

// Ref builds an identity-only sibling reference.
func Ref(urn string) ir.Object {
	return ir.Object{ir.FieldURN: ir.String(urn)}
}

// Tags builds a "globalTags" field value holding the given tag urns.
func Tags(urns ...string) ir.Pair {
	return ir.O("globalTags", ir.Object{"tags": tagList(urns)})
}

// TagURNs extracts tag urns from a record's globalTags field in order.
func TagURNs(rec ir.Object) []string {
	arr, ok := ir.Lookup(rec, "globalTags.tags")
	if !ok {
		return nil
	}
	list, ok := arr.(ir.Array)
	if !ok {
		return nil
	}
	urns := make([]string, 0, len(list))
	for _, elem := range list {
		if urn, ok := ir.LookupString(elem, "tag.urn"); ok {
			urns = append(urns, urn)
		}
	}
	return urns
}

// Upstream builds an "upstream" lineage field pointing at the given urns.
func Upstream(urns ...string) ir.Pair {
	rels := make(ir.Array, len(urns))
	for i, u := range urns {
		rels[i] = ir.Object{"entity": ir.Object{ir.FieldURN: ir.String(u)}}
	}
	return ir.O("upstream", ir.Object{"relationships": rels})
}

func tagList(urns []string) ir.Array {
	list := make(ir.Array, len(urns))
	for i, u := range urns {
		list[i] = ir.Object{"tag": ir.Object{ir.FieldURN: ir.String(u)}}
	}
	return list
}
