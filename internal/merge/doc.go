// Package merge deep-merges two sibling records.
//
// Merge(secondary, primary, isPrimary) folds secondary into primary: keys
// only present on one side are kept, scalars and mismatched kinds take the
// primary side, and objects merge recursively. At every depth the field
// name is looked up in a strategy.Table:
//
//   - union_by_key arrays are unioned by an element key path (tags by
//     tag.urn, owners by owner.urn, schema fields by fieldPath, ...)
//   - primary_wins fields (upstream, downstream, forms) take the primary
//     value verbatim
//   - precedence_side fields (platform, siblings) keep the designated
//     primary record's own value, chosen by isPrimary
//   - everything else deep-merges, with arrays combined by index
//
// Merging never fails and never mutates its inputs.
package merge
