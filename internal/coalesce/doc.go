// Package coalesce folds a record and its sibling records into one view.
//
// A sibling is the same logical asset observed through another platform,
// for example a warehouse table and the dbt model that produces it. The
// Coalescer cleans every candidate and merges them pairwise through the
// field strategy table, so that the designated primary record wins
// precedence conflicts. The coalesced record always keeps the identity of
// the record the caller asked for.
//
// ARCHITECTURE:
//
//	Coalescer   single record and entity envelope forms
//	Combiner    batch form; owns the visited identity set for one pass
//	Arena       records addressed by identity, sibling edges as references
//
// Sibling lists are detached before merging: every sibling's own sibling
// list is reduced to identity references. Back-references between siblings
// therefore never reach the merger, and the engine stays finite on graphs
// where A lists B and B lists A.
//
// The package performs no I/O. A Coalescer is safe for concurrent use as
// long as callers do not mutate records they have handed in.
package coalesce
