// Package quality prunes assembled table records down to a curated set.
//
// Filters are registered under the flag names callers select them by. Each
// filter runs in one stage, decided by the interface it implements:
//
//   - [TableFilter] rejects a whole table
//   - [RowFilter] removes mapped rows; the rest are renumbered
//   - [SizeFilter] rejects tables left too small
//   - [ColumnFilter] drops columns other than References
//
// A [Pipeline] is built from an ordered flag list:
//
//	p, err := quality.New(quality.Default)
//	if err != nil {
//		return err
//	}
//	kept, stats := p.Curate(records)
//
// Three rules run for every flag list: a table whose References are all
// dashes is rejected, and columns holding only citation markers or headed
// by a bare number are dropped. A table must keep at least three columns,
// or two when cols_no_numeric or cols_no_ent_or_gen is selected.
//
// The no_dup flag rejects a table whose [Signature] was already seen by the
// pipeline's [SignatureSet]. Pipelines built with [WithSignatures] share one
// set.
package quality
