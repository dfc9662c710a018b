// Package tables rebuilds rectangular tables from parsed table markup.
//
// Markup tables are irregular: cells span several columns, multi-row cells
// are encoded as a "<d>*" prefix in the cell text, header rows are not
// marked, and some rows carry fewer cells than the table is wide. The
// [Reconstructor] resolves this in one pass over the rows:
//
//  1. The column count is the widest row, by cells or by column spans.
//  2. Each row is classified as header, data or incomplete. A row is a
//     header while no citation has been seen and it is either one of the
//     first two rows or shorter than the table. Short rows after the first
//     citation, and rows embedding a figure, are incomplete and are kept in
//     IncompleteRows instead of the grid.
//  3. Cells are written into every position they span. The first writer of a
//     position wins.
//  4. Header rows are merged into row 0, which becomes the column names.
//
// Reconstruction either succeeds or returns [ErrEmptyTable] or
// [ErrRowSpanOutOfRange] with a nil table:
//
//	tree, err := markup.Parse(raw)
//	if err != nil {
//		return err
//	}
//	tj, err := tables.Reconstruct(tree)
//
// # Configuration
//
// Behavior is controlled by [Config]:
//
//	r := tables.NewReconstructor()
//	cfg := tables.DefaultConfig()
//	cfg.Postprocess = false
//	if err := r.Configure(cfg); err != nil {
//		return err
//	}
//
// With Postprocess enabled (the default) the column table is normalized and
// split by [references.Postprocess].
package tables
